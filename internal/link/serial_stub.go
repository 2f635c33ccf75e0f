//go:build !linux

package link

import "fmt"

type Port struct{}

func Open(path string, baud int) (*Port, error) {
	return nil, fmt.Errorf("serial links are not supported on this platform")
}

func (p *Port) Read(b []byte) (int, error)  { return 0, fmt.Errorf("not supported") }
func (p *Port) Write(b []byte) (int, error) { return 0, fmt.Errorf("not supported") }
func (p *Port) Close() error                { return nil }
func (p *Port) Path() string                { return "" }
