package link

import (
	"fmt"
	"os"
)

// ListPorts returns likely serial devices for a connect prompt. The caller
// still picks the port; nothing here opens anything.
func ListPorts() []string {
	var out []string
	for _, pat := range []string{"/dev/ttyACM%d", "/dev/ttyUSB%d"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf(pat, i)
			if _, err := os.Stat(p); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}
