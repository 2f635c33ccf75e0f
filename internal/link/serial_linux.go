//go:build linux

package link

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Port is an open serial device in raw mode. Read returns (0, nil) when the
// 100 ms read timeout expires with no data; the session loop treats that as
// a retry so it stays responsive to stop requests.
type Port struct {
	fd   int
	path string
}

func Open(path string, baud int) (*Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Best-effort: if anything below fails, close fd.
	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("termios get %s: %w", path, err)
	}

	spd, err := baudToUnix(baud)
	if err != nil {
		return nil, err
	}

	// Raw mode: the line is a byte stream, framing happens in the session.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8

	// VMIN=0/VTIME=1: a read returns within 100 ms even with no data, so a
	// blocked session loop can notice a disconnect promptly.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 1

	t.Cflag &^= unix.CBAUD
	t.Cflag |= spd
	t.Ispeed = spd
	t.Ospeed = spd

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, fmt.Errorf("termios set %s: %w", path, err)
	}

	ok = true
	return &Port{fd: fd, path: path}, nil
}

// Read returns (0, nil) on an empty timed-out read; unlike os.File it does
// not fold that case into io.EOF, which would end the session early.
func (p *Port) Read(b []byte) (int, error) {
	return unix.Read(p.fd, b)
}

func (p *Port) Write(b []byte) (int, error) {
	return unix.Write(p.fd, b)
}

func (p *Port) Close() error {
	return unix.Close(p.fd)
}

func (p *Port) Path() string {
	return p.path
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	default:
		return 0, fmt.Errorf("unsupported baud %d", baud)
	}
}
