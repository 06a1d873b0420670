// Package testutil holds helpers shared by tests and testscript commands.
package testutil

import "net"

// FreePort asks the kernel for an unused TCP port on the loopback interface.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close() //nolint:errcheck
	return ln.Addr().(*net.TCPAddr).Port, nil
}
