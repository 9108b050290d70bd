//go:build !linux && !darwin

package log

// isTerminal reports false on platforms without termios; output is never colored.
func isTerminal(fd uintptr) bool {
	return false
}
