package cli

import "golang.org/x/sys/unix"

// isTerminal reports whether fd refers to a terminal device. Used to
// decide whether to drive input through the line editor or through a
// plain line scanner that echoes each line before processing it.
func isTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}
