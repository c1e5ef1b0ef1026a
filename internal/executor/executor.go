// Package executor handles user confirmation and launching the accepted
// command. Confirm uses injectable io.Reader/io.Writer for testability.
package executor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/hpkotak/askcmd/internal/platform"
)

// Confirm prompts the user for yes/no confirmation.
// defaultYes controls what happens when the user presses Enter without input.
// in and out are injectable for testing.
func Confirm(prompt string, defaultYes bool, in io.Reader, out io.Writer) bool {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}
	_, _ = fmt.Fprintf(out, "%s %s: ", prompt, hint)

	line, ok := ReadLine(in)
	if !ok {
		return false
	}

	switch strings.ToLower(line) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ReadLine reads one line from in, trimmed. It reads a byte at a time so
// later prompts on the same reader see the following lines. ok is false at
// EOF with no input.
func ReadLine(in io.Reader) (line string, ok bool) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimSpace(sb.String()), true
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return strings.TrimSpace(sb.String()), sb.Len() > 0
		}
	}
}

// Start launches command under the user's shell with inherited stdio and
// returns as soon as the process is running. The caller may Wait on the
// returned Cmd; its exit status is not interpreted here.
func Start(command string) (*exec.Cmd, error) {
	cmd := exec.Command(platform.Shell(), "-c", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("executing command: %w", err)
	}
	return cmd, nil
}
