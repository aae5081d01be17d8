//go:build windows

package supervisor

import (
	"os/exec"

	"github.com/kandev/swarm/internal/common/apperr"
)

// configureProcessGroup is a no-op on Windows; process-group signal
// forwarding is POSIX-only, per the spec's open question on Windows
// support (source paths and signal names are POSIX throughout and
// portability is explicitly left unspecified).
func configureProcessGroup(cmd *exec.Cmd) {}

// SignalGroup is not supported on Windows.
func SignalGroup(pid int, sig int) error {
	return apperr.NotSupported("process-group signal forwarding is not supported on windows")
}
