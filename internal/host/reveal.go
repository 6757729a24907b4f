// Package host integrates with the desktop the tools run on.
package host

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
)

// Revealer shows a file to the user in the platform file manager.
type Revealer interface {
	Reveal(path string) error
}

// Command builds the process that reveals a path.
type Command func(name string, args ...string) *exec.Cmd

// Desktop reveals files with the platform file manager.
type Desktop struct {
	goos    string
	command Command
}

// NewDesktop returns a Desktop for the running platform.
func NewDesktop() *Desktop {
	return &Desktop{goos: runtime.GOOS, command: exec.Command}
}

// Reveal opens the folder containing path, selecting the file where the
// platform supports it. The file manager is started and not waited for.
func (d *Desktop) Reveal(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}
	if _, err := os.Stat(abs); err != nil {
		return errors.Wrap(err, "stat")
	}

	name, args := d.args(abs)
	cmd := d.command(name, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", name)
	}
	// Release the child; the file manager outlives the request.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (d *Desktop) args(abs string) (string, []string) {
	switch d.goos {
	case "windows":
		return "explorer", []string{"/select," + abs}
	case "darwin":
		return "open", []string{"-R", abs}
	default:
		return "xdg-open", []string{filepath.Dir(abs)}
	}
}

// Nop is a Revealer for hosts without a desktop.
type Nop struct{}

// Reveal does nothing.
func (Nop) Reveal(string) error { return nil }
