// Package spawn launches detached child processes.
package spawn

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Error describes a command that could not be launched.
type Error struct {
	CommandLine string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.CommandLine, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var errEmptyCommand = errors.New("empty command line")

// Spawner starts commands without waiting for them to finish.
type Spawner struct {
	logger *slog.Logger
	start  func(cmd *exec.Cmd) error
}

// New returns a Spawner that logs child exit status to logger.
func New(logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{
		logger: logger,
		start:  func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// Spawn splits commandLine on whitespace and starts it. The child is reaped
// in the background; a launch failure is returned as *Error.
func (s *Spawner) Spawn(commandLine string) error {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &Error{CommandLine: commandLine, Err: errEmptyCommand}
	}

	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := s.start(cmd); err != nil {
		return &Error{CommandLine: commandLine, Err: errors.Wrap(err, "failed to start")}
	}

	s.logger.Debug("spawned process", "command", commandLine, "pid", cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("process exited", "command", commandLine, "error", err)
		}
	}()
	return nil
}
