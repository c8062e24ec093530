package schedule

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

const commandTimeout = 30 * time.Second

// runner executes an external command with optional stdin and returns its
// combined output.
type runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	return cmd.CombinedOutput()
}

// Scheduler installs and removes the OS task that runs Command.
type Scheduler struct {
	Task    string
	Command string
	run     runner
	// session returns the NAME=value pairs the task needs to reach the
	// desktop session; nil means none.
	session func() []string
}

// New returns a Scheduler for task running command.
func New(task, command string) *Scheduler {
	return &Scheduler{Task: task, Command: command, run: runCommand, session: sessionEnv}
}

func (s *Scheduler) env() []string {
	if s.session == nil {
		return nil
	}
	return s.session()
}
