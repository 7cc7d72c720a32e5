package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command describes a process to start.
type Command struct {
	Path string
	Args []string
	Dir  string

	// Env is added to the parent environment.
	Env []string
}

// Process is a started host process.
type Process interface {
	Pid() int

	// Wait blocks until the process exits and returns its exit code.
	// A non-zero exit is not an error.
	Wait() (int, error)
}

// Spawner starts processes.
type Spawner interface {
	Spawn(ctx context.Context, cmd Command) (Process, error)
}

// ExecSpawner starts processes with os/exec. Stdout and Stderr receive the
// child's output; nil discards it.
type ExecSpawner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (s *ExecSpawner) Spawn(ctx context.Context, cmd Command) (Process, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = s.Stdout
	c.Stderr = s.Stderr

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return &execProcess{cmd: c}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
