package mcp

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Transport supplies the byte pipes a Client speaks JSON-RPC over.
// Start may be called once; Close tears down whatever Start opened.
type Transport interface {
	Start(ctx context.Context) (stdin io.WriteCloser, stdout io.ReadCloser, err error)
	Close() error
}

// CommandTransport runs a tool server as a subprocess and connects to its
// stdin and stdout.
type CommandTransport struct {
	command []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// NewCommandTransport creates a transport that will spawn the given command.
func NewCommandTransport(command ...string) *CommandTransport {
	return &CommandTransport{command: command}
}

// Start spawns the server process and returns its pipes. On any failure every
// pipe opened so far is closed before returning.
func (t *CommandTransport) Start(ctx context.Context) (io.WriteCloser, io.ReadCloser, error) {
	if len(t.command) == 0 {
		return nil, nil, fmt.Errorf("%w: no command specified", ErrConnectionFailed)
	}

	t.cmd = exec.CommandContext(ctx, t.command[0], t.command[1:]...)

	stdin, err := t.cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stdin pipe: %v", ErrConnectionFailed, err)
	}

	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, nil, fmt.Errorf("%w: stdout pipe: %v", ErrConnectionFailed, err)
	}

	if err := t.cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, nil, fmt.Errorf("%w: start command: %v", ErrConnectionFailed, err)
	}

	t.stdin = stdin
	t.stdout = stdout
	return stdin, stdout, nil
}

// Close closes the pipes and reaps the server process.
func (t *CommandTransport) Close() error {
	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if t.stdout != nil {
		_ = t.stdout.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		_ = t.cmd.Wait()
	}
	return nil
}
