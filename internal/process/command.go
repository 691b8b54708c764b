// Package process runs the external decoder, encoder and prober tools.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrCommandFailed is matched by every error returned for a command that ran
// and exited with a non-zero status.
var ErrCommandFailed = errors.New("command failed")

// ErrToolNotFound is returned when an executable cannot be resolved on PATH.
var ErrToolNotFound = errors.New("tool not found")

// ExitError reports the exit status of a failed command.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %s failed, return code = %d", e.Name, e.Code)
}

// Is lets errors.Is(err, ErrCommandFailed) match any ExitError.
func (e *ExitError) Is(target error) bool {
	return target == ErrCommandFailed
}

// CommandExecutor defines an interface for executing one prepared command.
// This abstraction enables unit testing without spawning real processes.
type CommandExecutor interface {
	// Run executes the command to completion and returns its standard output.
	// A non-zero exit status is reported as an *ExitError.
	Run() ([]byte, error)
}

// CommandBuilder defines an interface for building commands.
type CommandBuilder interface {
	// BuildCommand creates a CommandExecutor for the given executable and arguments.
	BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	name string
	cmd  *exec.Cmd
}

// Run executes the command and returns standard output.
// Standard error is passed through so the tool's own diagnostics stay visible.
func (r *RealCommandExecutor) Run() ([]byte, error) {
	r.cmd.Stderr = os.Stderr
	out, err := r.cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, &ExitError{Name: r.name, Code: exitErr.ExitCode()}
		}
		return out, err
	}
	return out, nil
}

// RealCommandBuilder implements CommandBuilder using exec.CommandContext.
type RealCommandBuilder struct{}

// NewRealCommandBuilder creates a new RealCommandBuilder.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{}
}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (b *RealCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	return &RealCommandExecutor{name: name, cmd: exec.CommandContext(ctx, name, args...)}
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	// Output is the output to return from Run.
	Output []byte
	// Err is the error to return from Run.
	Err error
	// Effect runs before Run returns, e.g. to create the files a real tool would write.
	Effect func() error
	// RunCalled indicates whether Run was called.
	RunCalled bool
}

// Run returns the configured output and error.
func (m *MockCommandExecutor) Run() ([]byte, error) {
	m.RunCalled = true
	if m.Effect != nil {
		if err := m.Effect(); err != nil {
			return nil, err
		}
	}
	return m.Output, m.Err
}

// MockCommandBuilder implements CommandBuilder for testing.
type MockCommandBuilder struct {
	// Commands records all commands that were built.
	Commands []MockBuiltCommand
	// ExecutorFactory allows creating executors dynamically based on command.
	ExecutorFactory func(name string, args []string) *MockCommandExecutor
}

// MockBuiltCommand records details of a built command.
type MockBuiltCommand struct {
	Name string
	Args []string
}

// NewMockCommandBuilder creates a new MockCommandBuilder.
func NewMockCommandBuilder() *MockCommandBuilder {
	return &MockCommandBuilder{}
}

// BuildCommand creates a MockCommandExecutor and records the command details.
func (b *MockCommandBuilder) BuildCommand(_ context.Context, name string, args ...string) CommandExecutor {
	b.Commands = append(b.Commands, MockBuiltCommand{Name: name, Args: args})
	if b.ExecutorFactory != nil {
		return b.ExecutorFactory(name, args)
	}
	return &MockCommandExecutor{}
}

// LastCommand returns the most recently built command, or nil if none.
func (b *MockCommandBuilder) LastCommand() *MockBuiltCommand {
	if len(b.Commands) == 0 {
		return nil
	}
	return &b.Commands[len(b.Commands)-1]
}

// Reset clears all recorded commands.
func (b *MockCommandBuilder) Reset() {
	b.Commands = nil
}
