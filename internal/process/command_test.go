package process

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRealCommandExecutor_Run(t *testing.T) {
	builder := NewRealCommandBuilder()

	output, err := builder.BuildCommand(context.Background(), "echo", "arg1", "arg2").Run()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	expected := "arg1 arg2"
	if strings.TrimSpace(string(output)) != expected {
		t.Errorf("Expected '%s', got: %s", expected, output)
	}
}

func TestRealCommandExecutor_Run_Error(t *testing.T) {
	builder := NewRealCommandBuilder()

	_, err := builder.BuildCommand(context.Background(), "sh", "-c", "exit 3").Run()
	if err == nil {
		t.Fatal("Expected error for failing command")
	}
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Expected ErrCommandFailed, got: %v", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("Expected exit code 3, got: %v", err)
	}
}

func TestMockCommandExecutor_Run(t *testing.T) {
	effect := false
	mock := &MockCommandExecutor{
		Output: []byte("mock output"),
		Effect: func() error { effect = true; return nil },
	}

	output, err := mock.Run()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if string(output) != "mock output" {
		t.Errorf("Expected 'mock output', got: %s", output)
	}
	if !mock.RunCalled || !effect {
		t.Error("Expected RunCalled and Effect to be true")
	}
}

func TestMockCommandBuilder_Records(t *testing.T) {
	builder := NewMockCommandBuilder()
	if builder.LastCommand() != nil {
		t.Error("Expected no commands")
	}

	builder.BuildCommand(context.Background(), "ffprobe", "a.mp4")
	builder.BuildCommand(context.Background(), "ffmpeg", "-i", "a.mp4")

	if len(builder.Commands) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(builder.Commands))
	}
	last := builder.LastCommand()
	if last.Name != "ffmpeg" || strings.Join(last.Args, " ") != "-i a.mp4" {
		t.Errorf("Unexpected last command: %+v", last)
	}

	builder.Reset()
	if len(builder.Commands) != 0 {
		t.Error("Expected Reset to clear commands")
	}
}
