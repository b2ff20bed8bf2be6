package vast

import (
	"context"
	"fmt"
	"testing"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

func TestComposeAppendsAPIKey(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai show", []byte(`[]`), nil)

	client := NewClient("vastai", "sk-test", WithExecutor(mock))
	var out []any
	if err := client.RunJSON(context.Background(), &out, "show", "instances"); err != nil {
		t.Fatalf("RunJSON failed: %v", err)
	}

	last, ok := mock.LastCommand()
	if !ok {
		t.Fatal("no command recorded")
	}
	want := []string{"show", "instances", "--raw", "--api-key", "sk-test"}
	if len(last.Args) != len(want) {
		t.Fatalf("args = %v, want %v", last.Args, want)
	}
	for i := range want {
		if last.Args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, last.Args[i], want[i])
		}
	}
}

func TestRunJSONNoAPIKey(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai search", []byte(`[{"id": 7}]`), nil)

	client := NewClient("vastai", "", WithExecutor(mock))
	var out []map[string]any
	if err := client.RunJSON(context.Background(), &out, "search", "offers"); err != nil {
		t.Fatalf("RunJSON failed: %v", err)
	}
	if len(out) != 1 || out[0]["id"].(float64) != 7 {
		t.Errorf("decoded = %v", out)
	}

	last, _ := mock.LastCommand()
	for _, a := range last.Args {
		if a == "--api-key" {
			t.Error("--api-key should not be appended without a key")
		}
	}
}

func TestRunJSONToleratesBanner(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai search", []byte("Update available 0.1.2 -> 0.2.0\n[{\"id\": 1}]\n"), nil)

	client := NewClient("vastai", "", WithExecutor(mock))
	var out []map[string]any
	if err := client.RunJSON(context.Background(), &out, "search", "templates"); err != nil {
		t.Fatalf("RunJSON failed: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("decoded %d entries, want 1", len(out))
	}
}

func TestRunJSONEmptyOutput(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai show", []byte("  \n"), nil)

	client := NewClient("vastai", "", WithExecutor(mock))
	var out map[string]any
	if err := client.RunJSON(context.Background(), &out, "show", "user"); err != nil {
		t.Fatalf("RunJSON on empty output should succeed: %v", err)
	}
	if out != nil {
		t.Errorf("decoded = %v, want nil", out)
	}
}

func TestRunCommandFailure(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.DefaultResponse = system.MockResponse{
		Stderr: []byte("failed to connect"),
		Err:    fmt.Errorf("exit status 1"),
	}

	client := NewClient("vastai", "", WithExecutor(mock))
	_, err := client.Run(context.Background(), "destroy", "instance", "1")
	if err == nil {
		t.Fatal("expected error")
	}

	var cliErr *errors.CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("error type = %T", err)
	}
}

func TestStreamDeliversLines(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddStream("vastai logs", "booting", "=== Provisioning Complete ===")

	client := NewClient("vastai", "", WithExecutor(mock))
	var lines []string
	err := client.Stream(context.Background(), func(l string) { lines = append(lines, l) }, "logs", "42", "--follow")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2", len(lines))
	}
}

func TestStreamCancellationIsNotAnError(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddStream("vastai logs", "a", "b", "c")

	client := NewClient("vastai", "", WithExecutor(mock))
	ctx, cancel := context.WithCancel(context.Background())
	err := client.Stream(ctx, func(string) { cancel() }, "logs", "42")
	if err != nil {
		t.Errorf("cancelled stream should return nil, got %v", err)
	}
}

func TestFormatCommand(t *testing.T) {
	client := NewClient("vastai", "")
	got := client.FormatCommand("create", "template", "--name", "DFL Desktop")
	want := "vastai create template --name 'DFL Desktop'"
	if got != want {
		t.Errorf("FormatCommand = %q, want %q", got, want)
	}
}
