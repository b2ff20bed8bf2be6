package system

import (
	"context"
	"errors"
	"testing"
)

func TestMockFSRoundTrip(t *testing.T) {
	fs := NewMockFS()
	fs.AddFile("/etc/environment", []byte("A=1\n"), 0644)

	data, err := fs.ReadFile("/etc/environment")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "A=1\n" {
		t.Errorf("ReadFile = %q, want %q", data, "A=1\n")
	}

	// Parent dirs are implied by AddFile.
	if !fs.IsDir("/etc") {
		t.Error("expected /etc to exist as a directory")
	}
}

func TestMockFSFileMode(t *testing.T) {
	fs := NewMockFS()
	if err := fs.WriteFile("/root/.vnc/passwd", []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	mode, ok := fs.FileMode("/root/.vnc/passwd")
	if !ok {
		t.Fatal("file not found")
	}
	if mode != 0600 {
		t.Errorf("mode = %o, want 0600", mode)
	}
}

func TestMockExecutorResponses(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("vastai show", []byte(`[]`), nil)
	exec.DefaultResponse = MockResponse{Err: errors.New("unexpected command")}

	out, err := exec.Execute(context.Background(), "vastai", "show", "instances")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(out) != "[]" {
		t.Errorf("output = %q, want %q", out, "[]")
	}

	if _, err := exec.Execute(context.Background(), "other"); err == nil {
		t.Error("expected default error for unmatched command")
	}

	if exec.CommandCount() != 2 {
		t.Errorf("CommandCount = %d, want 2", exec.CommandCount())
	}
}

func TestMockExecutorLongestPrefixWins(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("vastai search templates", []byte(`["all"]`), nil)
	exec.AddResponse("vastai search templates my=true", []byte(`["own"]`), nil)

	out, err := exec.Execute(context.Background(), "vastai", "search", "templates", "my=true", "--raw")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(out) != `["own"]` {
		t.Errorf("output = %q, want the deepest registered pattern", out)
	}

	out, err = exec.Execute(context.Background(), "vastai", "search", "templates", "--raw")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(out) != `["all"]` {
		t.Errorf("output = %q, want the shallow pattern", out)
	}
}

func TestMockExecutorStream(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddStream("vastai logs", "line one", "line two")

	var got []string
	err := exec.ExecuteStream(context.Background(), func(line string) {
		got = append(got, line)
	}, "vastai", "logs", "123")
	if err != nil {
		t.Fatalf("ExecuteStream failed: %v", err)
	}
	if len(got) != 2 || got[0] != "line one" || got[1] != "line two" {
		t.Errorf("streamed lines = %v", got)
	}
}

func TestMockExecutorStreamCancelled(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddStream("cmd", "a", "b", "c")

	ctx, cancel := context.WithCancel(context.Background())
	var count int
	err := exec.ExecuteStream(ctx, func(string) {
		count++
		cancel()
	}, "cmd")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if count != 1 {
		t.Errorf("lines delivered after cancel: %d", count)
	}
}

func TestSafeEnvironStripsAPIKey(t *testing.T) {
	t.Setenv("VAST_API_KEY", "secret")
	t.Setenv("HOME", "/root")

	for _, kv := range SafeEnviron() {
		if kv == "VAST_API_KEY=secret" {
			t.Fatal("VAST_API_KEY leaked into SafeEnviron")
		}
	}
}
