package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

func TestE2E_AskAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the TUI binary")
	}
	binPath := buildBinary(t, "boardview")
	apiURL := startBackend(t, 30)

	// Setup a clean home directory for the test to avoid messing with real data
	homeDir := t.TempDir()

	cmd := exec.Command(binPath)
	cmd.Dir = homeDir
	cmd.Env = testEnv(homeDir, apiURL)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Fatalf("failed to start pty: %v", err)
	}
	defer func() {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
	}()

	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	// Capture output for debugging
	var outputBuf bytes.Buffer

	console, err := expect.NewConsole(
		expect.WithStdin(ptmx),
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	defer console.Close()

	dumpLogs := func() {
		matches, _ := filepath.Glob(filepath.Join(homeDir, ".boardview", "logs", "*.log"))
		for _, m := range matches {
			if logs, err := os.ReadFile(m); err == nil {
				t.Logf("%s:\n%s", m, logs)
			}
		}
	}

	// 1. Startup: the chat tab polls the index status.
	t.Log("Waiting for index status...")
	if _, err := console.ExpectString("No.30"); err != nil {
		dumpLogs()
		t.Fatalf("status line not found: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 2. Ask a question; the prompt has focus on startup.
	time.Sleep(300 * time.Millisecond) // Allow UI to stabilize
	if _, err := console.Send("hello\r"); err != nil {
		t.Fatalf("failed to send question: %v", err)
	}
	if _, err := console.ExpectString("Hi there"); err != nil {
		dumpLogs()
		t.Fatalf("answer not rendered: %v\nOutput buffer:\n%s", err, outputBuf.String())
	}

	// 3. Leave the prompt, open the search tab and submit an empty search.
	if _, err := console.Send("\x1b"); err != nil {
		t.Fatalf("failed to send esc: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := console.Send("2"); err != nil {
		t.Fatalf("failed to send 2: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := console.Send("\r"); err != nil {
		t.Fatalf("failed to send Enter: %v", err)
	}
	if _, err := console.ExpectString("レス30"); err != nil {
		t.Fatalf("search results not rendered: %v\nOutput buffer:\n%s", err, outputBuf.String())
	}

	// Send 'q' to quit
	t.Log("Sending 'q'...")
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}

	done := make(chan error)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
		t.Log("Process exited successfully")
	case <-time.After(2 * time.Second):
		t.Error("Process did not exit after 'q'")
	}
}

func TestE2E_CLIStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the CLI binary")
	}
	binPath := buildBinary(t, "bvctl")
	apiURL := startBackend(t, 30)
	homeDir := t.TempDir()

	cmd := exec.Command(binPath, "status")
	cmd.Dir = homeDir
	cmd.Env = testEnv(homeDir, apiURL)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("bvctl status: %v\n%s", err, out)
	}
	if !bytes.Contains(out, []byte("インデックス済み: No.1 - No.30")) {
		t.Errorf("unexpected status output:\n%s", out)
	}
}
