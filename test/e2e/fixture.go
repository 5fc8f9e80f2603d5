package e2e

import (
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/abelbrown/boardview/internal/stub"
)

// buildBinary builds ./cmd/<name> into a temp dir and returns its path.
func buildBinary(t *testing.T, name string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), name)

	// Get the project root directory
	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/"+name)
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// startBackend serves the demo fixture and returns its base URL.
func startBackend(t *testing.T, posts int) string {
	t.Helper()
	srv := httptest.NewServer(stub.New(stub.Demo(posts)))
	t.Cleanup(srv.Close)
	return srv.URL
}

// testEnv isolates HOME so no real config or logs are touched.
func testEnv(homeDir, apiURL string) []string {
	return append(os.Environ(),
		"HOME="+homeDir,
		"BOARDVIEW_API_BASE_URL="+apiURL,
		"BOARDVIEW_STATUS_INTERVAL=1s",
	)
}
