//go:build database

// Package integration contains integration tests for makan.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags database ./integration
package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedMakanPath holds the path to a shared makan binary built once for all tests.
	sharedMakanPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// weeklyFeed is a two-group feed in the shape of the campus JSON timetable.
const weeklyFeed = `[
	{"INTAKE":"UC2F2408CS","GROUPING":"G1","DAY":"MON","DATESTAMP_ISO":"2026-01-12","TIME_FROM_ISO":"2026-01-12T09:00:00+08:00","TIME_TO_ISO":"2026-01-12T10:30:00+08:00","MODID":"CT047-3-3-CSEC-L","MODULE_NAME":"Cyber Security","ROOM":"B-06-08"},
	{"INTAKE":"UC2F2408CS","GROUPING":"G1","DAY":"MON","DATESTAMP_ISO":"2026-01-12","TIME_FROM_ISO":"2026-01-12T13:00:00+08:00","TIME_TO_ISO":"2026-01-12T14:00:00+08:00","MODID":"CT047-3-3-CSEC-T","MODULE_NAME":"Cyber Security"},
	{"INTAKE":"UC2F2408SE","GROUPING":"G2","DAY":"MON","DATESTAMP_ISO":"2026-01-12","TIME_FROM_ISO":"2026-01-12T09:30:00+08:00","TIME_TO_ISO":"2026-01-12T11:00:00+08:00","MODID":"CT071-3-3-DDAC-L","MODULE_NAME":"Cloud Computing"},
	{"INTAKE":"UC2F2408SE","GROUPING":"G2","DAY":"MON","DATESTAMP_ISO":"2026-01-12","TIME_FROM_ISO":"2026-01-12T12:30:00+08:00","TIME_TO_ISO":"2026-01-12T13:30:00+08:00","MODID":"CT071-3-3-DDAC-LAB","MODULE_NAME":"Cloud Computing"}
]`

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getMakanBinary returns the path to the makan binary, building it once if needed.
func getMakanBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "makan-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		makanPath := filepath.Join(tempDir, "makan")
		buildCmd := exec.Command("go", "build", "-o", makanPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build makan: %v", err))
		}
		sharedMakanPath = makanPath
	})

	return sharedMakanPath
}

// newFeedServer serves weeklyFeed and counts the requests it receives.
func newFeedServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(weeklyFeed))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// runMakanCommand runs the binary with the given cache backend and returns its combined output.
func runMakanCommand(t *testing.T, backend, connStr string, args ...string) string {
	t.Helper()
	cmd := exec.Command(getMakanBinary(), args...)
	cmd.Dir = t.TempDir() // keep any config file in the project root out of the way
	cmd.Env = append(os.Environ(),
		"MAKAN_CACHE_BACKEND="+backend,
		"MAKAN_CACHE_DB_CONNECT="+connStr,
		"MAKAN_COLOR=no",
		"MAKAN_EMOJI=no",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "Command failed: %s\nOutput: %s", cmd.String(), string(output))
	return string(output)
}

// exerciseBackend runs the same CLI flow against any cache backend.
func exerciseBackend(t *testing.T, backend, connStr string) {
	srv, hits := newFeedServer(t)
	query := []string{
		"gaps", "alice=UC2F2408CS:G1", "bob=UC2F2408SE:G2",
		"--source", "apspace", "--source-url", srv.URL,
		"--week", "2026-01-12", "--output", "csv",
	}

	runMakanCommand(t, backend, connStr, "cache", "clear")

	out := runMakanCommand(t, backend, connStr, query...)
	require.Contains(t, out, ",mutual,Mon,08:00,09:00,1.00,MUTUAL 1h 0m,Mutual")
	require.Contains(t, out, ",mutual,Mon,11:00,12:30,1.50,MUTUAL 1h 30m,Mutual")
	require.Equal(t, 1, *hits, "both groups share one feed download")

	// The second run is served from the cache
	runMakanCommand(t, backend, connStr, query...)
	require.Equal(t, 1, *hits)

	status := runMakanCommand(t, backend, connStr, "cache", "status")
	require.Contains(t, status, "Connected: true")
	require.Contains(t, status, "Cached Timetables: 2")
}
