package questline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/questline/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "questline"
	}

	// go test changes the CWD to the test package directory, so relative paths
	// would be resolved from there.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("QUESTLINE_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("questline binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "QUESTLINE_INTEGRATION"
		envBinary     = "QUESTLINE_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Workspace is an isolated definitions dir and journal.
type Workspace struct {
	DefinitionsDir string
	DBPath         string
}

// NewWorkspace writes the definition files in a temp dir.
func NewWorkspace(t *testing.T, files map[string]string) Workspace {
	t.Helper()

	dir := t.TempDir()
	defsDir := filepath.Join(dir, "definitions")
	for name, data := range files {
		path := filepath.Join(defsDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("could not create definitions dir: %s", err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("could not write definition: %s", err)
		}
	}

	return Workspace{
		DefinitionsDir: defsDir,
		DBPath:         filepath.Join(dir, "journal.db"),
	}
}

// RunCmd runs a questline command on the workspace with logging disabled.
func RunCmd(ctx context.Context, config Config, ws Workspace, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --definitions-dir %s --db-path %s %s", ws.DefinitionsDir, ws.DBPath, cmdArgs)
	return testutils.RunQuestline(ctx, nil, config.Binary, args, true)
}

// RunQuest runs a quest on the simulated world without metrics.
func RunQuest(ctx context.Context, config Config, ws Workspace, questID int) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("run --quest %d --tick-interval 50ms --max-ticks 400 --metrics-listen-address= --format json", questID)
	return RunCmd(ctx, config, ws, args)
}
