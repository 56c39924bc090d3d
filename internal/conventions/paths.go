package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default questline data directory name (relative to home).
	DefaultDataDir = ".questline"
	// DefinitionsDir is the subdirectory where definitions are loaded from.
	DefinitionsDir = "definitions"
	// JournalDBFile is the run journal SQLite database filename.
	JournalDBFile = "journal.db"

	// DefaultMetricsListenAddress is where the run command serves metrics when enabled.
	DefaultMetricsListenAddress = ":8081"
	// MetricsPath is the HTTP path metrics are served on.
	MetricsPath = "/metrics"
)

// DataDir returns the questline data directory for a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// DefinitionsPath returns the default definitions directory.
func DefinitionsPath(home string) string {
	return filepath.Join(DataDir(home), DefinitionsDir)
}

// JournalDBPath returns the default journal database path.
func JournalDBPath(home string) string {
	return filepath.Join(DataDir(home), JournalDBFile)
}
