package conventions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/questline/internal/conventions"
)

func TestPaths(t *testing.T) {
	tests := map[string]struct {
		path    func(home string) string
		expPath string
	}{
		"Data dir should be inside the home.": {
			path:    conventions.DataDir,
			expPath: "/home/user/.questline",
		},
		"Definitions should be inside the data dir.": {
			path:    conventions.DefinitionsPath,
			expPath: "/home/user/.questline/definitions",
		},
		"Journal database should be inside the data dir.": {
			path:    conventions.JournalDBPath,
			expPath: "/home/user/.questline/journal.db",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expPath, test.path("/home/user"))
		})
	}
}
