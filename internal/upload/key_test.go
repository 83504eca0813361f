package upload

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name     string
		username string
		filename string
		pattern  string
	}{
		{
			name:     "simple file",
			username: "alice",
			filename: "report.pdf",
			pattern:  `^alice/report_[0-9a-f]{6}\.pdf$`,
		},
		{
			name:     "no extension",
			username: "bob",
			filename: "README",
			pattern:  `^bob/README_[0-9a-f]{6}$`,
		},
		{
			name:     "multiple dots keep only last extension",
			username: "alice",
			filename: "archive.tar.gz",
			pattern:  `^alice/archive\.tar_[0-9a-f]{6}\.gz$`,
		},
		{
			name:     "path components stripped",
			username: "alice",
			filename: "dir/sub/data.csv",
			pattern:  `^alice/data_[0-9a-f]{6}\.csv$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DeriveKey(tt.username, tt.filename)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), key)
		})
	}
}

func TestDeriveKeyDistinctForSharedStem(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key := DeriveKey("alice", "photo.jpg")
		assert.False(t, seen[key], "derived key %q repeated", key)
		seen[key] = true
	}
}
