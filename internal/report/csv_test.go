package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeURLs(t *testing.T) {
	urls := []string{
		"https://storage.local/bkt/alice/a_1a2b3c.txt?expires=1",
		"https://storage.local/bkt/alice/b_4d5e6f.txt?expires=2",
	}

	data, err := EncodeURLs(urls)
	require.NoError(t, err)

	// One URL literal per line, no header row, no index column
	want := urls[0] + "\n" + urls[1] + "\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeURLsEmpty(t *testing.T) {
	data, err := EncodeURLs(nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEncodeURLsQuoting(t *testing.T) {
	// A URL containing a comma must stay one field per line
	data, err := EncodeURLs([]string{"https://example.com/a,b"})
	require.NoError(t, err)
	assert.Equal(t, "\"https://example.com/a,b\"\n", string(data))
}
