package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientPresignExpiry(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	now := time.Now()
	client.SetClock(func() time.Time { return now })

	err := client.PutObject(ctx, "bkt", "alice/a.txt", bytes.NewReader([]byte("payload")), 7, PutOptions{})
	require.NoError(t, err)

	url, err := client.PresignedGetURL(ctx, "bkt", "alice/a.txt", time.Hour)
	require.NoError(t, err)

	// Valid while within the expiry window
	data, err := client.Fetch(url)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	// Rejected once the expiry elapses
	now = now.Add(time.Hour + time.Second)
	_, err = client.Fetch(url)
	assert.ErrorContains(t, err, "expired")
}

func TestMemoryClientPresignUnknownObject(t *testing.T) {
	client := NewMemoryClient()
	_, err := client.PresignedGetURL(context.Background(), "bkt", "missing", time.Hour)
	assert.Error(t, err)
}

func TestCleanEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{name: "host port", endpoint: "localhost:9000", want: "localhost:9000"},
		{name: "http url", endpoint: "http://localhost:9000", want: "localhost:9000"},
		{name: "https url", endpoint: "https://s3.example.com", want: "s3.example.com"},
		{name: "empty", endpoint: "", wantErr: true},
		{name: "url with path", endpoint: "https://s3.example.com/bucket", wantErr: true},
		{name: "bare host with path", endpoint: "s3.example.com/bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanEndpoint(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
