package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestStatusCmd_PrintsCounts(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.images.StatsValue = &domain.ImageStats{Total: 7, Done: 5, Pending: 1, Failed: 1, Spans: 42}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Photos:  7")
	assert.Contains(t, out, "done:    5")
	assert.Contains(t, out, "pending: 1")
	assert.Contains(t, out, "failed:  1")
	assert.Contains(t, out, "Text spans: 42")
	assert.NotContains(t, out, "Failed:")
}

func TestStatusCmd_ListsFailed(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.images.StatsValue = &domain.ImageStats{Total: 2, Done: 1, Failed: 1}
	ts.images.Listed = []domain.ImageRecord{
		{Path: "/photos/broken.jpg", Status: domain.StatusFailed, Error: "unsupported image"},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--failed"})

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, domain.StatusFailed, ts.images.LastFilter.Status)
	assert.Contains(t, buf.String(), "Failed:\n  /photos/broken.jpg: unsupported image")
}

func TestStatusCmd_RejectsArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"status", "extra"})

	require.Error(t, rootCmd.Execute())
}
