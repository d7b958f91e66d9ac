package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jinxlo/api-dashboard/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Level(t *testing.T) {
	closer, err := logging.Setup(logging.Options{Level: "warn", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	closer, err = logging.Setup(logging.Options{Level: "not-a-level"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetup_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	closer, err := logging.Setup(logging.Options{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("written to file")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
	assert.Contains(t, string(data), `"component":"test"`)
}
