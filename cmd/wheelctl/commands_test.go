package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePath = "/data/db.json"

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(&cli{
		fs: fs,
		loadConfig: func() (*config.Config, error) {
			return &config.Config{
				Store: config.StoreConfig{Driver: config.StoreFile, Path: storePath, LockTimeout: time.Second},
			}, nil
		},
		logger: logger.NewNoopLogger(),
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGrantAndBalance(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := execute(t, fs, "grant", "player-1", "3")
	require.NoError(t, err)
	assert.Equal(t, "player-1: 3\n", out)

	out, err = execute(t, fs, "grant", "player-1", "2")
	require.NoError(t, err)
	assert.Equal(t, "player-1: 5\n", out)

	out, err = execute(t, fs, "balance", "player-1")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestAddCode(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := execute(t, fs, "add-code", " promo10 ", "10")
	require.NoError(t, err)
	assert.Equal(t, "added PROMO10 (10)\n", out)

	_, err = execute(t, fs, "add-code", "PROMO10", "4")
	assert.Error(t, err)

	_, err = execute(t, fs, "add-code", "OTHER", "zero")
	assert.Error(t, err)

	doc, err := filestore.ReadDocument(fs, storePath)
	require.NoError(t, err)
	require.Len(t, doc.Codes, 1)
	assert.Equal(t, int64(10), doc.Codes[0].Amount)
	assert.False(t, doc.Codes[0].Used)
}

func TestExportImport(t *testing.T) {
	source := afero.NewMemMapFs()
	_, err := execute(t, source, "grant", "player-1", "7")
	require.NoError(t, err)
	_, err = execute(t, source, "add-code", "ABC", "5")
	require.NoError(t, err)

	out, err := execute(t, source, "export", "/backup.json")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 users, 1 codes")

	data, err := afero.ReadFile(source, "/backup.json")
	require.NoError(t, err)

	target := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(target, "/backup.json", data, 0o644))

	out, err = execute(t, target, "import", "/backup.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "imported 1 users, 1 new codes"))

	out, err = execute(t, target, "balance", "player-1")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestImportMissingFile(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), "import", "/nope.json")
	assert.Error(t, err)
}
