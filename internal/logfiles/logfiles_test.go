package logfiles

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	fsys := afero.NewMemMapFs()
	dir := "/10/20240101-120000_10.tar/logs"
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fsys, dir+"/ingest-report.log", []byte("rejected: bad checksum\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, dir+"/create-sip.log", []byte("ok\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, dir+"/notes.txt", []byte("ignored"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/secret.log", []byte("nope"), 0o644))
	return NewReader(fsys)
}

func TestFilenames(t *testing.T) {
	reader := newTestReader(t)

	names, err := reader.Filenames(10, "20240101-120000_10.tar")
	require.NoError(t, err)
	assert.Equal(t, []string{"create-sip.log", "ingest-report.log"}, names)

	none, err := reader.Filenames(11, "missing.tar")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContent(t *testing.T) {
	reader := newTestReader(t)

	content, err := reader.Content(10, "20240101-120000_10.tar", "ingest-report.log")
	require.NoError(t, err)
	assert.Equal(t, "rejected: bad checksum\n", content)

	_, err = reader.Content(10, "20240101-120000_10.tar", "missing.log")
	assert.Error(t, err)
}

func TestContentRejectsEscapes(t *testing.T) {
	reader := newTestReader(t)

	for _, name := range []string{"../../../secret.log", "..", "", "sub/dir.log", `..\secret.log`, "notes.txt"} {
		_, err := reader.Content(10, "20240101-120000_10.tar", name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err := reader.Content(10, "..", "secret.log")
	assert.ErrorIs(t, err, ErrInvalidName)
}
