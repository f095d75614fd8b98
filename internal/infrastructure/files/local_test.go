package files

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveNormalizesName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save("My Holiday Photo.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d+-my-holiday-photo\.png$`), ref)

	data, err := os.ReadFile(store.Path(ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	ref, err := store.Save("../../etc/passwd.png", strings.NewReader("x"))
	require.NoError(t, err)

	assert.NotContains(t, ref, "/")
	assert.Equal(t, dir, filepath.Dir(store.Path(ref)))
}

func TestRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save("pic.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ref))
	_, statErr := os.Stat(store.Path(ref))
	assert.True(t, os.IsNotExist(statErr))

	// Removing again, or removing nothing, is not an error.
	assert.NoError(t, store.Remove(ref))
	assert.NoError(t, store.Remove(""))
}
