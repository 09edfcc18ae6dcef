package services

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storedName = regexp.MustCompile(`^resume_[0-9a-f-]{36}\.(pdf|docx)$`)

func TestStorage_SaveBytesAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	storage := NewStorageService(dir)
	require.NoError(t, storage.EnsureUploadDir())

	name, path, err := storage.SaveBytes([]byte("%PDF-1.4"), "../../etc/My Resume.PDF")
	require.NoError(t, err)

	assert.Regexp(t, storedName, name)
	assert.Equal(t, filepath.Join(dir, name), path)
	assert.Equal(t, path, storage.GetFilePath(name))

	data, err := storage.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, storage.DeleteFile(name))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStorage_RejectsUnsupportedExtension(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	_, _, err := storage.SaveBytes([]byte("x"), "resume.exe")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = storage.SaveBytes([]byte("x"), "resume")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStorage_ReadMissingFile(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	_, err := storage.ReadFile(storage.GetFilePath("missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Error(t, storage.DeleteFile("missing.pdf"))
}
