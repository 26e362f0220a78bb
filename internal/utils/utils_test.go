package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "hellothere", NormalizeInput("Hello There"))
	assert.Equal(t, "abc", NormalizeInput(" a\tb\nc "))
	assert.Equal(t, "", NormalizeInput("   "))
}

func TestFormatWithCommas(t *testing.T) {
	testCases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-2500000: "-2,500,000",
	}
	for n, want := range testCases {
		assert.Equal(t, want, FormatWithCommas(n))
	}
}

func TestParseTOMLWithRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	content := `
[search]
max_depth = 12
memoize = true
ratio = 2
scale = 0.5

[corpus]
letters = ["a", "i"]
mixed = ["a", 1]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)

	search, ok := ExtractSection(data, "search")
	require.True(t, ok)

	depth, ok := ExtractInt64(search, "max_depth")
	assert.True(t, ok)
	assert.Equal(t, 12, depth)

	_, ok = ExtractInt64(search, "memoize")
	assert.False(t, ok)

	memo, ok := ExtractBool(search, "memoize")
	assert.True(t, ok)
	assert.True(t, memo)

	ratio, ok := ExtractFloat(search, "ratio")
	assert.True(t, ok)
	assert.Equal(t, 2.0, ratio)

	scale, ok := ExtractFloat(search, "scale")
	assert.True(t, ok)
	assert.Equal(t, 0.5, scale)

	corpus, ok := ExtractSection(data, "corpus")
	require.True(t, ok)
	letters, ok := ExtractStrings(corpus, "letters")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "i"}, letters)
	_, ok = ExtractStrings(corpus, "mixed")
	assert.False(t, ok)

	_, ok = ExtractSection(data, "missing")
	assert.False(t, ok)
}

func TestParseTOMLWithRecoveryInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search\nmax_depth = "), 0o644))

	_, err := ParseTOMLWithRecovery(path)
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.bin")

	require.NoError(t, WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("first")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	boom := errors.New("boom")
	err = WriteFileAtomic(path, func(f *os.File) error {
		f.WriteString("partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPathResolver(t *testing.T) {
	execDir := t.TempDir()
	dataDir := t.TempDir()
	pr := newPathResolver(execDir, dataDir)
	assert.Equal(t, dataDir, pr.DataDir())

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "model.msgpack"), []byte("x"), 0o644))
	got, err := pr.Resolve("model.msgpack")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "model.msgpack"), got)

	require.NoError(t, os.WriteFile(filepath.Join(execDir, "model.msgpack"), []byte("x"), 0o644))
	got, err = pr.Resolve("model.msgpack")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(execDir, "model.msgpack"), got)

	_, err = pr.Resolve("absent.msgpack")
	assert.ErrorIs(t, err, os.ErrNotExist)

	abs := filepath.Join(dataDir, "model.msgpack")
	assert.Equal(t, []string{abs}, pr.Candidates(abs))
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "made")
	result := CheckDirStatus(dir)
	assert.True(t, result.Exists)
	assert.True(t, result.Writable)
	assert.NoError(t, result.Error)
	assert.True(t, FileExists(dir))
}
