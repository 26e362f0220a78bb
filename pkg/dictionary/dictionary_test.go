package dictionary

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = map[string]int{
	"the":   3000,
	"hello": 120,
	"there": 300,
	"area":  40,
}

func TestBinaryLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, map[string]int{"ab": 7}))

	raw := buf.Bytes()
	require.Len(t, raw, 4+2+2+4)
	assert.Equal(t, int32(1), int32(binary.LittleEndian.Uint32(raw[0:4])))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(raw[4:6]))
	assert.Equal(t, "ab", string(raw[6:8]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(raw[8:12]))
}

func TestBinaryReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sample))

	counts, err := ReadBinary(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample, counts)
}

func TestReadBinaryTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sample))
	raw := buf.Bytes()

	_, err := ReadBinary(bytes.NewReader(raw[:len(raw)-3]))
	assert.Error(t, err)

	_, err = ReadBinary(bytes.NewReader(raw[:2]))
	assert.Error(t, err)
}

func TestReadBinaryInflatedHeader(t *testing.T) {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, maxEntries)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := ReadBinary(bytes.NewReader(header))
	runtime.ReadMemStats(&after)

	require.Error(t, err)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(32<<20))
}

func TestWriteBinaryRejectsBadEntries(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteBinary(&buf, map[string]int{"": 3}))
	assert.Error(t, WriteBinary(&buf, map[string]int{"neg": -1}))
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sample))
	assert.True(t, strings.HasPrefix(buf.String(), "the 3000\n"))

	counts, err := ReadText(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample, counts)
}

func TestReadTextSkipsCommentsAndSums(t *testing.T) {
	input := "# counts\n\nhello 3\n  hello 4 \nthere 1\n"
	counts, err := ReadText(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hello": 7, "there": 1}, counts)
}

func TestReadTextErrors(t *testing.T) {
	testCases := []struct {
		input string
		desc  string
	}{
		{"hello\n", "missing count"},
		{"hello x\n", "non-numeric count"},
		{"hello -2\n", "negative count"},
		{"hello 2 3\n", "extra field"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ReadText(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestChunks(t *testing.T) {
	dir := t.TempDir()

	chunks, err := WriteChunks(dir, sample, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 3, chunks[0].WordCount)
	assert.Equal(t, 1, chunks[1].WordCount)
	assert.Equal(t, filepath.Join(dir, "dict_0001.bin"), chunks[0].Filename)

	available, err := AvailableChunks(dir)
	require.NoError(t, err)
	assert.Equal(t, chunks, available)

	counts, err := ReadChunks(dir)
	require.NoError(t, err)
	assert.Equal(t, sample, counts)

	_, err = WriteChunks(dir, sample, 0)
	assert.Error(t, err)

	_, err = ReadChunks(t.TempDir())
	assert.Error(t, err)
}

func TestDetectAndLoad(t *testing.T) {
	dir := t.TempDir()

	binPath := filepath.Join(dir, "counts.bin")
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sample))
	require.NoError(t, os.WriteFile(binPath, buf.Bytes(), 0o644))

	txtPath := filepath.Join(dir, "counts.txt")
	buf.Reset()
	require.NoError(t, WriteText(&buf, sample))
	require.NoError(t, os.WriteFile(txtPath, buf.Bytes(), 0o644))

	format, err := DetectFileFormat(binPath)
	require.NoError(t, err)
	assert.Equal(t, FormatChunk, format)

	format, err = DetectFileFormat(txtPath)
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	for _, p := range []string{binPath, txtPath} {
		counts, err := LoadCounts(p)
		require.NoError(t, err)
		assert.Equal(t, sample, counts)
	}

	chunkDir := filepath.Join(dir, "chunks")
	_, err = WriteChunks(chunkDir, sample, 2)
	require.NoError(t, err)
	counts, err := LoadCounts(chunkDir)
	require.NoError(t, err)
	assert.Equal(t, sample, counts)
}

func TestValidateFileFormat(t *testing.T) {
	dir := t.TempDir()

	tiny := filepath.Join(dir, "tiny.bin")
	require.NoError(t, os.WriteFile(tiny, []byte{1}, 0o644))
	assert.Error(t, ValidateFileFormat(tiny, FormatChunk))

	negative := filepath.Join(dir, "negative.bin")
	require.NoError(t, os.WriteFile(negative, []byte{0xff, 0xff, 0xff, 0xff}, 0o644))
	assert.Error(t, ValidateFileFormat(negative, FormatChunk))

	wrongExt := filepath.Join(dir, "counts.dat")
	require.NoError(t, os.WriteFile(wrongExt, []byte("hello 1\n"), 0o644))
	assert.Error(t, ValidateFileFormat(wrongExt, FormatText))
	_, err := DetectFileFormat(wrongExt)
	assert.Error(t, err)

	badText := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(badText, []byte("just words here\n"), 0o644))
	assert.Error(t, ValidateFileFormat(badText, FormatText))

	assert.Error(t, ValidateFileFormat(filepath.Join(dir, "missing.txt"), FormatText))
	assert.Equal(t, "unknown", FormatUnknown.String())
}
