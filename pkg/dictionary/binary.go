package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	WordCount int
}

// ChunkName returns the file name of chunk id, e.g. dict_0001.bin.
func ChunkName(id int) string {
	return fmt.Sprintf("dict_%04d.bin", id)
}

// sortedEntries orders counts by descending count, then by word.
func sortedEntries(counts map[string]int) []string {
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	return words
}

// WriteBinary writes counts as one binary table: an int32 entry count, then
// per entry a uint16 word length, the word bytes and a uint32 count.
func WriteBinary(w io.Writer, counts map[string]int) error {
	return writeEntries(w, sortedEntries(counts), counts)
}

func writeEntries(w io.Writer, words []string, counts map[string]int) error {
	if len(words) > maxEntries {
		return fmt.Errorf("too many entries: %d", len(words))
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(words))); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, word := range words {
		count := counts[word]
		if len(word) == 0 || len(word) > math.MaxUint16 {
			return fmt.Errorf("invalid word length %d", len(word))
		}
		if count < 0 || int64(count) > math.MaxUint32 {
			return fmt.Errorf("count for %q out of range: %d", word, count)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(word))); err != nil {
			return fmt.Errorf("failed to write word length: %w", err)
		}
		if _, err := bw.WriteString(word); err != nil {
			return fmt.Errorf("failed to write word: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(count)); err != nil {
			return fmt.Errorf("failed to write count: %w", err)
		}
	}

	return bw.Flush()
}

// ReadBinary reads one binary table. Repeated words are summed.
func ReadBinary(r io.Reader) (map[string]int, error) {
	reader := bufio.NewReader(r)

	var totalEntries int32
	if err := binary.Read(reader, binary.LittleEndian, &totalEntries); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if totalEntries < 0 || totalEntries > maxEntries {
		return nil, fmt.Errorf("invalid entry count %d", totalEntries)
	}

	// the header is untrusted, so it only hints the map size up to a point.
	counts := make(map[string]int, min(int(totalEntries), maxSizeHint))
	for i := 0; i < int(totalEntries); i++ {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			return nil, fmt.Errorf("failed to read word length of entry %d: %w", i, err)
		}

		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return nil, fmt.Errorf("failed to read word of entry %d: %w", i, err)
		}

		var count uint32
		if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("failed to read count of entry %d: %w", i, err)
		}

		counts[string(wordBytes)] += int(count)
	}

	return counts, nil
}

// WriteChunks splits counts into files of at most chunkSize entries under
// dir, most frequent words first. It returns the written chunks.
func WriteChunks(dir string, counts map[string]int, chunkSize int) ([]ChunkInfo, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dictionary dir %s: %w", dir, err)
	}

	words := sortedEntries(counts)
	var chunks []ChunkInfo
	for start, id := 0, 1; start < len(words); start, id = start+chunkSize, id+1 {
		end := min(start+chunkSize, len(words))
		filename := filepath.Join(dir, ChunkName(id))

		if err := writeChunkFile(filename, words[start:end], counts); err != nil {
			return nil, err
		}
		chunks = append(chunks, ChunkInfo{ChunkID: id, Filename: filename, WordCount: end - start})
		log.Debugf("Wrote chunk %d with %d words", id, end-start)
	}

	return chunks, nil
}

func writeChunkFile(filename string, words []string, counts map[string]int) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create chunk file %s: %w", filename, err)
	}
	if err := writeEntries(file, words, counts); err != nil {
		file.Close()
		return fmt.Errorf("failed to write chunk file %s: %w", filename, err)
	}
	return file.Close()
}

// AvailableChunks scans dir for chunk files, sorted by id
func AvailableChunks(dir string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "dict_*.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		wordCount, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
			wordCount = 0
		}
		chunks = append(chunks, ChunkInfo{
			ChunkID:   chunkID,
			Filename:  file,
			WordCount: wordCount,
		})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

// chunkWordCount reads the entry count from a chunk file's header
func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

// ReadChunks merges every chunk file under dir.
func ReadChunks(dir string) (map[string]int, error) {
	chunks, err := AvailableChunks(dir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunk files found in %s", dir)
	}

	counts := make(map[string]int)
	for _, chunk := range chunks {
		part, err := readBinaryFile(chunk.Filename)
		if err != nil {
			return nil, err
		}
		for w, n := range part {
			counts[w] += n
		}
		log.Debugf("Chunk %d loaded: %d words", chunk.ChunkID, len(part))
	}
	return counts, nil
}

func readBinaryFile(filename string) (map[string]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()

	counts, err := ReadBinary(file)
	if err != nil {
		return nil, fmt.Errorf("chunk file %s: %w", filename, err)
	}
	return counts, nil
}
