package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteText writes counts as "word count" lines, most frequent first.
func WriteText(w io.Writer, counts map[string]int) error {
	bw := bufio.NewWriter(w)
	for _, word := range sortedEntries(counts) {
		if _, err := fmt.Fprintf(bw, "%s %d\n", word, counts[word]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText reads "word count" lines. Blank lines and lines starting with '#'
// are skipped; repeated words are summed.
func ReadText(r io.Reader) (map[string]int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, count, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		counts[word] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func parseLine(line string) (string, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("expected \"word count\", got %q", line)
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 0 {
		return "", 0, fmt.Errorf("invalid count %q for word %q", fields[1], fields[0])
	}
	return fields[0], count, nil
}

// LoadCounts reads a word-count table from a chunk directory, a binary file
// or a text file.
func LoadCounts(path string) (map[string]int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ReadChunks(path)
	}

	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatChunk:
		return readBinaryFile(path)
	case FormatText:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()
		counts, err := ReadText(file)
		if err != nil {
			return nil, fmt.Errorf("text file %s: %w", path, err)
		}
		return counts, nil
	}
	return nil, fmt.Errorf("unsupported format %v for %s", format, path)
}
