package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the on-disk layouts of a word-count table
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // Little-endian binary table
	FormatText               // "word count" lines
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

// maxEntries bounds the header of a binary table.
const maxEntries = 10_000_000

// maxSizeHint caps the map preallocation taken from a header.
const maxSizeHint = 1 << 16

var supportedFormats = map[FileFormat]FormatInfo{
	FormatChunk: {
		Format:      FormatChunk,
		Description: "Binary Count Table",
		Extensions:  []string{".bin"},
		MinSize:     4, // At least the entry count header
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Count Table",
		Extensions:  []string{".txt"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatChunk:
		return validateBinaryFormat(filename)
	case FormatText:
		return validateTextFormat(filename)
	}

	return nil
}

// validateBinaryFormat checks the entry count header
func validateBinaryFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var entries int32
	if err := binary.Read(file, binary.LittleEndian, &entries); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}

	if entries < 0 {
		return fmt.Errorf("invalid entry count in %s: %d (negative)", filename, entries)
	}
	if entries > maxEntries {
		return fmt.Errorf("suspicious entry count in %s: %d (too large)", filename, entries)
	}

	log.Debugf("Binary file %s validated: %d entries", filename, entries)
	return nil
}

// validateTextFormat checks that the first non-blank line parses
func validateTextFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, _, err := parseLine(line); err != nil {
			return fmt.Errorf("text file %s: %w", filename, err)
		}
		break
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read from text file %s: %w", filename, err)
	}

	log.Debugf("Text file %s validated", filename)
	return nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".bin":
		if err := ValidateFileFormat(filename, FormatChunk); err != nil {
			return FormatUnknown, err
		}
		return FormatChunk, nil
	case ".txt":
		if err := ValidateFileFormat(filename, FormatText); err != nil {
			return FormatUnknown, err
		}
		return FormatText, nil
	}

	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
