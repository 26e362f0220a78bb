package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Counter accumulates word counts from training text.
type Counter struct {
	counts map[string]int
	tokens int
	files  int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[string]int),
	}
}

// AddText counts the cleaned words of text.
func (c *Counter) AddText(text string) {
	for _, w := range Clean(text) {
		c.counts[w]++
		c.tokens++
	}
}

// AddReader counts r line by line.
func (c *Counter) AddReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		c.AddText(scanner.Text())
	}
	return scanner.Err()
}

// AddFile counts one text file.
func (c *Counter) AddFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open corpus file %s: %w", path, err)
	}
	defer file.Close()

	if err := c.AddReader(file); err != nil {
		return fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}
	c.files++
	log.Debugf("Counted corpus file %s", path)
	return nil
}

// AddPath counts a file, or every *.txt file below a directory.
func (c *Counter) AddPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat corpus path %s: %w", path, err)
	}
	if !info.IsDir() {
		return c.AddFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".txt") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan corpus dir %s: %w", path, err)
	}
	sort.Strings(files)

	for _, f := range files {
		if err := c.AddFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns a copy of the raw counts.
func (c *Counter) Counts() map[string]int {
	out := make(map[string]int, len(c.counts))
	for w, n := range c.counts {
		out[w] = n
	}
	return out
}

// Tokens returns the number of words counted, repeats included.
func (c *Counter) Tokens() int {
	return c.tokens
}

// Files returns the number of files read.
func (c *Counter) Files() int {
	return c.files
}
