package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/wordsep/internal/utils"
	"github.com/bastiangx/wordsep/pkg/lexicon"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// snapshot is the on-disk form of a Model. The trie is stored as its word
// list and rebuilt on load.
type snapshot struct {
	Version int              `msgpack:"v"`
	BuiltAt int64            `msgpack:"at"`
	Lengths map[int]float64  `msgpack:"len"`
	Letters LetterStatsTable `msgpack:"let"`
	Words   []string         `msgpack:"w"`
	Counts  []int            `msgpack:"c"`
}

// Save writes the model as a msgpack snapshot.
func (m *Model) Save(w io.Writer) error {
	words, counts := m.Trie.Words()
	snap := snapshot{
		Version: SnapshotVersion,
		BuiltAt: time.Now().Unix(),
		Lengths: m.Lengths,
		Letters: *m.Letters,
		Words:   words,
		Counts:  counts,
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode model snapshot: %w", err)
	}
	return nil
}

// Load reads a msgpack snapshot written by Save.
func Load(r io.Reader) (*Model, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode model snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", snap.Version, SnapshotVersion)
	}
	if len(snap.Words) != len(snap.Counts) {
		return nil, fmt.Errorf("corrupt snapshot: %d words but %d counts", len(snap.Words), len(snap.Counts))
	}

	trie := lexicon.NewTrie()
	for i, word := range snap.Words {
		if err := checkWord(word); err != nil {
			return nil, fmt.Errorf("corrupt snapshot: %w", err)
		}
		trie.Insert(word, snap.Counts[i])
	}
	letters := snap.Letters

	log.Debugf("Loaded model snapshot: %d words, built %s", trie.Len(), time.Unix(snap.BuiltAt, 0).Format(time.RFC3339))
	return New(WordLengthTable(snap.Lengths), &letters, trie), nil
}

// SaveFile writes the snapshot to path, replacing any existing file only
// once the new one is complete.
func (m *Model) SaveFile(path string) error {
	return utils.WriteFileAtomic(path, func(f *os.File) error {
		writer := bufio.NewWriter(f)
		if err := m.Save(writer); err != nil {
			return err
		}
		return writer.Flush()
	})
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file %s: %w", path, err)
	}
	defer file.Close()
	return Load(bufio.NewReader(file))
}
