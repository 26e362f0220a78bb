package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/wordsep/internal/cli"
	"github.com/bastiangx/wordsep/internal/logger"
	"github.com/bastiangx/wordsep/internal/store"
	"github.com/bastiangx/wordsep/internal/utils"
	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/bastiangx/wordsep/pkg/corpus"
	"github.com/bastiangx/wordsep/pkg/dictionary"
	"github.com/bastiangx/wordsep/pkg/model"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/bastiangx/wordsep/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	defaultModel = "model.msgpack"
	defaultDB    = "counts.db"
)

// app carries what the persistent flags resolved for every subcommand.
type app struct {
	configFlag string
	debug      bool
	cfg        *config.Config
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         "Split concatenated text back into words",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetupGlobal(a.debug)
			if cmd.Name() == "version" {
				return nil
			}
			cfg, path, err := config.LoadConfigWithPriority(a.configFlag)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg, a.configPath = cfg, path
			log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFlag, "config", "", "path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "toggle debug logging")

	rootCmd.AddCommand(
		newIngestCmd(a),
		newBuildCmd(a),
		newSegmentCmd(a),
		newServeCmd(a),
		newCliCmd(a),
		newInspectCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// resolvePath finds name via the path resolver, falling back to name itself.
func resolvePath(name string) string {
	pr, err := utils.NewPathResolver(AppName)
	if err != nil {
		log.Debugf("Path resolver unavailable: %v", err)
		return name
	}
	if path, err := pr.Resolve(name); err == nil {
		return path
	}
	return name
}

// loadSegmenter loads a model file and wraps it with the configured budgets.
func (a *app) loadSegmenter(modelFlag string) (*segment.Segmenter, string, error) {
	path := resolvePath(modelFlag)
	start := time.Now()
	m, err := model.LoadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load model: %w", err)
	}
	log.Debugf("Loaded model %s in %v", path, time.Since(start))
	return segment.New(m, a.cfg.Search.Options()), path, nil
}

func newIngestCmd(a *app) *cobra.Command {
	var dbPath string
	var tables, reset bool
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Count words from text files into the SQLite store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			if reset {
				if err := st.Reset(ctx); err != nil {
					return fmt.Errorf("failed to reset db: %w", err)
				}
			}

			for _, path := range args {
				counts, tokens, err := countPath(path, tables)
				if err != nil {
					return err
				}
				if _, err := st.AddCounts(ctx, path, counts, tokens); err != nil {
					return fmt.Errorf("failed to store counts from %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s words, %s tokens\n",
					path, utils.FormatWithCommas(len(counts)), utils.FormatWithCommas(tokens))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDB, "SQLite count store")
	cmd.Flags().BoolVar(&tables, "tables", false, "treat paths as word-count tables instead of raw text")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the store before ingesting")
	return cmd
}

// countPath counts raw text, or reads a ready count table.
func countPath(path string, table bool) (map[string]int, int, error) {
	if table {
		counts, err := dictionary.LoadCounts(path)
		if err != nil {
			return nil, 0, err
		}
		tokens := 0
		for _, n := range counts {
			tokens += n
		}
		return counts, tokens, nil
	}

	counter := corpus.NewCounter()
	if err := counter.AddPath(path); err != nil {
		return nil, 0, err
	}
	return counter.Counts(), counter.Tokens(), nil
}

func newBuildCmd(a *app) *cobra.Command {
	var dbPath, countsPath, out, export string
	var raw bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Filter counts and build a model snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := loadBuildCounts(cmd.Context(), dbPath, countsPath)
			if err != nil {
				return err
			}

			if !raw {
				counts = a.cfg.Corpus.Policy().Apply(counts)
			}
			if export != "" {
				if err := exportCounts(export, counts, a.cfg.Corpus.ChunkSize); err != nil {
					return err
				}
			}

			m, err := model.Build(counts)
			if err != nil {
				return fmt.Errorf("failed to build model: %w", err)
			}
			if err := m.SaveFile(out); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %s: %s words, longest %d\n",
				out, utils.FormatWithCommas(m.Trie.Len()), m.Trie.Longest())
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "read counts from this SQLite store")
	cmd.Flags().StringVar(&countsPath, "counts", "", "read counts from a table file or chunk dir")
	cmd.Flags().StringVarP(&out, "out", "o", defaultModel, "model snapshot to write")
	cmd.Flags().StringVar(&export, "export", "", "also write the filtered counts (.txt, .bin or a directory)")
	cmd.Flags().BoolVar(&raw, "raw", false, "skip the corpus word filter")
	cmd.MarkFlagsMutuallyExclusive("db", "counts")
	cmd.MarkFlagsOneRequired("db", "counts")
	return cmd
}

func loadBuildCounts(ctx context.Context, dbPath, countsPath string) (map[string]int, error) {
	if countsPath != "" {
		return dictionary.LoadCounts(countsPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer st.Close()
	return st.Counts(ctx)
}

// exportCounts writes counts in the format implied by path.
func exportCounts(path string, counts map[string]int, chunkSize int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return utils.WriteFileAtomic(path, func(f *os.File) error {
			return dictionary.WriteText(f, counts)
		})
	case ".bin":
		return utils.WriteFileAtomic(path, func(f *os.File) error {
			return dictionary.WriteBinary(f, counts)
		})
	}
	chunks, err := dictionary.WriteChunks(path, counts, chunkSize)
	if err != nil {
		return err
	}
	log.Debugf("Exported %d chunks to %s", len(chunks), path)
	return nil
}

func newSegmentCmd(a *app) *cobra.Command {
	var modelPath string
	var workers int
	cmd := &cobra.Command{
		Use:   "segment [text]...",
		Short: "Segment arguments, or stdin lines when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, _, err := a.loadSegmenter(modelPath)
			if err != nil {
				return err
			}

			inputs := args
			if len(inputs) == 0 {
				if inputs, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			for i := range inputs {
				inputs[i] = utils.NormalizeInput(inputs[i])
			}

			if workers <= 0 {
				workers = a.cfg.Server.Workers
			}
			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range seg.SegmentAll(cmd.Context(), inputs, workers) {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "%s\t[%s] %v\n", r.Input, segment.Kind(r.Err), r.Err)
					continue
				}
				fmt.Fprintln(out, r.Segmentation.String())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs could not be segmented", failed, len(inputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", defaultModel, "model snapshot")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent queries (default from config)")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func newServeCmd(a *app) *cobra.Command {
	var modelPath, metricsAddr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve segmentation requests over msgpack IPC on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seg, path, err := a.loadSegmenter(modelPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if metricsAddr != "" {
				metrics := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
				go func() {
					if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Errorf("Metrics endpoint failed: %v", err)
					}
				}()
				defer metrics.Close()
			}

			srv := server.NewServer(seg, a.cfg)
			if watch && a.configPath != "" {
				go func() {
					if err := srv.WatchConfig(ctx, a.configPath); err != nil {
						log.Warnf("Config reload disabled: %v", err)
					}
				}()
			}

			showStartupInfo(path, seg.Model().Trie.Len(), metricsAddr)
			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", defaultModel, "model snapshot")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the config file when it changes")
	return cmd
}

func newCliCmd(a *app) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "cli",
		Short: "Interactive segmentation shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seg, _, err := a.loadSegmenter(modelPath)
			if err != nil {
				return err
			}
			log.Debug("Input info:", "minLen", a.cfg.CLI.MinLen, "maxLen", a.cfg.CLI.MaxLen)
			return cli.NewInputHandler(seg, a.cfg.CLI).Start(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", defaultModel, "model snapshot")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var modelPath string
	var top int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a model's tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seg, path, err := a.loadSegmenter(modelPath)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), path, seg.Model(), top)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", defaultModel, "model snapshot")
	cmd.Flags().IntVar(&top, "top", 5, "entries to list per table")
	return cmd
}

func printSummary(w io.Writer, path string, m *model.Model, top int) {
	fmt.Fprintf(w, "model:    %s\n", path)
	fmt.Fprintf(w, "words:    %s\n", utils.FormatWithCommas(m.Trie.Len()))
	fmt.Fprintf(w, "longest:  %d\n", m.Trie.Longest())
	fmt.Fprintf(w, "alphabet: %s\n", string(m.Trie.Alphabet()))

	fmt.Fprintln(w, "lengths:")
	for _, n := range m.Lengths.Lengths() {
		fmt.Fprintf(w, "  %2d  %8.2f\n", n, m.Lengths.Weight(n))
	}

	letters := m.Letters.Letters()
	printTop(w, "begin", letters, m.Letters.Begin, top)
	printTop(w, "end", letters, m.Letters.End, top)

	words, counts := m.Trie.Words()
	idx := make([]int, len(words))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return counts[idx[i]] > counts[idx[j]] })
	fmt.Fprintln(w, "frequent words:")
	for _, i := range idx[:min(top, len(idx))] {
		fmt.Fprintf(w, "  %-16s %s\n", words[i], utils.FormatWithCommas(counts[i]))
	}
}

func printTop(w io.Writer, name string, letters []byte, weight func(byte) float64, top int) {
	sorted := append([]byte(nil), letters...)
	sort.SliceStable(sorted, func(i, j int) bool { return weight(sorted[i]) > weight(sorted[j]) })
	fmt.Fprintf(w, "%s:\n", name)
	for _, b := range sorted[:min(top, len(sorted))] {
		fmt.Fprintf(w, "  %c  %8.2f\n", b, weight(b))
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active config path, or rewrite it with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if rebuild {
				written, err := config.RebuildConfigFile(a.configFlag)
				if err != nil {
					return fmt.Errorf("failed to rebuild config: %w", err)
				}
				path = written
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "overwrite the config file with defaults")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion()
		},
	}
}
