// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordsep command: corpus ingestion, model
building, and word segmentation as a one-shot command, an interactive shell
or a MessagePack IPC server.

wordsep splits text written without spaces back into words, such as
"hellotherehowareyou" into "hello there how are you". A model bundles the
dictionary with letter and word-length statistics learned from a corpus.
Candidate words are scored with those statistics and the search backtracks
until the words rebuild the input exactly.

# Usage

Count words from a directory of .txt files into a SQLite store:

	wordsep ingest ./corpus --db counts.db

Filter the counts and build a model:

	wordsep build --db counts.db --out model.msgpack

Or build straight from a count table (text, binary, or a dict_*.bin dir):

	wordsep build --counts words.txt --out model.msgpack

Segment a few inputs, four at a time:

	wordsep segment --model model.msgpack --workers 4 hellothere howareyou

Run the interactive shell, or serve requests over stdin/stdout:

	wordsep cli --model model.msgpack
	wordsep serve --model model.msgpack --metrics-addr :9090

# Configuration

Search budgets, corpus filters, server and CLI options live in a TOML file,
created with defaults at ~/.config/wordsep/config.toml when missing:

	[search]
	max_depth = 256
	max_steps = 2000000
	timeout_ms = 5000
	memoize_dead_ends = true

	[corpus]
	min_count = 1
	single_letter_words = ["a", "i"]
	two_letter_min_count = 100
	short_word_length = 5
	short_word_min_count = 15

	[server]
	max_input = 256
	rate_limit = 200.0
	rate_burst = 50

The serve command watches the file and applies changes without restart.

# IPC Protocol

See package server for the message shapes:

	{"id": "req1", "t": "hellothere"}
	{"id": "req1", "w": ["hello", "there"], "s": "hello there", "n": 3, "t": 41}
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "wordsep"
	gh      = "https://github.com/bastiangx/wordsep"
)

// main wires signals into the command context and runs the command tree.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// printVersion shows the styled version banner.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordsep ] Puts the spaces back between words")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available commands")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the server process on
// stderr, since stdout carries the protocol.
func showStartupInfo(modelPath string, words int, metricsAddr string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "  wordsep  ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("model: ( %s ), %d words", modelPath, words)
	if metricsAddr != "" {
		log.Infof("metrics: http://%s/metrics", metricsAddr)
	}
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")
}
