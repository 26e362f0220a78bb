// Package cli handles the interactive segmentation shell used for debugging
// and trying out models.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/bastiangx/wordsep/internal/logger"
	"github.com/bastiangx/wordsep/internal/utils"
	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

// InputHandler reads lines, strips whitespace and case, and prints the
// segmentation of each line.
type InputHandler struct {
	segmenter    *segment.Segmenter
	minLen       int
	maxLen       int
	showTiming   bool
	requestCount int
	in           io.Reader
	out          *log.Logger
}

// NewInputHandler creates a shell on stdin and stdout.
func NewInputHandler(seg *segment.Segmenter, cfg config.CliConfig) *InputHandler {
	return NewInputHandlerWithIO(seg, cfg, os.Stdin, logger.Console(""))
}

// NewInputHandlerWithIO creates a shell over any input and logger.
func NewInputHandlerWithIO(seg *segment.Segmenter, cfg config.CliConfig, in io.Reader, out *log.Logger) *InputHandler {
	return &InputHandler{
		segmenter:  seg,
		minLen:     cfg.MinLen,
		maxLen:     cfg.MaxLen,
		showTiming: cfg.ShowTiming,
		in:         in,
		out:        out,
	}
}

// Start runs the loop until the input ends or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("wordsep CLI")
	h.out.Print("type letters without spaces and press Enter (Ctrl+D to exit):")

	reader := bufio.NewReader(h.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			h.handleInput(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput normalizes one line and prints its words or the reason there
// are none.
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++
	text := utils.NormalizeInput(line)

	if len(text) < h.minLen {
		h.out.Errorf("Input too short: %q", text)
		return
	}
	if h.maxLen > 0 && len(text) > h.maxLen {
		h.out.Errorf("Input too long: %d letters (max %d)", len(text), h.maxLen)
		return
	}

	log.Debug("Processing request", "text", text, "n", h.requestCount)
	res, err := h.segmenter.Segment(ctx, text)
	if err != nil {
		var inputErr *segment.InputError
		switch {
		case errors.As(err, &inputErr):
			h.out.Errorf("Invalid letter %q at position %d", inputErr.Char, inputErr.Pos)
		case errors.Is(err, segment.ErrNoDecomposition):
			h.out.Warnf("No decomposition found for '%s'", text)
		case errors.Is(err, segment.ErrUnboundedSearch):
			h.out.Warnf("Search gave up on '%s': %v", text, err)
		default:
			h.out.Errorf("Segmentation failed: %v", err)
		}
		return
	}

	styled := make([]string, len(res.Words))
	for i, w := range res.Words {
		styled[i] = wordStyle.Render(w)
	}
	h.out.Print(strings.Join(styled, " "))
	if h.showTiming {
		h.out.Printf("%d words, %s steps, %s scored, took %v",
			len(res.Words), utils.FormatWithCommas(res.Steps), utils.FormatWithCommas(res.Scored), res.Elapsed)
	}
}
