package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/wordsep/internal/logger"
	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/bastiangx/wordsep/pkg/model"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newShell(t *testing.T, input string, cfg config.CliConfig) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	m, err := model.Build(map[string]int{
		"how":   400,
		"are":   600,
		"you":   900,
		"hello": 120,
		"there": 300,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	l := logger.NewWithConfig(&out, "", log.DebugLevel, false, false, log.TextFormatter)
	return NewInputHandlerWithIO(segment.New(m, segment.DefaultOptions()), cfg, strings.NewReader(input), l), &out
}

func TestShellSegmentsLines(t *testing.T) {
	cfg := config.DefaultConfig().CLI
	h, out := newShell(t, "How Are You\n\nhellothere", cfg)

	require.NoError(t, h.Start(context.Background()))

	text := out.String()
	assert.Contains(t, text, "how are you")
	assert.Contains(t, text, "hello there")
	assert.Contains(t, text, "3 words")
	assert.Equal(t, 2, h.requestCount)
}

func TestShellReportsFailures(t *testing.T) {
	cfg := config.DefaultConfig().CLI
	cfg.ShowTiming = false
	h, out := newShell(t, "howareyo\nhow1\n", cfg)

	require.NoError(t, h.Start(context.Background()))

	text := out.String()
	assert.Contains(t, text, "No decomposition found for 'howareyo'")
	assert.Contains(t, text, "position 3")
	assert.NotContains(t, text, "steps")
}

func TestShellLengthLimits(t *testing.T) {
	cfg := config.CliConfig{MinLen: 4, MaxLen: 6}
	h, out := newShell(t, "how\nhellothere\n", cfg)

	require.NoError(t, h.Start(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Input too short")
	assert.Contains(t, text, "Input too long: 10 letters (max 6)")
}

func TestShellStopsOnCancel(t *testing.T) {
	h, out := newShell(t, "howareyou\n", config.DefaultConfig().CLI)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.Start(ctx))
	assert.NotContains(t, out.String(), "how are you")
}
