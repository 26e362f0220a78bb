package server

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/bastiangx/wordsep/pkg/model"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// reply decodes any response shape.
type reply struct {
	ID     string   `msgpack:"id"`
	Words  []string `msgpack:"w"`
	Text   string   `msgpack:"s"`
	Steps  int      `msgpack:"n"`
	Error  string   `msgpack:"e"`
	Code   int      `msgpack:"c"`
	Kind   string   `msgpack:"k"`
	Status string   `msgpack:"status"`
	Count  int      `msgpack:"words"`
	Depth  int      `msgpack:"max_depth"`
}

func testSegmenter(t *testing.T) *segment.Segmenter {
	t.Helper()
	m, err := model.Build(map[string]int{
		"hello": 120,
		"hell":  20,
		"there": 300,
		"the":   2000,
		"here":  150,
		"how":   400,
		"are":   600,
		"you":   900,
		"a":     1500,
		"i":     1200,
		"ow":    150,
		"area":  40,
	})
	require.NoError(t, err)
	return segment.New(m, segment.DefaultOptions())
}

func encodeRequests(t *testing.T, reqs ...any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	return &buf
}

func decodeReplies(t *testing.T, out *bytes.Buffer) []reply {
	t.Helper()
	dec := msgpack.NewDecoder(out)
	var replies []reply
	for out.Len() > 0 {
		var r reply
		require.NoError(t, dec.Decode(&r))
		replies = append(replies, r)
	}
	return replies
}

func serve(t *testing.T, seg *segment.Segmenter, cfg *config.Config, reqs ...any) ([]reply, error) {
	t.Helper()
	var out bytes.Buffer
	srv := NewServerWithIO(seg, cfg, encodeRequests(t, reqs...), &out)
	err := srv.Start(context.Background())
	return decodeReplies(t, &out), err
}

func TestServerSegments(t *testing.T) {
	replies, err := serve(t, testSegmenter(t), config.DefaultConfig(),
		SegmentRequest{ID: "r1", Text: "hellotherehowareyou"},
		SegmentRequest{ID: "r2", Text: "howareyou"},
	)
	require.NoError(t, err)
	require.Len(t, replies, 2)

	assert.Equal(t, "r1", replies[0].ID)
	assert.Equal(t, "hellotherehowareyou", strings.Join(replies[0].Words, ""))
	assert.Equal(t, strings.Join(replies[0].Words, " "), replies[0].Text)
	assert.Positive(t, replies[0].Steps)
	assert.Zero(t, replies[0].Code)

	assert.Equal(t, "r2", replies[1].ID)
	assert.Equal(t, []string{"how", "are", "you"}, replies[1].Words)
}

func TestServerErrors(t *testing.T) {
	replies, err := serve(t, testSegmenter(t), config.DefaultConfig(),
		SegmentRequest{ID: "bad-char", Text: "hellox"},
		SegmentRequest{ID: "empty", Text: ""},
		SegmentRequest{ID: "none", Text: "hellohe"},
		SegmentRequest{ID: "action", Action: "explode"},
	)
	require.NoError(t, err)
	require.Len(t, replies, 4)

	assert.Equal(t, 400, replies[0].Code)
	assert.Equal(t, "invalid_input", replies[0].Kind)
	assert.NotEmpty(t, replies[0].Error)

	assert.Equal(t, 400, replies[1].Code)
	assert.Equal(t, "invalid_input", replies[1].Kind)

	assert.Equal(t, 404, replies[2].Code)
	assert.Equal(t, "no_decomposition", replies[2].Kind)
	assert.Empty(t, replies[2].Words)

	assert.Equal(t, 400, replies[3].Code)
	assert.Equal(t, "invalid_request", replies[3].Kind)
}

func TestServerBudgets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.MaxSteps = 1
	cfg.Server.MaxInput = 12

	replies, err := serve(t, testSegmenter(t), cfg,
		SegmentRequest{ID: "steps", Text: "howareyouhow"},
		SegmentRequest{ID: "long", Text: "hellotherehowareyou"},
	)
	require.NoError(t, err)
	require.Len(t, replies, 2)

	assert.Equal(t, 408, replies[0].Code)
	assert.Equal(t, "unbounded", replies[0].Kind)

	assert.Equal(t, 400, replies[1].Code)
	assert.Contains(t, replies[1].Error, "maximum length")
}

func TestServerGeneratesIDs(t *testing.T) {
	replies, err := serve(t, testSegmenter(t), config.DefaultConfig(),
		SegmentRequest{Text: "howareyou"},
		SegmentRequest{Text: "hellox"},
	)
	require.NoError(t, err)
	require.Len(t, replies, 2)

	for _, r := range replies {
		_, parseErr := uuid.Parse(r.ID)
		assert.NoError(t, parseErr, "id %q", r.ID)
	}
	assert.NotEqual(t, replies[0].ID, replies[1].ID)
}

func TestServerStatus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.MaxDepth = 33

	replies, err := serve(t, testSegmenter(t), cfg, SegmentRequest{ID: "st", Action: "status"})
	require.NoError(t, err)
	require.Len(t, replies, 1)

	assert.Equal(t, "ok", replies[0].Status)
	assert.Equal(t, 12, replies[0].Count)
	assert.Equal(t, 33, replies[0].Depth)
}

func TestServerRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	srv := NewServerWithIO(testSegmenter(t), config.DefaultConfig(), bytes.NewReader([]byte{0xc1}), &out)

	err := srv.Start(context.Background())
	require.Error(t, err)

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 1)
	assert.Equal(t, 400, replies[0].Code)
	assert.Equal(t, "invalid_request", replies[0].Kind)
}

func TestServerSkipsMalformedRequests(t *testing.T) {
	replies, err := serve(t, testSegmenter(t), config.DefaultConfig(),
		"just a string",
		[]int{1, 2},
		42,
		SegmentRequest{ID: "r2", Text: "howareyou"},
	)
	require.NoError(t, err)
	require.Len(t, replies, 4)

	for _, r := range replies[:3] {
		assert.Equal(t, 400, r.Code)
		assert.Equal(t, "invalid_request", r.Kind)
	}
	assert.Equal(t, "r2", replies[3].ID)
	assert.Equal(t, []string{"how", "are", "you"}, replies[3].Words)
}

func TestServerCountsErrorsByAction(t *testing.T) {
	nodecomp404 := requestsTotal.WithLabelValues(ActionSegment, "404")
	unknown400 := requestsTotal.WithLabelValues(actionUnknown, "400")
	invalid400 := requestsTotal.WithLabelValues(actionInvalid, "400")
	segment400 := requestsTotal.WithLabelValues(ActionSegment, "400")

	before404 := testutil.ToFloat64(nodecomp404)
	beforeUnknown := testutil.ToFloat64(unknown400)
	beforeInvalid := testutil.ToFloat64(invalid400)
	beforeSegment400 := testutil.ToFloat64(segment400)

	_, err := serve(t, testSegmenter(t), config.DefaultConfig(),
		SegmentRequest{ID: "none", Text: "hellohe"},
		SegmentRequest{ID: "action", Action: "explode"},
		"not a request",
	)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(nodecomp404)-before404)
	assert.Equal(t, 1.0, testutil.ToFloat64(unknown400)-beforeUnknown)
	assert.Equal(t, 1.0, testutil.ToFloat64(invalid400)-beforeInvalid)
	assert.Equal(t, 0.0, testutil.ToFloat64(segment400)-beforeSegment400)
}

func TestServerStopsOnCancel(t *testing.T) {
	var out bytes.Buffer
	in := encodeRequests(t, SegmentRequest{ID: "r1", Text: "howareyou"})
	srv := NewServerWithIO(testSegmenter(t), config.DefaultConfig(), in, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, srv.Start(ctx))
	assert.Zero(t, out.Len())
}

func TestApplyConfig(t *testing.T) {
	seg := testSegmenter(t)
	srv := NewServerWithIO(seg, config.DefaultConfig(), &bytes.Buffer{}, &bytes.Buffer{})

	cfg := config.DefaultConfig()
	cfg.Search.MaxDepth = 5
	cfg.Search.MemoizeDeadEnds = false
	cfg.Server.RateLimit = 3
	cfg.Server.RateBurst = 2
	srv.ApplyConfig(cfg)

	assert.Equal(t, 5, seg.Options().MaxDepth)
	assert.False(t, seg.Options().MemoizeDeadEnds)
	assert.Equal(t, 2, srv.limiter.Burst())
	assert.InDelta(t, 3.0, float64(srv.limiter.Limit()), 1e-9)
}

func TestWatchConfigReloads(t *testing.T) {
	seg := testSegmenter(t)
	srv := NewServerWithIO(seg, config.DefaultConfig(), &bytes.Buffer{}, &bytes.Buffer{})

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nmax_depth = 100\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.WatchConfig(ctx, path) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[search]\nmax_depth = 7\n"), 0o644)
		return seg.Options().MaxDepth == 7
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfigMissingDir(t *testing.T) {
	srv := NewServerWithIO(testSegmenter(t), config.DefaultConfig(), &bytes.Buffer{}, &bytes.Buffer{})
	err := srv.WatchConfig(context.Background(), filepath.Join(t.TempDir(), "nope", "config.toml"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
