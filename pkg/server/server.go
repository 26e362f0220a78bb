package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/bastiangx/wordsep/pkg/segment"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"
)

// Metric labels for requests that carry no usable action.
const (
	actionInvalid = "invalid"
	actionUnknown = "unknown"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wordsep_server_requests_total",
	Help: "IPC requests by action and response code",
}, []string{"action", "code"})

// Server handles the IPC for word segmentation
type Server struct {
	segmenter *segment.Segmenter
	decoder   *msgpack.Decoder
	writer    *bufio.Writer
	encoder   *msgpack.Encoder
	limiter   *rate.Limiter
	maxInput  atomic.Int64
	requests  atomic.Int64
}

// NewServer creates a segmentation server using stdin/stdout for IPC
func NewServer(seg *segment.Segmenter, cfg *config.Config) *Server {
	return NewServerWithIO(seg, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over any reader and writer pair.
func NewServerWithIO(seg *segment.Segmenter, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	bw := bufio.NewWriter(w)
	s := &Server{
		segmenter: seg,
		decoder:   msgpack.NewDecoder(bufio.NewReader(r)),
		writer:    bw,
		encoder:   msgpack.NewEncoder(bw),
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig updates search budgets, the input limit and the rate limit.
// It is safe to call while Start is running.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.segmenter.SetOptions(cfg.Search.Options())
	s.maxInput.Store(int64(cfg.Server.MaxInput))

	limit := rate.Inf
	if cfg.Server.RateLimit > 0 {
		limit = rate.Limit(cfg.Server.RateLimit)
	}
	s.limiter.SetLimit(limit)
	s.limiter.SetBurst(max(cfg.Server.RateBurst, 1))

	log.Debugf("Server config applied: max_depth=%d max_steps=%d timeout=%dms max_input=%d rate=%v",
		cfg.Search.MaxDepth, cfg.Search.MaxSteps, cfg.Search.TimeoutMs, cfg.Server.MaxInput, limit)
}

// Start serves requests until the input ends, ctx is done or the stream
// framing breaks. A well-formed value that is not a request gets a 400 and
// the loop goes on. A clean end of input returns nil.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting Server.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, stopping server")
				return nil
			}
			s.sendError("", actionInvalid, fmt.Errorf("invalid msgpack stream: %w", err), 400, "invalid_request")
			return fmt.Errorf("decoding request: %w", err)
		}

		var req SegmentRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			log.Debugf("Skipping malformed request: %v", err)
			if err := s.sendError("", actionInvalid, fmt.Errorf("invalid msgpack request: %w", err), 400, "invalid_request"); err != nil {
				return err
			}
			continue
		}

		if err := s.handleRequest(ctx, req); err != nil {
			return err
		}
	}
}

// metricAction bounds the action label to the known actions.
func metricAction(action string) string {
	switch a := strings.ToLower(action); a {
	case "", ActionSegment:
		return ActionSegment
	case ActionStatus:
		return ActionStatus
	}
	return actionUnknown
}

// handleRequest dispatches on the request action.
func (s *Server) handleRequest(ctx context.Context, req SegmentRequest) error {
	s.requests.Add(1)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return s.sendError(req.ID, metricAction(req.Action), fmt.Errorf("rate limited: %w", err), 429, "rate_limited")
	}

	switch strings.ToLower(req.Action) {
	case "", ActionSegment:
		return s.handleSegment(ctx, req)
	case ActionStatus:
		return s.handleStatus(req)
	default:
		return s.sendError(req.ID, actionUnknown, fmt.Errorf("unknown action: %s", req.Action), 400, "invalid_request")
	}
}

// handleSegment validates the text length and runs one query.
func (s *Server) handleSegment(ctx context.Context, req SegmentRequest) error {
	if maxInput := s.maxInput.Load(); maxInput > 0 && int64(len(req.Text)) > maxInput {
		log.Debugf("Text too long in request %s: %d", req.ID, len(req.Text))
		return s.sendError(req.ID, ActionSegment, fmt.Errorf("text exceeds maximum length of %d characters", maxInput), 400, "invalid_input")
	}

	start := time.Now()
	res, err := s.segmenter.Segment(ctx, req.Text)
	elapsed := time.Since(start)
	if err != nil {
		log.Debugf("Request %s failed after %v: %v", req.ID, elapsed, err)
		return s.sendError(req.ID, ActionSegment, err, codeFor(err), segment.Kind(err))
	}

	log.Debugf("Request %s took %v over %d steps", req.ID, elapsed, res.Steps)
	requestsTotal.WithLabelValues(ActionSegment, "200").Inc()
	return s.sendResponse(SegmentResponse{
		ID:        req.ID,
		Words:     res.Words,
		Text:      res.String(),
		Steps:     res.Steps,
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleStatus(req SegmentRequest) error {
	m := s.segmenter.Model()
	opts := s.segmenter.Options()
	requestsTotal.WithLabelValues(ActionStatus, "200").Inc()
	return s.sendResponse(StatusResponse{
		ID:              req.ID,
		Status:          "ok",
		Words:           m.Trie.Len(),
		Longest:         m.Trie.Longest(),
		MaxDepth:        opts.MaxDepth,
		MaxSteps:        opts.MaxSteps,
		TimeoutMs:       opts.Timeout.Milliseconds(),
		MaxInput:        int(s.maxInput.Load()),
		Requests:        s.requests.Load(),
		MemoizeDeadEnds: opts.MemoizeDeadEnds,
	})
}

// codeFor maps a segmentation error onto a response code
func codeFor(err error) int {
	switch segment.Kind(err) {
	case "invalid_input":
		return 400
	case "no_decomposition":
		return 404
	case "unbounded":
		return 408
	}
	return 500
}

// sendResponse encodes one message and flushes it to the client.
func (s *Server) sendResponse(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("encoding response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// sendError sends an error response, counted under action.
func (s *Server) sendError(id, action string, err error, code int, kind string) error {
	requestsTotal.WithLabelValues(action, fmt.Sprint(code)).Inc()
	return s.sendResponse(SegmentError{
		ID:    id,
		Error: err.Error(),
		Code:  code,
		Kind:  kind,
	})
}
