/*
Package server implements msgpack IPC for word segmentation.

Clients write msgpack maps to the server's stdin and read one msgpack map per
request from its stdout. Requests are handled in arrival order and every
response carries the request's ID, so a client may pipeline several requests
before reading.

# IPC

A segmentation request carries the concatenated text:

	{"id": "req_001", "t": "hellotherehowareyou"}

The server answers with the words in order, the joined sentence, the number
of search steps and the time taken in microseconds:

	{"id": "req_001", "w": ["hello", "there", "how", "are", "you"], "s": "hello there how are you", "n": 9, "t": 145}

Failures use a separate shape with an HTTP-like code and a stable kind:

	{"id": "req_002", "e": "no decomposition into dictionary words", "c": 404, "k": "no_decomposition"}

	400 invalid_input     empty text, a letter outside a-z or the model alphabet, or text too long
	400 invalid_request   a value that is not a request map, or an unknown action
	404 no_decomposition  the text cannot be rebuilt from dictionary words
	408 unbounded         the search ran out of steps, depth or time
	429 rate_limited      the request could not be admitted before shutdown
	500 error             anything else

A status request reports the loaded model and the active search budgets:

	{"id": "st_001", "a": "status"}

Requests without an ID get a generated UUID, echoed back in the response.
A malformed request is answered with an empty ID and the server keeps
reading; only a broken msgpack stream stops it.

# Config

When started with a config path, the server watches the file and applies
changed search budgets, input limits and rate limits without a restart.
*/
package server

// Action names accepted in SegmentRequest.Action.
const (
	ActionSegment = "segment"
	ActionStatus  = "status"
)

// SegmentRequest - segmentation or status request
type SegmentRequest struct {
	ID     string `msgpack:"id"`
	Text   string `msgpack:"t"`
	Action string `msgpack:"a,omitempty"`
}

// SegmentResponse - successful segmentation
type SegmentResponse struct {
	ID        string   `msgpack:"id"`
	Words     []string `msgpack:"w"`
	Text      string   `msgpack:"s"`
	Steps     int      `msgpack:"n"`
	TimeTaken int64    `msgpack:"t"`
}

// SegmentError holds error information for failed requests
type SegmentError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
	Kind  string `msgpack:"k"`
}

// StatusResponse - model and budget information
type StatusResponse struct {
	ID              string `msgpack:"id"`
	Status          string `msgpack:"status"`
	Words           int    `msgpack:"words"`
	Longest         int    `msgpack:"longest"`
	MaxDepth        int    `msgpack:"max_depth"`
	MaxSteps        int    `msgpack:"max_steps"`
	TimeoutMs       int64  `msgpack:"timeout_ms"`
	MaxInput        int    `msgpack:"max_input"`
	Requests        int64  `msgpack:"requests"`
	MemoizeDeadEnds bool   `msgpack:"memoize"`
}
