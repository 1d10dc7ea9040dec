// Package dispatcher decodes transport messages, routes them to the
// Viewport Translator and Slicer, and encodes a response — per
// spec.md §5/§6's metadata_request/slice_request/error message set.
//
// Grounded on the teacher's internal/read.Handler (a thin interface
// that fans a single entry point out to the memtable then the
// on-disk reader chain) for the "thin orchestration object wired from
// injected dependencies" shape; the message envelope itself follows
// dd0wney-graphdb's pkg/api handlers, which decode a JSON body into a
// typed request before dispatching.
package dispatcher

// Kind identifies a message's shape.
type Kind string

const (
	KindMetadataRequest  Kind = "metadata_request"
	KindMetadataResponse Kind = "metadata_response"
	KindSliceRequest     Kind = "slice_request"
	KindSliceResponse    Kind = "slice_response"
	KindError            Kind = "error"
)

// Envelope is the minimal shape every inbound message must have: just
// enough to route it before fully decoding.
type Envelope struct {
	Kind Kind `json:"kind"`
}

// MetadataRequest asks for the grid's overall dimensions.
type MetadataRequest struct {
	Kind Kind `json:"kind"`
}

// MetadataResponse reports the grid's overall dimensions.
type MetadataResponse struct {
	Kind    Kind `json:"kind"`
	MaxRows int  `json:"maxRows"`
	MaxCols int  `json:"maxCols"`
}

// SliceRequest is a raw, not-yet-canonicalized viewport description.
type SliceRequest struct {
	Kind               Kind `json:"kind"`
	ScreenWidth        int  `json:"screenWidth"`
	ScreenHeight       int  `json:"screenHeight"`
	HorizontalBuffer   int  `json:"horizontalBuffer"`
	VerticalBuffer     int  `json:"verticalBuffer"`
	DefaultColumnWidth int  `json:"defaultColumnWidth"`
	DefaultRowHeight   int  `json:"defaultRowHeight"`
	ScrollLeft         int64 `json:"scrollLeft"`
	ScrollTop          int64 `json:"scrollTop"`
}

// SliceResponse is a rectangular cell region, canonicalized and ready
// to render.
type SliceResponse struct {
	Kind       Kind       `json:"kind"`
	StartRow   uint64     `json:"startRow"`
	RowCount   int        `json:"rowCount"`
	StartCol   int        `json:"startCol"`
	ColCount   int        `json:"colCount"`
	ColLetters []string   `json:"colLetters"`
	CellsByRow [][]string `json:"cellsByRow"`
}

// ErrorResponse reports a client-facing failure; the connection stays
// open per spec.md §7.
type ErrorResponse struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func newError(message string) *ErrorResponse {
	return &ErrorResponse{Kind: KindError, Message: message}
}
