package partition

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// MoveEvent records one accepted refinement move
type MoveEvent struct {
	Iteration int      `json:"iteration"`
	Kind      string   `json:"kind"`
	Nodes     []string `json:"nodes"`
	FromBus   int      `json:"from_bus"`
	ToBus     int      `json:"to_bus"`
	Score     float64  `json:"score"`
	Best      float64  `json:"best"`
	Escape    bool     `json:"escape"`
	Timestamp int64    `json:"timestamp"`
}

// MoveTracker writes accepted moves as JSON lines. A nil tracker is a no-op.
type MoveTracker struct {
	closer  io.Closer
	encoder *json.Encoder
}

// NewMoveTracker creates a tracker writing to filename, or nil if the file
// cannot be created
func NewMoveTracker(filename string) *MoveTracker {
	file, err := os.Create(filename)
	if err != nil {
		return nil
	}
	return &MoveTracker{closer: file, encoder: json.NewEncoder(file)}
}

// NewMoveTrackerWriter creates a tracker writing to w
func NewMoveTrackerWriter(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

// LogMove records an accepted move
func (mt *MoveTracker) LogMove(event MoveEvent) {
	if mt == nil {
		return
	}
	event.Timestamp = time.Now().Unix()
	mt.encoder.Encode(event)
}

// Close releases the underlying file, if any
func (mt *MoveTracker) Close() {
	if mt != nil && mt.closer != nil {
		mt.closer.Close()
	}
}
