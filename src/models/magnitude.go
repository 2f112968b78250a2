package models

// Magnitude ring buffer row layout
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_MAGNITUDE = 1
	RB_NUM_FEATURES  = 2
)

// MMagnitudePoint is one sample of the recent-magnitude trace.
type MMagnitudePoint struct {
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Magnitude float64 `json:"magnitude"` // g
}
