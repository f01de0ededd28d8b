// Package pipeline runs one capture or upload event through
// acquire, decode, metadata, transform and encode.
package pipeline

import "fmt"

// State is a position in the per-event state machine.
type State int

const (
	Idle State = iota
	SourceAcquired
	Decoded
	MetadataExtracted
	Transformed
	Encoded
	Ready
)

var stateNames = [...]string{
	Idle:              "Idle",
	SourceAcquired:    "SourceAcquired",
	Decoded:           "Decoded",
	MetadataExtracted: "MetadataExtracted",
	Transformed:       "Transformed",
	Encoded:           "Encoded",
	Ready:             "Ready",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// next is the only forward transition allowed from each state.
var next = map[State]State{
	Idle:              SourceAcquired,
	SourceAcquired:    Decoded,
	Decoded:           MetadataExtracted,
	MetadataExtracted: Transformed,
	Transformed:       Encoded,
	Encoded:           Ready,
}

// Stage names the step that failed.
type Stage string

const (
	StageAcquire   Stage = "acquire"
	StageDecode    Stage = "decode"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
	StagePersist   Stage = "persist"
	StageRedisplay Stage = "redisplay"
)

// StageError wraps the typed error of a failed stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
