package source

import "fmt"

// EmptySourceError reports a source that yielded zero bytes.
type EmptySourceError struct {
	Source string
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("empty source: %s yielded no bytes", e.Source)
}

// MalformedURIError reports a data URI whose header or payload cannot be parsed.
type MalformedURIError struct {
	Reason string
	Err    error
}

func (e *MalformedURIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed data URI: %s: %v", e.Reason, e.Err)
	}
	return "malformed data URI: " + e.Reason
}

func (e *MalformedURIError) Unwrap() error { return e.Err }

// TooLargeError reports a payload over the configured upload limit.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("source exceeds the %d byte limit", e.Limit)
}

// FrameSizeError reports a capture resolution over the configured maximum.
type FrameSizeError struct {
	Width, Height       int
	MaxWidth, MaxHeight int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("frame %dx%d exceeds the %dx%d limit", e.Width, e.Height, e.MaxWidth, e.MaxHeight)
}
