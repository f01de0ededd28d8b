package imaging

import "fmt"

// UnsupportedFormatError reports a payload the decoder cannot interpret.
type UnsupportedFormatError struct {
	MIME string
	Err  error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported image format %q: %v", e.MIME, e.Err)
	}
	return fmt.Sprintf("unsupported image format %q", e.MIME)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// TooManyPixelsError reports a header whose declared dimensions exceed the decode limit.
type TooManyPixelsError struct {
	Width, Height int
	Limit         int64
}

func (e *TooManyPixelsError) Error() string {
	return fmt.Sprintf("image %dx%d exceeds the %d pixel limit", e.Width, e.Height, e.Limit)
}

// EncodeError reports a grid that could not be serialized.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
