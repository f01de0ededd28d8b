// CaptureRequest asks for one live frame; zero fields use the server defaults.
package dto

type CaptureRequest struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Quality float64 `json:"quality"`
}

// DataURIRequest carries a canvas snapshot or pasted image.
type DataURIRequest struct {
	DataURI string `json:"dataUri"`
	// Source is "camera" when the URI came from a live preview.
	Source string `json:"source,omitempty"`
}
