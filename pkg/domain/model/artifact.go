package model

// Artifact is a named bundle attached to a run. It only lives for the
// extraction call that consumes it.
type Artifact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	SizeInBytes int64  `json:"size_in_bytes"`
	Expired     bool   `json:"expired"`
}
