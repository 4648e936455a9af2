package model

// UploadResult is the backend reply to POST /upload.
type UploadResult struct {
	Message     string `json:"message"`
	TotalChunks int    `json:"total_chunks"`
	SessionID   string `json:"session_id"`
}

// AskResult is the backend reply to POST /ask.
type AskResult struct {
	Answer string
}

// HealthStatus is the backend reply to GET /.
type HealthStatus struct {
	Online         bool   `json:"-"`
	Status         string `json:"status"`
	SessionsActive int    `json:"sessions_active"`
}
