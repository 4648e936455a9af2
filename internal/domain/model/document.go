package model

import "time"

// Document describes the file the backend has indexed for the current session.
// Chunks is whatever the backend reported; the client treats it as opaque.
type Document struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Chunks     int       `json:"chunks"`
}
