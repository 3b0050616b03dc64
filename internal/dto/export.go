package dto

import "time"

// CreateExportRequest asks for an asynchronous rendering of the current
// queue view.
type CreateExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
	Title  string `json:"title,omitempty"`
}

// ExportJobResponse reports the state of an export job.
type ExportJobResponse struct {
	ID            string     `json:"id"`
	Format        string     `json:"format"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	DownloadToken string     `json:"download_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
