package dto

import (
	"time"

	"github.com/tramita/inbox-api/internal/models"
)

// ForwardRequest moves a document to a new sector and, optionally, to a
// specific recipient inside it. Recipients travel by numeric id only.
type ForwardRequest struct {
	TargetSector      string `json:"target_sector" validate:"required"`
	TargetRecipientID *int64 `json:"target_recipient_id,omitempty"`
	Note              string `json:"note,omitempty"`
}

// DispatchRequest is the uniform triage action entry point.
type DispatchRequest struct {
	Action            string `json:"action" validate:"required"`
	TargetSector      string `json:"target_sector,omitempty"`
	TargetRecipientID *int64 `json:"target_recipient_id,omitempty"`
	Note              string `json:"note,omitempty"`
}

// DocumentView decorates a document with derived triage annotations.
type DocumentView struct {
	models.Document
	Overdue     bool   `json:"overdue"`
	Urgent      bool   `json:"urgent"`
	SectorLabel string `json:"sector_label,omitempty"`
}

// NewDocumentView annotates a document against the provided clock reading.
func NewDocumentView(doc models.Document, now time.Time) DocumentView {
	view := DocumentView{
		Document: doc,
		Overdue:  doc.Overdue(now),
		Urgent:   doc.Urgent(now),
	}
	if doc.DestinationSector != nil && *doc.DestinationSector != "" {
		view.SectorLabel = models.SectorDisplayName(*doc.DestinationSector)
	}
	return view
}

// ListDocumentsResult is the queue listing payload.
type ListDocumentsResult struct {
	Documents []DocumentView `json:"documents"`
	// Stale marks a response served from the last known good snapshot after
	// a storage failure. The queue stays usable instead of going blank.
	Stale bool `json:"stale"`
}

// SectorOption is one selectable sector filter entry.
type SectorOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}
