package models

import (
	"strconv"
	"time"
)

// DocumentType enumerates the kinds of case documents handled by the inbox.
type DocumentType string

const (
	DocumentTypeComplaint        DocumentType = "COMPLAINT"
	DocumentTypePetition         DocumentType = "PETITION"
	DocumentTypeInfractionNotice DocumentType = "INFRACTION_NOTICE"
	DocumentTypeFine             DocumentType = "FINE"
	DocumentTypeAppeal           DocumentType = "APPEAL"
	DocumentTypeInternal         DocumentType = "INTERNAL_DOCUMENT"
)

// DocumentStatus captures the triage lifecycle of an inbox document.
type DocumentStatus string

const (
	StatusUnread     DocumentStatus = "UNREAD"
	StatusRead       DocumentStatus = "READ"
	StatusInAnalysis DocumentStatus = "IN_ANALYSIS"
	StatusForwarded  DocumentStatus = "FORWARDED"
	StatusArchived   DocumentStatus = "ARCHIVED"
)

// DocumentPriority ranks documents for triage ordering.
type DocumentPriority string

const (
	PriorityUrgent DocumentPriority = "URGENT"
	PriorityHigh   DocumentPriority = "HIGH"
	PriorityNormal DocumentPriority = "NORMAL"
	PriorityLow    DocumentPriority = "LOW"
)

// documentTransitions is the closed set of legal status edges. ARCHIVED has
// no outgoing edges; FORWARDED may be forwarded again to another sector.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	StatusUnread:     {StatusRead, StatusArchived},
	StatusRead:       {StatusInAnalysis, StatusForwarded, StatusArchived},
	StatusInAnalysis: {StatusForwarded, StatusArchived},
	StatusForwarded:  {StatusForwarded, StatusArchived},
	StatusArchived:   {},
}

// CanTransitionTo reports whether the lifecycle defines an edge to next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range documentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transition.
func (s DocumentStatus) Terminal() bool {
	return len(documentTransitions[s]) == 0
}

// Valid reports whether the status belongs to the lifecycle at all.
func (s DocumentStatus) Valid() bool {
	_, ok := documentTransitions[s]
	return ok
}

// Document is the central inbox entity: an incoming case document awaiting
// triage (complaint, petition, infraction notice, ruling, ...).
type Document struct {
	ID                 string           `db:"id" json:"id"`
	ProtocolNumber     string           `db:"protocol_number" json:"protocol_number"`
	DocumentType       DocumentType     `db:"document_type" json:"document_type"`
	Subject            string           `db:"subject" json:"subject"`
	SenderName         *string          `db:"sender_name" json:"sender_name,omitempty"`
	CompanyName        *string          `db:"company_name" json:"company_name,omitempty"`
	EntryAt            time.Time        `db:"entry_at" json:"entry_at"`
	DueAt              *time.Time       `db:"due_at" json:"due_at,omitempty"`
	Status             DocumentStatus   `db:"status" json:"status"`
	Priority           DocumentPriority `db:"priority" json:"priority"`
	DestinationSector  *string          `db:"destination_sector" json:"destination_sector,omitempty"`
	DirectRecipientID  *int64           `db:"direct_recipient_id" json:"direct_recipient_id,omitempty"`
	NotifiedExternally bool             `db:"notified_externally" json:"notified_externally"`
	AttachmentCount    int              `db:"attachment_count" json:"attachment_count"`
	ForwardNote        *string          `db:"forward_note" json:"forward_note,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Overdue reports whether the response deadline has passed. Archived
// documents are never overdue, and a document without a deadline cannot be.
// The reference time is passed in so one clock reading covers a whole
// aggregation pass.
func (d Document) Overdue(now time.Time) bool {
	if d.Status == StatusArchived || d.DueAt == nil {
		return false
	}
	return d.DueAt.Before(now)
}

// Urgent reports whether the document requires priority attention, either by
// explicit priority flag or by being overdue.
func (d Document) Urgent(now time.Time) bool {
	return d.Priority == PriorityUrgent || d.Overdue(now)
}

// QueueKind selects which partition of the inbox a query addresses.
type QueueKind string

const (
	// QueuePersonal holds documents addressed directly to the current user.
	QueuePersonal QueueKind = "personal"
	// QueueSector holds documents routed to an organizational sector.
	QueueSector QueueKind = "sector"
)

// QueueContext describes the active inbox view: which queue, for whom, and
// the secondary filters layered on top. Exactly one context is active per
// request; the current user travels in the context rather than ambient state.
type QueueContext struct {
	Queue  QueueKind
	UserID int64
	// Sector is the selected sector for QueueSector, canonicalized by the
	// caller or not; comparison always happens on the canonical key.
	Sector string
	// EmptySectorMatchesAll makes an unselected sector behave as "no sector
	// filter" instead of "empty result". Call sites must choose explicitly.
	EmptySectorMatchesAll bool

	Search   string
	Status   []DocumentStatus
	Priority []DocumentPriority
	Type     []DocumentType

	Page     int
	PageSize int
}

// ContextKey returns a stable cache/guard key for the queue context,
// ignoring pagination so all pages of one view share a snapshot.
func (q QueueContext) ContextKey() string {
	if q.Queue == QueuePersonal {
		return "personal:" + strconv.FormatInt(q.UserID, 10)
	}
	return "sector:" + NormalizeSector(q.Sector)
}
