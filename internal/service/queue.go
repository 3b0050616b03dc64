package service

import (
	"strings"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
)

// PartitionQueue filters an in-memory document set down to the given queue
// context. It mirrors the SQL predicate used on the primary path and backs
// the degraded path, where listings are served from the last known good
// snapshot. Personal and sector partitions of one set are disjoint: a
// personal match requires a direct recipient, a sector match an explicit
// destination.
func PartitionQueue(docs []models.Document, qctx models.QueueContext) []models.Document {
	result := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if !matchesPartition(doc, qctx) {
			continue
		}
		if !matchesFilters(doc, qctx) {
			continue
		}
		result = append(result, doc)
	}
	return result
}

func matchesPartition(doc models.Document, qctx models.QueueContext) bool {
	switch qctx.Queue {
	case models.QueuePersonal:
		// Externally notified documents live in a separate notified view.
		return doc.DirectRecipientID != nil &&
			*doc.DirectRecipientID == qctx.UserID &&
			!doc.NotifiedExternally
	case models.QueueSector:
		if qctx.Sector == "" {
			if !qctx.EmptySectorMatchesAll {
				return false
			}
			return doc.DestinationSector != nil && *doc.DestinationSector != ""
		}
		return doc.DestinationSector != nil &&
			models.SameSector(*doc.DestinationSector, qctx.Sector)
	default:
		return false
	}
}

func matchesFilters(doc models.Document, qctx models.QueueContext) bool {
	if len(qctx.Status) > 0 && !containsStatus(qctx.Status, doc.Status) {
		return false
	}
	if len(qctx.Priority) > 0 && !containsPriority(qctx.Priority, doc.Priority) {
		return false
	}
	if len(qctx.Type) > 0 && !containsType(qctx.Type, doc.DocumentType) {
		return false
	}
	return matchesSearch(doc, qctx.Search)
}

// matchesSearch is a case-insensitive substring match over subject, protocol
// number, sender and company. Empty search matches everything.
func matchesSearch(doc models.Document, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	fields := []string{doc.Subject, doc.ProtocolNumber}
	if doc.SenderName != nil {
		fields = append(fields, *doc.SenderName)
	}
	if doc.CompanyName != nil {
		fields = append(fields, *doc.CompanyName)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// SectorOptionsFromDocuments derives the selectable sector list from locally
// held documents. Used when the live sector list is unavailable so the filter
// never collapses to zero sectors.
func SectorOptionsFromDocuments(docs []models.Document) []dto.SectorOption {
	seen := make(map[string]struct{})
	options := make([]dto.SectorOption, 0)
	for _, doc := range docs {
		if doc.DestinationSector == nil || *doc.DestinationSector == "" {
			continue
		}
		code := models.NormalizeSector(*doc.DestinationSector)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		options = append(options, dto.SectorOption{Code: code, Label: models.SectorDisplayName(code)})
	}
	return options
}

func containsStatus(list []models.DocumentStatus, v models.DocumentStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []models.DocumentPriority, v models.DocumentPriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsType(list []models.DocumentType, v models.DocumentType) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
