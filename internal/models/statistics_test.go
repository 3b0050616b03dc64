package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReduceDocumentsCounts(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	legal := SectorLegal1
	inspection := "fiscalizacao-denuncias"

	docs := []Document{
		{Status: StatusUnread, Priority: PriorityNormal, DocumentType: DocumentTypeComplaint, DestinationSector: &legal},
		{Status: StatusUnread, Priority: PriorityUrgent, DocumentType: DocumentTypeComplaint, DestinationSector: &inspection},
		{Status: StatusRead, Priority: PriorityHigh, DocumentType: DocumentTypePetition, DestinationSector: &legal},
		{Status: StatusForwarded, Priority: PriorityNormal, DocumentType: DocumentTypeFine, DueAt: &yesterday},
		{Status: StatusArchived, Priority: PriorityNormal, DocumentType: DocumentTypeFine, DueAt: &yesterday},
	}

	snapshot := ReduceDocuments(docs, now)

	assert.Equal(t, len(docs), snapshot.Total)
	assert.Equal(t, 2, snapshot.Unread)
	// Urgent widens to HIGH priority on the local path.
	assert.Equal(t, 2, snapshot.Urgent)
	assert.Equal(t, 1, snapshot.Overdue)

	bySector := bucketCounts(snapshot.BySector)
	assert.Equal(t, 2, bySector[SectorLegal1])
	assert.Equal(t, 1, bySector[SectorInspection])

	byType := bucketCounts(snapshot.ByType)
	assert.Equal(t, 2, byType[string(DocumentTypeComplaint)])
	assert.Equal(t, 2, byType[string(DocumentTypeFine)])
}

func TestReduceDocumentsEmpty(t *testing.T) {
	snapshot := ReduceDocuments(nil, time.Now())
	assert.Equal(t, 0, snapshot.Total)
	assert.NotNil(t, snapshot.BySector)
	assert.NotNil(t, snapshot.ByType)
}

func TestMergeBucketsDeduplicatesByCanonicalKey(t *testing.T) {
	merged := MergeBuckets([]CountBucket{
		{Key: "JURIDICO", Count: 2},
		{Key: "LEGAL-1", Label: "Legal 1", Count: 3},
		{Key: "financeiro", Count: 1},
	}, NormalizeSector)

	assert.Len(t, merged, 2)
	assert.Equal(t, SectorLegal1, merged[0].Key)
	assert.Equal(t, 5, merged[0].Count)
	assert.Equal(t, SectorFinance, merged[1].Key)
}

func bucketCounts(buckets []CountBucket) map[string]int {
	result := make(map[string]int, len(buckets))
	for _, b := range buckets {
		result[b.Key] = b.Count
	}
	return result
}
