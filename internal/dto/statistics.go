package dto

import (
	"encoding/json"
	"strconv"

	"github.com/tramita/inbox-api/internal/models"
)

// LegacySummary is the loosely shaped statistics payload served by the legacy
// backend. Key names vary across its endpoints ("nao_lidos" vs "naoLidos" vs
// "unread"); all variants are absorbed here, at the boundary, so business
// logic only ever sees models.StatisticsSnapshot. Missing or malformed fields
// default to zero — the summary must never fail to decode.
type LegacySummary struct {
	Total    int
	Unread   int
	Urgent   int
	Overdue  int
	BySector []models.CountBucket
	ByType   []models.CountBucket
}

var (
	legacyTotalKeys   = []string{"total", "total_documentos", "totalDocumentos", "quantidade_total"}
	legacyUnreadKeys  = []string{"nao_lidos", "naoLidos", "unread", "novos"}
	legacyUrgentKeys  = []string{"urgentes", "urgent", "prioridade_urgente"}
	legacyOverdueKeys = []string{"vencidos", "atrasados", "overdue", "em_atraso"}
	legacySectorKeys  = []string{"por_setor", "porSetor", "by_sector", "setores"}
	legacyTypeKeys    = []string{"por_tipo", "porTipo", "by_type", "tipos"}

	legacyBucketKeyKeys   = []string{"setor", "sector", "tipo", "type", "key", "codigo"}
	legacyBucketLabelKeys = []string{"nome", "label", "descricao"}
	legacyBucketCountKeys = []string{"quantidade", "count", "total", "qtd"}
)

// UnmarshalJSON accepts any of the known legacy key spellings.
func (s *LegacySummary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Total = pickInt(raw, legacyTotalKeys)
	s.Unread = pickInt(raw, legacyUnreadKeys)
	s.Urgent = pickInt(raw, legacyUrgentKeys)
	s.Overdue = pickInt(raw, legacyOverdueKeys)
	s.BySector = pickBuckets(raw, legacySectorKeys)
	s.ByType = pickBuckets(raw, legacyTypeKeys)
	return nil
}

// Snapshot normalizes the summary into the canonical shape: sector buckets
// are re-keyed canonically and deduplicated, type buckets deduplicated as-is.
func (s LegacySummary) Snapshot() models.StatisticsSnapshot {
	return models.StatisticsSnapshot{
		Total:    s.Total,
		Unread:   s.Unread,
		Urgent:   s.Urgent,
		Overdue:  s.Overdue,
		BySector: models.MergeBuckets(s.BySector, models.NormalizeSector),
		ByType:   models.MergeBuckets(s.ByType, nil),
	}
}

func pickInt(raw map[string]json.RawMessage, keys []string) int {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(msg, &n); err == nil {
			return n
		}
		// Legacy endpoints occasionally quote their numbers.
		var str string
		if err := json.Unmarshal(msg, &str); err == nil {
			if n, err := strconv.Atoi(str); err == nil {
				return n
			}
		}
	}
	return 0
}

func pickBuckets(raw map[string]json.RawMessage, keys []string) []models.CountBucket {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var entries []map[string]json.RawMessage
		if err := json.Unmarshal(msg, &entries); err != nil {
			continue
		}
		buckets := make([]models.CountBucket, 0, len(entries))
		for _, entry := range entries {
			bucket := models.CountBucket{
				Key:   pickString(entry, legacyBucketKeyKeys),
				Label: pickString(entry, legacyBucketLabelKeys),
				Count: pickInt(entry, legacyBucketCountKeys),
			}
			if bucket.Key == "" {
				continue
			}
			buckets = append(buckets, bucket)
		}
		return buckets
	}
	return nil
}

func pickString(raw map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var str string
		if err := json.Unmarshal(msg, &str); err == nil && str != "" {
			return str
		}
	}
	return ""
}
