package models

import "time"

// CountBucket is one slice of a statistics breakdown.
type CountBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StatisticsSnapshot summarizes a document set at a point in time. It is a
// pure function of that set and the clock; it is never persisted.
type StatisticsSnapshot struct {
	Total    int           `json:"total"`
	Unread   int           `json:"unread"`
	Urgent   int           `json:"urgent"`
	Overdue  int           `json:"overdue"`
	BySector []CountBucket `json:"by_sector"`
	ByType   []CountBucket `json:"by_type"`
}

// ReduceDocuments computes the local fallback snapshot over an in-memory
// document list. Urgent deliberately widens to URGENT or HIGH priority here:
// the legacy client did the same approximation whenever the authoritative
// figure was unavailable, and the behaviour is kept until product says
// otherwise. One `now` is used for the entire pass.
func ReduceDocuments(docs []Document, now time.Time) StatisticsSnapshot {
	snapshot := StatisticsSnapshot{Total: len(docs)}
	sectors := newBucketSet()
	types := newBucketSet()

	for _, doc := range docs {
		if doc.Status == StatusUnread {
			snapshot.Unread++
		}
		if doc.Priority == PriorityUrgent || doc.Priority == PriorityHigh {
			snapshot.Urgent++
		}
		if doc.Overdue(now) {
			snapshot.Overdue++
		}
		if doc.DestinationSector != nil && *doc.DestinationSector != "" {
			key := NormalizeSector(*doc.DestinationSector)
			sectors.add(key, SectorDisplayName(key), 1)
		}
		types.add(string(doc.DocumentType), string(doc.DocumentType), 1)
	}

	snapshot.BySector = sectors.buckets()
	snapshot.ByType = types.buckets()
	return snapshot
}

// bucketSet accumulates CountBuckets deduplicated by key in first-seen order.
type bucketSet struct {
	index map[string]int
	items []CountBucket
}

func newBucketSet() *bucketSet {
	return &bucketSet{index: make(map[string]int)}
}

func (b *bucketSet) add(key, label string, count int) {
	if key == "" {
		return
	}
	if i, ok := b.index[key]; ok {
		b.items[i].Count += count
		return
	}
	b.index[key] = len(b.items)
	b.items = append(b.items, CountBucket{Key: key, Label: label, Count: count})
}

func (b *bucketSet) buckets() []CountBucket {
	if len(b.items) == 0 {
		return []CountBucket{}
	}
	return b.items
}

// MergeBuckets deduplicates a bucket list by canonical key, keeping
// first-seen order. Used when normalizing loosely keyed upstream breakdowns.
func MergeBuckets(raw []CountBucket, normalizeKey func(string) string) []CountBucket {
	set := newBucketSet()
	for _, bucket := range raw {
		key := bucket.Key
		if normalizeKey != nil {
			key = normalizeKey(key)
		}
		label := bucket.Label
		if label == "" {
			label = key
		}
		set.add(key, label, bucket.Count)
	}
	return set.buckets()
}
