// Package analytics records what the query service and the indexer do:
// search events are aggregated in process for /api/v1/analytics and,
// when Kafka is enabled, published alongside index-complete events.
package analytics

import "time"

type EventType string

const (
	EventSearch        EventType = "search"
	EventZeroResult    EventType = "zero_result"
	EventIndexComplete EventType = "index_complete"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	Dir        string    `json:"dir"`
	OutputPath string    `json:"output_path,omitempty"`
	Scanned    int       `json:"scanned"`
	Indexed    int       `json:"indexed"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
