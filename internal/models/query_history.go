package models

import "time"

// QueryRecord is one query/answer pair in a session's history. The body
// fields mirror the sections the GraphRAG API returns alongside an answer;
// empty sections are omitted from the stored JSON.
type QueryRecord struct {
	Query        string    `json:"query"`
	QueryType    string    `json:"query_type"`
	IndexNames   []string  `json:"index_names"`
	Content      string    `json:"content,omitempty"`
	Context      string    `json:"context,omitempty"`
	Reports      string    `json:"reports,omitempty"`
	Entities     string    `json:"entities,omitempty"`
	Relationship string    `json:"relationship,omitempty"`
	AskedAt      time.Time `json:"asked_at"`
}

// Blob user-metadata keys for the searchable history header. Object stores
// surface these as x-amz-meta-* headers, so keys stay lowercase-hyphenated.
const (
	MetaLastQueryTime = "last-query-time"
	MetaLastQuery     = "last-query"
	MetaLastIndexes   = "last-indexes"
	MetaLastQueryType = "last-query-type"
	MetaLastAnswer    = "last-answer"
)

// HistoryMetadata is the small header attached to a history blob, derived
// from the most recent record. It lets the UI list past sessions without
// downloading blob bodies.
type HistoryMetadata struct {
	Name          string `json:"name"` // blob name: {username}__{sessionID}
	LastQueryTime string `json:"last_query_time"`
	LastQuery     string `json:"last_query"`
	LastIndexes   string `json:"last_indexes"`
	LastQueryType string `json:"last_query_type"`
	LastAnswer    string `json:"last_answer"`
}
