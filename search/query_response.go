package search

import "time"

// IndexInfo represents one index known to the backend
type IndexInfo struct {
	IndexID         string    `json:"index_id"`
	IndexUID        string    `json:"index_uid,omitempty"`
	IndexURI        string    `json:"index_uri,omitempty"`
	CreateTimestamp time.Time `json:"create_timestamp,omitempty"`
}

// Indices represents the list of index
type Indices []IndexInfo

// Names returns the index identifiers in listing order
func (i Indices) Names() []string {
	names := make([]string, 0, len(i))
	for _, index := range i {
		names = append(names, index.IndexID)
	}
	return names
}

// Contains reports whether an index with the identifier is listed
func (i Indices) Contains(indexID string) bool {
	for _, index := range i {
		if index.IndexID == indexID {
			return true
		}
	}
	return false
}

// Result represents the outcome of a search request
//
// NumHits is the number of matching documents reported by the backend and is
// usually larger than len(Hits).
type Result struct {
	NumHits     int64         `json:"num_hits"`
	Hits        []Event       `json:"hits"`
	ElapsedTime time.Duration `json:"elapsed_time"`
}

// IngestResult represents the outcome of an ingest request
type IngestResult struct {
	Submitted            int   `json:"submitted"`
	NumDocsForProcessing int64 `json:"num_docs_for_processing"`
	NumIngestedDocs      int64 `json:"num_ingested_docs,omitempty"`
	NumRejectedDocs      int64 `json:"num_rejected_docs,omitempty"`
}
