package alertsearch

import (
	"strings"
	"time"

	"github.com/bdpiprava/alertsearch/search"
)

// indexMetadata is one entry of the index listing
type indexMetadata struct {
	IndexUID        string      `json:"index_uid"`
	IndexID         string      `json:"index_id"`
	IndexConfig     indexConfig `json:"index_config"`
	CreateTimestamp int64       `json:"create_timestamp"`
}

// indexConfig is the part of the index configuration the client reads
type indexConfig struct {
	IndexID  string `json:"index_id"`
	IndexURI string `json:"index_uri"`
}

// toIndexInfo converts the metadata, ok is false when no identifier is present
func (m indexMetadata) toIndexInfo() (search.IndexInfo, bool) {
	id := strings.TrimSpace(m.IndexConfig.IndexID)
	if id == "" {
		id = strings.TrimSpace(m.IndexID)
	}
	if id == "" {
		return search.IndexInfo{}, false
	}

	info := search.IndexInfo{
		IndexID:  id,
		IndexUID: m.IndexUID,
		IndexURI: m.IndexConfig.IndexURI,
	}
	if m.CreateTimestamp > 0 {
		info.CreateTimestamp = time.Unix(m.CreateTimestamp, 0).UTC()
	}
	return info, true
}

// ingestResponse is the body of a successful ingest request
type ingestResponse struct {
	NumDocsForProcessing int64 `json:"num_docs_for_processing"`
	NumIngestedDocs      int64 `json:"num_ingested_docs"`
	NumRejectedDocs      int64 `json:"num_rejected_docs"`
}

// searchRequest is the body of a search request, max_hits is always sent so 0 means count only
type searchRequest struct {
	Query          string `json:"query"`
	MaxHits        int    `json:"max_hits"`
	StartOffset    int    `json:"start_offset,omitempty"`
	StartTimestamp *int64 `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64 `json:"end_timestamp,omitempty"`
	SortBy         string `json:"sort_by,omitempty"`
}

func newSearchRequest(query search.Query, maxHits int) searchRequest {
	req := searchRequest{
		Query:       query.Expression,
		MaxHits:     maxHits,
		StartOffset: query.StartOffset,
		SortBy:      query.SortBy,
	}

	if query.TimeRange != nil {
		start := query.TimeRange.StartTimestamp()
		end := query.TimeRange.EndTimestamp()
		req.StartTimestamp = &start
		req.EndTimestamp = &end
	}
	return req
}

// searchResponse is the body of a successful search request
type searchResponse struct {
	NumHits           int64          `json:"num_hits"`
	Hits              []search.Event `json:"hits"`
	ElapsedTimeMicros int64          `json:"elapsed_time_micros"`
	Errors            []string       `json:"errors"`
}
