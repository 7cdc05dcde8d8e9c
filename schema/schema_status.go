package schema

import "time"

// CacheStatus represents the status of the sentiment verdict cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// ReviewStatus represents the status of the comment and feedback store.
type ReviewStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	Comments      int       `json:"comments"`
	RatedComments int       `json:"rated_comments"`
	Feedback      int       `json:"feedback"`
	LastComment   time.Time `json:"last_comment_time"`
}

// ModelStoreStatus represents the status of the model artifact store.
type ModelStoreStatus struct {
	Backend  string         `json:"backend"`
	Location string         `json:"location"`
	Name     string         `json:"name"`
	Versions []ModelVersion `json:"versions"`
}

// Latest returns the newest version, if any.
func (s ModelStoreStatus) Latest() (ModelVersion, bool) {
	if len(s.Versions) == 0 {
		return ModelVersion{}, false
	}
	return s.Versions[len(s.Versions)-1], true
}
