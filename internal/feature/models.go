package feature

import "time"

// Feature is a single unit of work in the backlog. Steps hold the manual
// verification instructions for the feature; Passes flips to true once they
// have been carried out successfully.
type Feature struct {
	ID          int64
	Priority    int64
	Category    string
	Name        string
	Description string
	Steps       []string
	Passes      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Draft carries the caller-supplied fields for a new feature. Priority and
// passing state are assigned by the store.
type Draft struct {
	Category    string
	Name        string
	Description string
	Steps       []string
}

// Record is a fully specified feature row used when importing previously
// exported data. Unlike Draft it preserves the priority and passing state the
// source recorded.
type Record struct {
	Priority    int64
	Category    string
	Name        string
	Description string
	Steps       []string
	Passes      bool
}

// ListQuery selects a page of the backlog. A nil Passes matches both passing
// and failing features; an empty Category matches every category.
type ListQuery struct {
	Passes   *bool
	Category string
	Limit    int
	Offset   int
}

// Pagination bounds shared with the API layer.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// Stats summarizes passing progress across the whole backlog.
type Stats struct {
	Passing    int64
	Total      int64
	Percentage float64
}

// DatabaseHealth reports diagnostic information about the backing database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalFeatures    int64
	Error            string
}
