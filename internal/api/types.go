package api

import "tally/internal/feature"

// Feature describes a backlog entry in a transport-friendly format.
type Feature struct {
	ID          int64    `json:"id"`
	Priority    int64    `json:"priority"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Passes      bool     `json:"passes"`
}

// FeatureInput carries the caller-supplied fields for create operations.
type FeatureInput struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// BulkCreateRequest wraps the inputs for a bulk create.
type BulkCreateRequest struct {
	Features []FeatureInput `json:"features"`
}

// BulkCreateResponse reports how many features a bulk create inserted.
type BulkCreateResponse struct {
	Created int64 `json:"created"`
}

// ListRequest selects a page of features. Transports fill Limit explicitly;
// see DefaultListRequest for the standard page.
type ListRequest struct {
	Limit    int
	Offset   int
	Passes   *bool
	Category string
}

// DefaultListRequest returns a ListRequest for the first standard page.
func DefaultListRequest() ListRequest {
	return ListRequest{Limit: feature.DefaultListLimit}
}

// FeatureList is one page of features plus the filtered total.
type FeatureList struct {
	Features []Feature `json:"features"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// UpdatePassesRequest carries the only mutable field of a feature.
type UpdatePassesRequest struct {
	Passes bool `json:"passes"`
}

// Stats summarizes passing progress.
type Stats struct {
	Passing    int64   `json:"passing"`
	Total      int64   `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Health reports service and database availability.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health status values.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// DatabaseHealthPayload mirrors feature.DatabaseHealth on the wire.
type DatabaseHealthPayload struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalFeatures    int64    `json:"total_features"`
	Error            string   `json:"error,omitempty"`
}

// StatusSnapshot aggregates daemon runtime information.
type StatusSnapshot struct {
	Running      bool                  `json:"running"`
	PID          int                   `json:"pid"`
	InstanceID   string                `json:"instance_id"`
	StartedAt    string                `json:"started_at,omitempty"`
	Bind         string                `json:"bind"`
	ProjectDir   string                `json:"project_dir"`
	DatabasePath string                `json:"database_path"`
	LockPath     string                `json:"lock_path"`
	Stats        Stats                 `json:"stats"`
	Database     DatabaseHealthPayload `json:"database"`
}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// FromDatabaseHealth converts store diagnostics into their wire form.
func FromDatabaseHealth(h feature.DatabaseHealth) DatabaseHealthPayload {
	return DatabaseHealthPayload{
		DBPath:           h.DBPath,
		DatabaseExists:   h.DatabaseExists,
		DatabaseReadable: h.DatabaseReadable,
		SchemaVersion:    h.SchemaVersion,
		TableExists:      h.TableExists,
		ColumnsPresent:   h.ColumnsPresent,
		MissingColumns:   h.MissingColumns,
		IntegrityCheck:   h.IntegrityCheck,
		TotalFeatures:    h.TotalFeatures,
		Error:            h.Error,
	}
}

// FromFeature converts a store model into its transport representation.
func FromFeature(f *feature.Feature) Feature {
	if f == nil {
		return Feature{}
	}
	steps := f.Steps
	if steps == nil {
		steps = []string{}
	}
	return Feature{
		ID:          f.ID,
		Priority:    f.Priority,
		Category:    f.Category,
		Name:        f.Name,
		Description: f.Description,
		Steps:       steps,
		Passes:      f.Passes,
	}
}

// FromFeatures converts a slice of store models, preserving order.
func FromFeatures(features []*feature.Feature) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		out = append(out, FromFeature(f))
	}
	return out
}

// FromStats converts store stats into their transport representation.
func FromStats(s feature.Stats) Stats {
	return Stats{Passing: s.Passing, Total: s.Total, Percentage: s.Percentage}
}

func (f FeatureInput) draft() feature.Draft {
	return feature.Draft{
		Category:    f.Category,
		Name:        f.Name,
		Description: f.Description,
		Steps:       f.Steps,
	}
}
