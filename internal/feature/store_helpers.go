package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const featureColumns = "id, priority, category, name, description, steps_json, passes, created_at, updated_at"

func scanFeature(scanner interface{ Scan(dest ...any) error }) (*Feature, error) {
	var (
		id          int64
		priority    int64
		category    string
		name        string
		description string
		stepsRaw    string
		passes      int64
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&priority,
		&category,
		&name,
		&description,
		&stepsRaw,
		&passes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	steps, err := decodeSteps(stepsRaw)
	if err != nil {
		return nil, fmt.Errorf("feature %d: %w", id, err)
	}

	f := &Feature{
		ID:          id,
		Priority:    priority,
		Category:    category,
		Name:        name,
		Description: description,
		Steps:       steps,
		Passes:      passes != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		f.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		f.UpdatedAt = updated
	}
	return f, nil
}

func encodeSteps(steps []string) (string, error) {
	if steps == nil {
		steps = []string{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("encode steps: %w", err)
	}
	return string(data), nil
}

func decodeSteps(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if steps == nil {
		steps = []string{}
	}
	return steps, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
