package api

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"tally/internal/feature"
)

// Length bounds for caller-supplied fields, in characters.
const (
	maxCategoryLength = 100
	maxNameLength     = 255
)

func validateInput(input FeatureInput) error {
	if input.Category == "" {
		return NewValidationError("category is required")
	}
	if utf8.RuneCountInString(input.Category) > maxCategoryLength {
		return NewValidationError(fmt.Sprintf("category must be at most %d characters", maxCategoryLength))
	}
	if input.Name == "" {
		return NewValidationError("name is required")
	}
	if utf8.RuneCountInString(input.Name) > maxNameLength {
		return NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if input.Description == "" {
		return NewValidationError("description is required")
	}
	if len(input.Steps) == 0 {
		return NewValidationError("steps must contain at least one entry")
	}
	for i, step := range input.Steps {
		if strings.TrimSpace(step) == "" {
			return NewValidationError(fmt.Sprintf("steps[%d] must not be empty", i))
		}
	}
	return nil
}

func validateInputs(inputs []FeatureInput) error {
	if len(inputs) == 0 {
		return NewValidationError("features must contain at least one entry")
	}
	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			return NewValidationError(fmt.Sprintf("feature %d: %s", i+1, err.Error()))
		}
	}
	return nil
}

func validateListRequest(req ListRequest) error {
	if req.Limit < 1 || req.Limit > feature.MaxListLimit {
		return NewValidationError(fmt.Sprintf("limit must be between 1 and %d", feature.MaxListLimit))
	}
	if req.Offset < 0 {
		return NewValidationError("offset must not be negative")
	}
	return nil
}
