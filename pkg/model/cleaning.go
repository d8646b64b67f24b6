// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single change the sanitizer made to a field
type CleaningOperation struct {
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning
	RowIdentifier     string      // Record ID of the row
	CleaningOperation string      // Type of cleaning performed (e.g., "default_fill")
	CleaningReason    string      // Reason for cleaning (e.g., "missing_value")
	CleanedAt         time.Time
}

// Cleaning operation kinds
const (
	OpDefaultFill    = "default_fill"
	OpNullToken      = "null_token"
	OpNumericCoerce  = "numeric_coercion"
	OpPlantNormalize = "plant_normalization"
)
