// pkg/model/metadata.go
package model

import "strings"

// TableMetadata contains the structure information for the source table
type TableMetadata struct {
	Table   string   // Table name
	Columns []Column // Column definitions in result-set order
}

// Column represents metadata about a source column
type Column struct {
	Name     string // Column name
	DataType string // Driver-reported database type name
	Nullable bool   // Whether column allows NULL values (false when unknown)
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// MissingColumns returns the expected columns that the table does not expose
func (tm *TableMetadata) MissingColumns(expected []string) []string {
	var missing []string
	for _, name := range expected {
		if tm.GetColumnByName(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// ExpectedColumns lists every column the pipeline reads. All of them are
// optional except the record identifier; missing ones fall back to defaults.
var ExpectedColumns = []string{
	ColUniqueIDNo, ColUniqueID, ColTypeID, ColPlantName, ColShopName,
	ColModuleName, ColLineName, ColMachineName, ColSapMachnCode, ColServiceType,
	ColProblemType, ColShiftName, ColStartDate, ColStartTime, ColEndDate,
	ColEndTime, ColMinutes, ColHours, ColClosureReason, ColActualReason,
	ColReason, ColDetails, ColBreakdownType, ColSapStatus, ColSubGroup,
	ColPhenomena, ColLoto, ColVendor, ColMaterial,
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
