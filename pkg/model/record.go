// pkg/model/record.go
package model

import (
	"fmt"
	"strconv"
)

// Source column names of the breakdown table
const (
	ColUniqueIDNo    = "Unique_ID_No"
	ColUniqueID      = "Unique_id"
	ColTypeID        = "Type_id"
	ColPlantName     = "PlantName"
	ColShopName      = "ShopName"
	ColModuleName    = "ModuleName"
	ColLineName      = "LineName"
	ColMachineName   = "MachineName"
	ColSapMachnCode  = "SapMachnCode"
	ColServiceType   = "Servicetype"
	ColProblemType   = "ProblemType"
	ColShiftName     = "ShiftName"
	ColStartDate     = "StartDate"
	ColStartTime     = "StartTime"
	ColEndDate       = "EndDate"
	ColEndTime       = "EndTime"
	ColMinutes       = "Minutes"
	ColHours         = "Hours"
	ColClosureReason = "ClosureReason"
	ColActualReason  = "ActualReason"
	ColReason        = "Reason"
	ColDetails       = "details"
	ColBreakdownType = "Breakdowntype"
	ColSapStatus     = "SapStatus"
	ColSubGroup      = "SubGroup"
	ColPhenomena     = "Phenomena"
	ColLoto          = "Loto"
	ColVendor        = "Vendor"
	ColMaterial      = "Material"
)

// Placeholder values written by the sanitizer when a field carries no information
const (
	Unknown            = "UNKNOWN"
	UnknownMachine     = "UNKNOWN_MACHINE"
	NoSolutionProvided = "NO SOLUTION PROVIDED"
	NoProblemProvided  = "NO PROBLEM PROVIDED"
	NoDetailsProvided  = "NO DETAILS PROVIDED"
)

// SourceRecord is one raw row of the breakdown table keyed by column name.
// It is read once per run and never mutated.
type SourceRecord map[string]interface{}

// Get returns the raw value of a column and whether the column is present
func (r SourceRecord) Get(column string) (interface{}, bool) {
	v, ok := r[column]
	return v, ok
}

// Has reports whether the column exists in the row
func (r SourceRecord) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// NormalizedRecord is a SourceRecord after sanitization. Every field is typed;
// text fields never hold a raw null.
type NormalizedRecord struct {
	RecordID string

	UniqueIDNo string
	UniqueID   string
	TypeID     string

	// PlantName is the cleaned raw label, PlantCode the resolved canonical code
	PlantName string
	PlantCode string

	ShopName      string
	ModuleName    string
	LineName      string
	MachineName   string
	SapMachnCode  string
	ServiceType   string
	ProblemType   string
	ShiftName     string
	ClosureReason string
	ActualReason  string
	Reason        string
	Details       string
	BreakdownType string
	SapStatus     string
	SubGroup      string
	Phenomena     string
	Loto          string
	Vendor        string
	Material      string

	// Date and time columns as text, reconciled later by the document synthesizer
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string

	Minutes int64
	Hours   float64

	// Extra holds columns without a declared role, passed through unchanged
	Extra map[string]interface{}
}

// MachineID returns the composite machine identifier used in metadata
func (r *NormalizedRecord) MachineID() string {
	return fmt.Sprintf("%s_%s", r.MachineName, r.SapMachnCode)
}

// MinutesText renders the downtime minutes the way the narrative shows them
func (r *NormalizedRecord) MinutesText() string {
	return strconv.FormatInt(r.Minutes, 10)
}

// HoursText renders the downtime hours with at least one decimal place ("2.0", "0.75")
func (r *NormalizedRecord) HoursText() string {
	return FormatDecimal(r.Hours)
}

// FormatDecimal formats a float with the shortest exact representation,
// always keeping a fractional part
func FormatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}
