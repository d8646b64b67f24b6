// pkg/model/document.go
package model

// Metadata keys carried as point payload
const (
	MetaRecordID          = "record_id"
	MetaMachineID         = "machine_id"
	MetaMachineName       = "machine_name"
	MetaSapCode           = "sap_code"
	MetaPlantCode         = "plant_code"
	MetaPlantName         = "plant_name"
	MetaShop              = "shop"
	MetaModule            = "module"
	MetaLine              = "line"
	MetaProblemType       = "problem_type"
	MetaServiceType       = "service_type"
	MetaShift             = "shift"
	MetaDurationMinutes   = "duration_minutes"
	MetaDurationHours     = "duration_hours"
	MetaStartTime         = "start_time"
	MetaEndTime           = "end_time"
	MetaProblem           = "problem"
	MetaSolution          = "solution"
	MetaDetails           = "details"
	MetaClosureReason     = "closure_reason"
	MetaBreakdownType     = "breakdown_type"
	MetaSapStatus         = "sap_status"
	MetaSubGroup          = "sub_group"
	MetaPhenomena         = "phenomena"
	MetaLoto              = "loto"
	MetaVendor            = "vendor"
	MetaMaterial          = "material"
	MetaUniqueID          = "unique_id"
	MetaTypeID            = "type_id"
	MetaHumanReadableText = "human_readable_text"
	MetaFullText          = "full_text"
)

// MetadataKeys is the fixed key set of a document's metadata, in payload order
var MetadataKeys = []string{
	MetaRecordID, MetaMachineID, MetaMachineName, MetaSapCode, MetaPlantCode,
	MetaPlantName, MetaShop, MetaModule, MetaLine, MetaProblemType,
	MetaServiceType, MetaShift, MetaDurationMinutes, MetaDurationHours,
	MetaStartTime, MetaEndTime, MetaProblem, MetaSolution, MetaDetails,
	MetaClosureReason, MetaBreakdownType, MetaSapStatus, MetaSubGroup,
	MetaPhenomena, MetaLoto, MetaVendor, MetaMaterial, MetaUniqueID,
	MetaTypeID, MetaHumanReadableText, MetaFullText,
}

// Metadata maps a metadata key to a scalar value (string, int64 or float64).
// An absent key means "no information".
type Metadata map[string]interface{}

// String returns the string value stored under key, or "" when absent
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// PlaceholderSet is the set of string values that denote "no information"
type PlaceholderSet map[string]struct{}

// NewPlaceholderSet builds a placeholder set from values
func NewPlaceholderSet(values ...string) PlaceholderSet {
	set := make(PlaceholderSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Contains reports whether s is a placeholder
func (p PlaceholderSet) Contains(s string) bool {
	_, ok := p[s]
	return ok
}

// DefaultPlaceholders are stripped from metadata before indexing
var DefaultPlaceholders = NewPlaceholderSet(
	"",
	Unknown,
	NoDetailsProvided,
	NoSolutionProvided,
	NoProblemProvided,
	"NAN",
	"NULL",
	"NONE",
)

// ElideMetadata returns a copy of m without nil values and without string
// values found in placeholders. Numeric values are always kept.
func ElideMetadata(m Metadata, placeholders PlaceholderSet) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if placeholders.Contains(val) {
				continue
			}
		case *string:
			if val == nil || placeholders.Contains(*val) {
				continue
			}
			v = *val
		}
		out[k] = v
	}
	return out
}

// Document is the unit of indexing, derived from exactly one NormalizedRecord
type Document struct {
	RecordID       string
	PlantCode      string
	Content        string // narrative view, never empty
	StructuredText string
	Metadata       Metadata
}
