package retrieval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// Fallbacks shown for absent payload keys
const (
	fallbackUnknown    = "Unknown"
	fallbackSolution   = "No solution provided"
	fallbackDetails    = "No additional details"
	fallbackDurationMn = "0"
)

// recordLine is one labeled line of a record block
type recordLine struct {
	label    string
	key      string
	fallback string
	suffix   string
}

var recordLines = []recordLine{
	{"Machine Name", model.MetaMachineName, fallbackUnknown, ""},
	{"SAP Code", model.MetaSapCode, fallbackUnknown, ""},
	{"Plant Code", model.MetaPlantCode, fallbackUnknown, ""},
	{"Plant", model.MetaPlantName, fallbackUnknown, ""},
	{"Shop", model.MetaShop, fallbackUnknown, ""},
	{"Module", model.MetaModule, fallbackUnknown, ""},
	{"Line", model.MetaLine, fallbackUnknown, ""},
	{"Problem Type", model.MetaProblemType, fallbackUnknown, ""},
	{"Shift", model.MetaShift, fallbackUnknown, ""},
	{"Duration (Minutes)", model.MetaDurationMinutes, fallbackDurationMn, " minutes"},
	{"Start Time", model.MetaStartTime, fallbackUnknown, ""},
	{"End Time", model.MetaEndTime, fallbackUnknown, ""},
	{"Problem", model.MetaProblem, fallbackUnknown, ""},
	{"Solution", model.MetaSolution, fallbackSolution, ""},
	{"Details", model.MetaDetails, fallbackDetails, ""},
}

// FormatRecord renders one payload as a "Machine Breakdown Record" block
func FormatRecord(payload map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("### Machine Breakdown Record\n")
	for _, line := range recordLines {
		value := payloadText(payload, line.key)
		if value == "" {
			value = line.fallback
		}
		fmt.Fprintf(&b, "**%s:** %s%s\n", line.label, value, line.suffix)
	}
	return b.String()
}

// FormatRecords renders search hits in rank order, one block each
func FormatRecords(points []vectorstore.ScoredPoint) string {
	blocks := make([]string, 0, len(points))
	for _, p := range points {
		blocks = append(blocks, FormatRecord(p.Payload))
	}
	return strings.Join(blocks, "\n")
}

// payloadText renders a payload value. JSON numbers arrive as float64, so
// integral values print without a fractional part.
func payloadText(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
