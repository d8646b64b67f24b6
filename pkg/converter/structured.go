package converter

import (
	"fmt"
	"strings"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// Section headers of the structured view
const (
	SectionMachine    = "MACHINE DETAILS:"
	SectionBreakdown  = "BREAKDOWN DETAILS:"
	SectionIssue      = "ISSUE DETAILS:"
	SectionStatus     = "STATUS INFORMATION:"
	SectionAdditional = "ADDITIONAL INFO:"
)

// field is one labeled line of the structured view
type field struct {
	label string
	value string
}

// section is a header followed by its fields
type section struct {
	header string
	fields []field
}

func (c *DocumentConverter) structuredSections(rec *model.NormalizedRecord, t timing) []section {
	startTime := model.Unknown
	if t.startOK {
		startTime = t.start.DateTime
	}
	endTime := model.Unknown
	if t.endOK {
		endTime = t.end.DateTime
	}

	return []section{
		{SectionMachine, []field{
			{"Name", rec.MachineName},
			{"SAP Code", rec.SapMachnCode},
			{"Plant", fmt.Sprintf("%s (Code: %s)", c.displayName(rec.PlantCode), rec.PlantCode)},
			{"Original Plant Input", rec.PlantName},
			{"Shop", rec.ShopName},
			{"Module", rec.ModuleName},
			{"Line", rec.LineName},
			{"Sub Group", rec.SubGroup},
		}},
		{SectionBreakdown, []field{
			{"Problem Type", rec.ProblemType},
			{"Service Type", rec.ServiceType},
			{"Start Time", startTime},
			{"End Time", endTime},
			{"Duration", fmt.Sprintf("%s minutes (%s hours)", rec.MinutesText(), rec.HoursText())},
		}},
		{SectionIssue, []field{
			{"Problem", rec.Reason},
			{"Solution", rec.ActualReason},
			{"Phenomena", rec.Phenomena},
			{"Details", rec.Details},
		}},
		{SectionStatus, []field{
			{"Closure Reason", rec.ClosureReason},
			{"Breakdown Type", rec.BreakdownType},
			{"SAP Status", rec.SapStatus},
			{"LOTO", rec.Loto},
		}},
		{SectionAdditional, []field{
			{"Vendor", rec.Vendor},
			{"Material", rec.Material},
		}},
	}
}

// buildStructuredText drops every line whose value is a structured-view
// placeholder. Section headers always stay, so a section whose fields were all
// dropped still appears as a bare header.
func (c *DocumentConverter) buildStructuredText(rec *model.NormalizedRecord, t timing) string {
	var lines []string
	for i, s := range c.structuredSections(rec, t) {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, s.header)
		for _, f := range s.fields {
			if c.config.StructuredPlaceholders.Contains(strings.TrimSpace(f.value)) {
				continue
			}
			lines = append(lines, f.label+": "+f.value)
		}
	}
	return strings.Join(lines, "\n")
}
