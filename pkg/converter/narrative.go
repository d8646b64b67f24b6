package converter

import (
	"fmt"
	"strings"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// punctuationFixer repairs the spacing left by templated sentences with empty values
var punctuationFixer = strings.NewReplacer(" .", ".", " ,", ",")

func (c *DocumentConverter) buildNarrative(rec *model.NormalizedRecord, t timing) string {
	plant := c.displayName(rec.PlantCode)

	parts := []string{
		fmt.Sprintf("The machine with Unique ID %s has a Type ID of %s.", rec.UniqueIDNo, rec.TypeID),
		fmt.Sprintf("The problem type is '%s', and it was repaired in Plant %s, ", rec.ProblemType, plant),
		fmt.Sprintf("Shop %s, Module %s, on the %s line.", rec.ShopName, rec.ModuleName, rec.LineName),
		fmt.Sprintf("The machine name is %s, and the service type is %s.", rec.MachineName, rec.ServiceType),
		fmt.Sprintf("The SAP machine code is %s.", rec.SapMachnCode),
	}

	switch {
	case t.startOK && t.endOK:
		parts = append(parts, fmt.Sprintf(
			"The repair started on %s and ended on %s, resulting in a downtime of %s minutes (%s hours).",
			t.start.DateTime, t.end.DateTime, rec.MinutesText(), rec.HoursText()))
	case t.startOK:
		parts = append(parts, fmt.Sprintf(
			"The repair started on %s with a downtime of %s minutes.",
			t.start.DateTime, rec.MinutesText()))
	}

	parts = append(parts,
		fmt.Sprintf("The closure reason was %s, and the solution was '%s'.", rec.ClosureReason, rec.ActualReason),
		fmt.Sprintf("The breakdown type is %s, and the SAP status is %s.", rec.BreakdownType, rec.SapStatus),
		fmt.Sprintf("The subgroup is %s, and the phenomena was %s.", rec.SubGroup, rec.Phenomena),
	)

	if rec.Loto != "" {
		parts = append(parts, fmt.Sprintf("The LOTO (Lock Out Tag Out) status was %s.", rec.Loto))
	} else {
		parts = append(parts, "No LOTO status was recorded.")
	}

	parts = append(parts, involvement(rec.Vendor, rec.Material))
	parts = append(parts, fmt.Sprintf("The problem was '%s'.", rec.Reason))

	if rec.Details != "" {
		parts = append(parts, "Additional details: "+rec.Details)
	}

	return punctuationFixer.Replace(strings.Join(parts, " "))
}

func involvement(vendor, material string) string {
	switch {
	case vendor != "" && material != "":
		return fmt.Sprintf("Vendor: %s and Material: %s was involved.", vendor, material)
	case vendor != "":
		return fmt.Sprintf("Vendor: %s was involved.", vendor)
	case material != "":
		return fmt.Sprintf("Material: %s was involved.", material)
	default:
		return "No vendor or material was involved."
	}
}
