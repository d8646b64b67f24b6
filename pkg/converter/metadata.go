package converter

import (
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

func (c *DocumentConverter) buildMetadata(rec *model.NormalizedRecord, t timing, narrative, structured string) model.Metadata {
	var startTime, endTime interface{}
	if t.startOK {
		startTime = t.start.DateTime
	}
	if t.endOK {
		endTime = t.end.DateTime
	}

	m := model.Metadata{
		model.MetaRecordID:          rec.RecordID,
		model.MetaMachineID:         rec.MachineID(),
		model.MetaMachineName:       rec.MachineName,
		model.MetaSapCode:           rec.SapMachnCode,
		model.MetaPlantCode:         rec.PlantCode,
		model.MetaPlantName:         c.displayName(rec.PlantCode),
		model.MetaShop:              rec.ShopName,
		model.MetaModule:            rec.ModuleName,
		model.MetaLine:              rec.LineName,
		model.MetaProblemType:       rec.ProblemType,
		model.MetaServiceType:       rec.ServiceType,
		model.MetaShift:             rec.ShiftName,
		model.MetaDurationMinutes:   rec.Minutes,
		model.MetaDurationHours:     rec.Hours,
		model.MetaStartTime:         startTime,
		model.MetaEndTime:           endTime,
		model.MetaProblem:           rec.Reason,
		model.MetaSolution:          rec.ActualReason,
		model.MetaDetails:           rec.Details,
		model.MetaClosureReason:     rec.ClosureReason,
		model.MetaBreakdownType:     rec.BreakdownType,
		model.MetaSapStatus:         rec.SapStatus,
		model.MetaSubGroup:          rec.SubGroup,
		model.MetaPhenomena:         rec.Phenomena,
		model.MetaLoto:              rec.Loto,
		model.MetaVendor:            rec.Vendor,
		model.MetaMaterial:          rec.Material,
		model.MetaUniqueID:          rec.UniqueID,
		model.MetaTypeID:            rec.TypeID,
		model.MetaHumanReadableText: narrative,
		model.MetaFullText:          structured,
	}

	return model.ElideMetadata(m, c.config.Placeholders)
}
