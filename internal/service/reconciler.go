package service

import "github.com/wardline/roster-api/internal/models"

// Display types shown when an override removes a shift from the working
// schedule. The original fields stay on the row for audit display.
const (
	DisplayTypeCancelled = "Cancelled"
	DisplayTypeTimeOff   = "Time Off"
)

// EffectiveView merges applied overrides onto base assignments. It is a pure
// function of its inputs: no clock, no store access, no mutation of either
// argument, and recomputing on unchanged inputs yields an identical result.
// It runs on every read; nothing derived is ever cached.
func EffectiveView(shifts []models.ShiftAssignment, overrides []models.ScheduleOverride) []models.EffectiveShift {
	index := indexAppliedOverrides(overrides)

	view := make([]models.EffectiveShift, 0, len(shifts))
	for i := range shifts {
		view = append(view, reconcileShift(&shifts[i], index[models.NewSlotKey(shifts[i].NurseID, shifts[i].ShiftDate)]))
	}
	return view
}

// indexAppliedOverrides keys applied overrides by slot. The store invariant
// allows at most one unresolved override per slot, so a plain map suffices;
// should duplicate applied rows ever appear the first by (date, id) order
// wins, keeping the merge deterministic.
func indexAppliedOverrides(overrides []models.ScheduleOverride) map[models.SlotKey]*models.ScheduleOverride {
	index := make(map[models.SlotKey]*models.ScheduleOverride, len(overrides))
	for i := range overrides {
		o := &overrides[i]
		if o.Status != models.OverrideStatusApplied {
			continue
		}
		key := models.NewSlotKey(o.NurseID, o.ShiftDate)
		if _, exists := index[key]; !exists {
			index[key] = o
		}
	}
	return index
}

func reconcileShift(shift *models.ShiftAssignment, override *models.ScheduleOverride) models.EffectiveShift {
	effective := models.EffectiveShift{
		ShiftID:        shift.ID,
		NurseID:        shift.NurseID,
		ShiftDate:      shift.ShiftDate,
		ShiftType:      shift.ShiftType,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		Status:         shift.Status,
		CanAcknowledge: shift.Status == models.ShiftStatusScheduled,
	}
	if override == nil {
		return effective
	}

	originalType := shift.ShiftType
	originalStart := shift.StartTime
	originalEnd := shift.EndTime

	effective.Status = models.ShiftStatusApprovedChange
	effective.CanAcknowledge = false
	effective.OverrideID = &override.ID
	kind := override.Kind
	effective.OverrideKind = &kind
	effective.OverrideReason = override.Reason
	effective.InterchangeID = override.LinkedInterchangeID
	effective.OriginalShiftType = &originalType
	effective.OriginalStartTime = &originalStart
	effective.OriginalEndTime = &originalEnd

	switch override.Kind {
	case models.OverrideKindCancellation:
		effective.ShiftType = DisplayTypeCancelled
		effective.StartTime = ""
		effective.EndTime = ""
	case models.OverrideKindTimeOff:
		effective.ShiftType = DisplayTypeTimeOff
		effective.StartTime = ""
		effective.EndTime = ""
	case models.OverrideKindShiftChange, models.OverrideKindInterchange:
		if override.NewShiftType != nil {
			effective.ShiftType = *override.NewShiftType
		}
		if override.NewStartTime != nil {
			effective.StartTime = *override.NewStartTime
		}
		if override.NewEndTime != nil {
			effective.EndTime = *override.NewEndTime
		}
	}
	return effective
}
