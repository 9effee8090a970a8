package domain

// Step is one planned touch in a cadence schedule: an action and its offset
// in days from the cadence start date.
type Step struct {
	OffsetDays int
	Action     ActionType
}

// Schedule is a fixed step schedule for one cadence family. Each family is
// its own type so a switch over CadenceType stays exhaustive at compile time
// instead of a loosely-typed step blob.
type Schedule interface {
	Family() CadenceType
	Steps() []Step
}

// HotCadence is the aggressive schedule for hot leads.
type HotCadence struct{}

func (HotCadence) Family() CadenceType { return CadenceHot }
func (HotCadence) Steps() []Step {
	return []Step{
		{0, ActionCall}, {1, ActionCall}, {2, ActionSMS}, {4, ActionCall},
		{7, ActionCall}, {10, ActionSMS}, {14, ActionCall},
	}
}

// WarmCadence spaces touches over a month.
type WarmCadence struct{}

func (WarmCadence) Family() CadenceType { return CadenceWarm }
func (WarmCadence) Steps() []Step {
	return []Step{
		{0, ActionCall}, {2, ActionCall}, {5, ActionSMS}, {9, ActionCall},
		{14, ActionEmail}, {21, ActionCall}, {30, ActionCall},
	}
}

// ColdCadence is the slow first-contact schedule for cold leads.
type ColdCadence struct{}

func (ColdCadence) Family() CadenceType { return CadenceCold }
func (ColdCadence) Steps() []Step {
	return []Step{
		{0, ActionCall}, {5, ActionSMS}, {12, ActionCall},
		{21, ActionMail}, {35, ActionCall}, {60, ActionCall},
	}
}

// IceCadence is the long-tail schedule for re-enrolled cold leads.
type IceCadence struct{}

func (IceCadence) Family() CadenceType { return CadenceIce }
func (IceCadence) Steps() []Step {
	return []Step{
		{0, ActionCall}, {14, ActionSMS}, {45, ActionCall},
		{90, ActionMail}, {180, ActionCall},
	}
}

// GentleCadence is the low-frequency nurture schedule.
type GentleCadence struct{}

func (GentleCadence) Family() CadenceType { return CadenceGentle }
func (GentleCadence) Steps() []Step {
	return []Step{
		{0, ActionCall}, {30, ActionSMS}, {90, ActionCall},
		{180, ActionMail}, {365, ActionCall},
	}
}

// AnnualCadence touches a lead once a year.
type AnnualCadence struct{}

func (AnnualCadence) Family() CadenceType { return CadenceAnnual }
func (AnnualCadence) Steps() []Step {
	return []Step{{0, ActionCall}, {365, ActionCall}}
}

// ScheduleFor returns the schedule for a cadence family.
func ScheduleFor(t CadenceType) Schedule {
	switch t {
	case CadenceHot:
		return HotCadence{}
	case CadenceWarm:
		return WarmCadence{}
	case CadenceCold:
		return ColdCadence{}
	case CadenceIce:
		return IceCadence{}
	case CadenceGentle:
		return GentleCadence{}
	case CadenceAnnual:
		return AnnualCadence{}
	}
	return nil
}

// TotalSteps returns the published step count of a cadence family.
// Used only for progress display, never for transition logic.
func TotalSteps(t CadenceType) int {
	s := ScheduleFor(t)
	if s == nil {
		return 0
	}
	return len(s.Steps())
}

// CadenceTypeForBand selects the initial cadence family at enrollment.
// Re-enrollment of a cold lead lands on the slower ICE family.
func CadenceTypeForBand(band TemperatureBand, reenrolled bool) CadenceType {
	switch band {
	case BandHot:
		return CadenceHot
	case BandWarm:
		return CadenceWarm
	default:
		if reenrolled {
			return CadenceIce
		}
		return CadenceCold
	}
}
