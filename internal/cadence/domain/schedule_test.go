package domain

import "testing"

func TestSchedulesStartAtDayZero(t *testing.T) {
	for _, ct := range []CadenceType{CadenceHot, CadenceWarm, CadenceCold, CadenceIce, CadenceGentle, CadenceAnnual} {
		steps := ScheduleFor(ct).Steps()
		if len(steps) == 0 {
			t.Fatalf("%s: empty schedule", ct)
		}
		if steps[0].OffsetDays != 0 {
			t.Fatalf("%s: first offset = %d, want 0", ct, steps[0].OffsetDays)
		}
	}
}

func TestScheduleOffsetsStrictlyIncrease(t *testing.T) {
	for _, ct := range []CadenceType{CadenceHot, CadenceWarm, CadenceCold, CadenceIce, CadenceGentle, CadenceAnnual} {
		steps := ScheduleFor(ct).Steps()
		for i := 1; i < len(steps); i++ {
			if steps[i].OffsetDays <= steps[i-1].OffsetDays {
				t.Fatalf("%s: offset %d at step %d not after %d", ct, steps[i].OffsetDays, i, steps[i-1].OffsetDays)
			}
		}
	}
}

func TestScheduleFamilyMatchesType(t *testing.T) {
	for _, ct := range []CadenceType{CadenceHot, CadenceWarm, CadenceCold, CadenceIce, CadenceGentle, CadenceAnnual} {
		if got := ScheduleFor(ct).Family(); got != ct {
			t.Fatalf("family = %s, want %s", got, ct)
		}
	}
}

func TestCadenceTypeForBand(t *testing.T) {
	cases := []struct {
		band       TemperatureBand
		reenrolled bool
		want       CadenceType
	}{
		{BandHot, false, CadenceHot},
		{BandHot, true, CadenceHot},
		{BandWarm, false, CadenceWarm},
		{BandWarm, true, CadenceWarm},
		{BandCold, false, CadenceCold},
		{BandCold, true, CadenceIce},
	}
	for _, tc := range cases {
		if got := CadenceTypeForBand(tc.band, tc.reenrolled); got != tc.want {
			t.Fatalf("CadenceTypeForBand(%s, %v) = %s, want %s", tc.band, tc.reenrolled, got, tc.want)
		}
	}
}

func TestQueueTierFor(t *testing.T) {
	cases := []struct {
		phase CadencePhase
		state CadenceState
		want  int
	}{
		{PhaseBlitz1, StateActive, 3},
		{PhaseBlitz2, StateActive, 3},
		{PhaseNew, StateActive, 2},
		{PhaseTemperature, StateActive, 5},
		{PhaseDeepProspect, StateActive, 7},
		{PhaseNurture, StateActive, 9},
		{PhaseEngaged, StateActive, 9},
		{PhaseBlitz1, StateSnoozed, 9},
		{PhaseBlitz1, StatePaused, 9},
	}
	for _, tc := range cases {
		if got := QueueTierFor(tc.phase, tc.state); got != tc.want {
			t.Fatalf("QueueTierFor(%s, %s) = %d, want %d", tc.phase, tc.state, got, tc.want)
		}
	}
}
