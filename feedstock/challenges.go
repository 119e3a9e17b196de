package feedstock

import "strings"

// Challenge names a soil deficiency or excess derived from threshold rules.
type Challenge string

const (
	LowOC           Challenge = "Low OC"
	HighPH          Challenge = "High pH"
	LowPH           Challenge = "Low pH"
	HighTemperature Challenge = "High Temperature"
	LowMoisture     Challenge = "Low Moisture"
)

// Challenge thresholds. Comparisons are strict.
const (
	LowOCThreshold           = 2.0  // SOC %
	HighPHThreshold          = 8.0  // pH
	LowPHThreshold           = 4.5  // pH
	HighTemperatureThreshold = 30.0 // °C
	LowMoistureThreshold     = 30.0 // %
)

// ChallengeSet is an ordered set of challenges: OC, pH, temperature, moisture.
type ChallengeSet []Challenge

// String joins the labels with ", " as used in recommendation reasons.
func (s ChallengeSet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// Contains reports whether c is in the set.
func (s ChallengeSet) Contains(c Challenge) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

// Measurements holds the soil properties of one sample. Nil fields are absent.
type Measurements struct {
	SOC         *float64 `json:"soc,omitempty"`
	PH          *float64 `json:"ph,omitempty"`
	Moisture    *float64 `json:"moisture,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// IdentifyChallenges applies the fixed thresholds to one sample. Absent measurements never
// trigger a challenge.
func IdentifyChallenges(m Measurements) ChallengeSet {
	set := ChallengeSet{}
	if m.SOC != nil && *m.SOC < LowOCThreshold {
		set = append(set, LowOC)
	}
	if m.PH != nil {
		if *m.PH > HighPHThreshold {
			set = append(set, HighPH)
		} else if *m.PH < LowPHThreshold {
			set = append(set, LowPH)
		}
	}
	if m.Temperature != nil && *m.Temperature > HighTemperatureThreshold {
		set = append(set, HighTemperature)
	}
	if m.Moisture != nil && *m.Moisture < LowMoistureThreshold {
		set = append(set, LowMoisture)
	}
	return set
}

// Float returns a pointer to v, for building Measurements.
func Float(v float64) *float64 { return &v }
