package feedstock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	primary := mustDataset(t, "primary", primaryCSV)
	fallback := mustDataset(t, "fallback", fallbackCSV)
	emptyPrimary := mustDataset(t, "primary", "Type,pH,Soil Challenges to amend\n")
	textOnlyPrimary := mustDataset(t, "primary", "Type,Soil Challenges to amend,Challenge_Low_OC\nRice Husk,Low pH,0\n")
	soybeanOnly := mustDataset(t, "fallback", "Type\nSoybean Straw\n")
	mainCrops := MainCropAllowlist()

	tests := []struct {
		name       string
		challenges ChallengeSet
		primary    *Dataset
		fallback   *Dataset
		allow      Allowlist
		want       Result
	}{
		{
			name:       "no challenges",
			challenges: ChallengeSet{},
			primary:    primary,
			fallback:   fallback,
			allow:      mainCrops,
			want: Result{
				Feedstock: NoRecommendation,
				Reason:    "No soil challenges identified - soil is in good condition",
				Source:    SourceGeneralDefault,
				Quality:   QualityLow,
			},
		},
		{
			name:       "highest scoring main crop",
			challenges: ChallengeSet{LowOC, LowPH},
			primary:    primary,
			fallback:   fallback,
			allow:      mainCrops,
			want: Result{
				Feedstock: "Corn Straw",
				Reason:    "Addresses 2/2 soil challenges: Low OC, Low pH",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "main crop preferred over earlier non-main row and first main row wins ties",
			challenges: ChallengeSet{LowOC},
			primary:    primary,
			allow:      mainCrops,
			want: Result{
				Feedstock: "Rice Husk",
				Reason:    "Addresses 1/1 soil challenges: Low OC",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "any primary row when no main crop scores",
			challenges: ChallengeSet{LowPH},
			primary:    primary,
			fallback:   fallback,
			allow:      NewAllowlist("Rice Husk"),
			want: Result{
				Feedstock: "Pine Bark",
				Reason:    "Addresses 1/1 soil challenges: Low pH (fallback feedstock)",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "label only in free text scores zero so fallback main crop is used",
			challenges: ChallengeSet{HighPH},
			primary:    primary,
			fallback:   fallback,
			allow:      mainCrops,
			want: Result{
				Feedstock: "Soybean Straw",
				Reason:    "Soil challenges identified: High pH. Using fallback dataset feedstock (limited challenge matching).",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "label without a boolean column scores zero",
			challenges: ChallengeSet{LowPH},
			primary:    textOnlyPrimary,
			fallback:   soybeanOnly,
			allow:      mainCrops,
			want: Result{
				Feedstock: "Soybean Straw",
				Reason:    "Soil challenges identified: Low pH. Using fallback dataset feedstock (limited challenge matching).",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "fallback first row without allowlisted types",
			challenges: ChallengeSet{HighPH, LowMoisture},
			fallback:   fallback,
			allow:      NewAllowlist(),
			want: Result{
				Feedstock: "Eucalyptus",
				Reason:    "Soil challenges identified: High pH, Low Moisture. Using fallback dataset feedstock (limited challenge matching).",
				Source:    SourceExperimental,
				Quality:   QualityHigh,
			},
		},
		{
			name:       "empty primary and no fallback",
			challenges: ChallengeSet{LowOC},
			primary:    emptyPrimary,
			allow:      mainCrops,
			want: Result{
				Feedstock: NoRecommendation,
				Reason:    "Soil challenges identified: Low OC. Pyrolysis data not available for recommendations.",
				Source:    SourceGeneralDefault,
				Quality:   QualityLow,
			},
		},
		{
			name:       "no data at all",
			challenges: ChallengeSet{HighPH, HighTemperature},
			allow:      mainCrops,
			want: Result{
				Feedstock: NoRecommendation,
				Reason:    "Soil challenges identified: High pH, High Temperature. Pyrolysis data not available for recommendations.",
				Source:    SourceGeneralDefault,
				Quality:   QualityLow,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.challenges, tt.primary, tt.fallback, tt.allow))
		})
	}
}

func TestDatasetScore(t *testing.T) {
	d := mustDataset(t, "primary", primaryCSV)
	all := ChallengeSet{LowOC, HighPH, LowPH, HighTemperature}
	assert.Equal(t, 2, d.Score("Pine Bark", all))
	// High pH is only listed as free text for Rice Husk.
	assert.Equal(t, 2, d.Score("rice husk", all))
	assert.Equal(t, 0, d.Score("Rice Husk", ChallengeSet{HighPH}))
	assert.Equal(t, 2, d.Score("Corn Straw", all))
	assert.Equal(t, 0, d.Score("Eucalyptus", all))
}

func TestMainCropAllowlist(t *testing.T) {
	allow := MainCropAllowlist()
	for _, feedstocks := range DefaultMainCrops {
		for _, name := range feedstocks {
			assert.True(t, allow.Contains(name), name)
		}
	}
	assert.True(t, allow.Contains(" corn COB "))
	assert.False(t, allow.Contains("Pine Bark"))

	var none Allowlist
	assert.False(t, none.Contains("Rice Husk"))
}

func TestReferencesMatchNilSafe(t *testing.T) {
	var refs *References
	assert.False(t, refs.Available())
	res := refs.Match(ChallengeSet{LowOC}, MainCropAllowlist())
	assert.Equal(t, NoRecommendation, res.Feedstock)
	assert.Equal(t, SourceGeneralDefault, res.Source)
}
