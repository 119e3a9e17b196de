package feedstock

import "fmt"

// DataSource tells where a recommendation came from.
type DataSource string

const (
	SourceExperimental     DataSource = "experimental_data"
	SourceSimilarFeedstock DataSource = "similar_feedstock"
	SourceProvidedDefault  DataSource = "provided_default"
	SourceGeneralDefault   DataSource = "general_default"
)

// DataQuality grades the evidence behind a recommendation.
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// NoRecommendation is the feedstock value when nothing can be recommended.
const NoRecommendation = "No recommendation"

// Result is the recommendation for one soil sample.
type Result struct {
	Feedstock string      `json:"feedstock"`
	Reason    string      `json:"reason"`
	Source    DataSource  `json:"data_source"`
	Quality   DataQuality `json:"data_quality"`
}

// DefaultMainCrops lists the feedstocks of the four priority crops.
var DefaultMainCrops = map[string][]string{
	"Coffee":  {"Coffee Silverskin", "Spent Coffee Ground"},
	"Corn":    {"Corn Straw", "Corn cob"},
	"Rice":    {"Rice Husk"},
	"Soybean": {"Soybean Straw"},
}

// Allowlist is a set of preferred feedstock names compared by NameKey.
type Allowlist map[string]struct{}

// NewAllowlist builds an allowlist from feedstock names.
func NewAllowlist(names ...string) Allowlist {
	a := make(Allowlist, len(names))
	for _, n := range names {
		if key := NameKey(n); key != "" {
			a[key] = struct{}{}
		}
	}
	return a
}

// MainCropAllowlist returns the allowlist of DefaultMainCrops.
func MainCropAllowlist() Allowlist {
	var names []string
	for _, feedstocks := range DefaultMainCrops {
		names = append(names, feedstocks...)
	}
	return NewAllowlist(names...)
}

// Contains reports whether the feedstock is allowlisted.
func (a Allowlist) Contains(name string) bool {
	_, ok := a[NameKey(name)]
	return ok
}

// matchInput is what every strategy in the chain sees.
type matchInput struct {
	challenges ChallengeSet
	primary    *Dataset
	fallback   *Dataset
	allow      Allowlist
}

// strategy returns a result, or false to hand over to the next one.
type strategy func(in matchInput) (Result, bool)

// matchChain is tried in order; the first strategy to produce a result wins.
var matchChain = []strategy{
	noChallenges,
	primaryMainCrop,
	primaryAny,
	fallbackFirst,
	noData,
}

// Match recommends a feedstock for a challenge set. Nil datasets are skipped.
func Match(challenges ChallengeSet, primary, fallback *Dataset, allow Allowlist) Result {
	in := matchInput{challenges: challenges, primary: primary, fallback: fallback, allow: allow}
	for _, try := range matchChain {
		if res, ok := try(in); ok {
			return res
		}
	}
	return noDataResult(challenges)
}

func noChallenges(in matchInput) (Result, bool) {
	if len(in.challenges) > 0 {
		return Result{}, false
	}
	return Result{
		Feedstock: NoRecommendation,
		Reason:    "No soil challenges identified - soil is in good condition",
		Source:    SourceGeneralDefault,
		Quality:   QualityLow,
	}, true
}

func primaryMainCrop(in matchInput) (Result, bool) {
	rec, score, ok := bestScoring(in.primary, in.challenges, in.allow.Contains)
	if !ok {
		return Result{}, false
	}
	return scoredResult(rec, score, in.challenges, ""), true
}

func primaryAny(in matchInput) (Result, bool) {
	rec, score, ok := bestScoring(in.primary, in.challenges, func(string) bool { return true })
	if !ok {
		return Result{}, false
	}
	return scoredResult(rec, score, in.challenges, " (fallback feedstock)"), true
}

func fallbackFirst(in matchInput) (Result, bool) {
	if in.fallback.Len() == 0 {
		return Result{}, false
	}
	var pick *Record
	for i, rec := range in.fallback.records {
		if !rec.HasType() {
			continue
		}
		if in.allow.Contains(rec.Type) {
			pick = &in.fallback.records[i]
			break
		}
		if pick == nil {
			pick = &in.fallback.records[i]
		}
	}
	if pick == nil {
		return Result{}, false
	}
	return Result{
		Feedstock: pick.Type,
		Reason: fmt.Sprintf("Soil challenges identified: %s. Using fallback dataset feedstock (limited challenge matching).",
			in.challenges),
		Source:  SourceExperimental,
		Quality: QualityHigh,
	}, true
}

func noData(in matchInput) (Result, bool) {
	return noDataResult(in.challenges), true
}

func noDataResult(challenges ChallengeSet) Result {
	return Result{
		Feedstock: NoRecommendation,
		Reason:    fmt.Sprintf("Soil challenges identified: %s. Pyrolysis data not available for recommendations.", challenges),
		Source:    SourceGeneralDefault,
		Quality:   QualityLow,
	}
}

// bestScoring returns the first record with the highest positive score among those whose
// Type passes keep. Rows are visited in source order so ties go to the earliest row.
func bestScoring(d *Dataset, challenges ChallengeSet, keep func(string) bool) (Record, int, bool) {
	if d.Len() == 0 {
		return Record{}, 0, false
	}
	best, bestScore := -1, 0
	for i, rec := range d.records {
		if !rec.HasType() || !keep(rec.Type) {
			continue
		}
		if s := d.Score(rec.Type, challenges); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return Record{}, 0, false
	}
	return d.records[best], bestScore, true
}

// Score counts the challenges whose boolean Challenge_* column is set for the feedstock.
func (d *Dataset) Score(feedstock string, challenges ChallengeSet) int {
	score := 0
	for _, c := range challenges {
		if d.Addresses(feedstock, c) {
			score++
		}
	}
	return score
}

func scoredResult(rec Record, score int, challenges ChallengeSet, suffix string) Result {
	return Result{
		Feedstock: rec.Type,
		Reason:    fmt.Sprintf("Addresses %d/%d soil challenges: %s%s", score, len(challenges), challenges, suffix),
		Source:    SourceExperimental,
		Quality:   QualityHigh,
	}
}
