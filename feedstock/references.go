package feedstock

import (
	"math"
	"strings"
)

// References bundles the two reference tiers. Either may be nil when it could not be
// loaded; a nil tier means "no data", not "data without challenges".
type References struct {
	Primary  *Dataset
	Fallback *Dataset
}

// Available reports whether at least one tier is loaded.
func (r *References) Available() bool {
	return r != nil && (r.Primary != nil || r.Fallback != nil)
}

// Match runs the fallback chain against both tiers.
func (r *References) Match(challenges ChallengeSet, allow Allowlist) Result {
	if r == nil {
		return Match(challenges, nil, nil, allow)
	}
	return Match(challenges, r.Primary, r.Fallback, allow)
}

// Profile is the property sheet of one reference row.
type Profile struct {
	Tier           string             `json:"tier"`
	Feedstock      string             `json:"feedstock"`
	Origin         string             `json:"origin"`
	Properties     map[string]float64 `json:"properties"`
	Challenges     []string           `json:"challenges"`
	ChallengeFlags map[string]bool    `json:"challenge_flags"`
	Temperature    *float64           `json:"temperature,omitempty"`
	BiocharYield   *float64           `json:"biochar_yield_pct,omitempty"`
}

// Feedstock looks a feedstock up in primary, then fallback. With a temperature, the row
// pyrolysed closest to it is chosen; otherwise the first row.
func (r *References) Feedstock(name string, temperature *float64) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	for _, d := range []*Dataset{r.Primary, r.Fallback} {
		if rec, ok := findRecord(d, name, temperature); ok {
			return newProfile(d.Name(), rec), true
		}
	}
	return Profile{}, false
}

func findRecord(d *Dataset, name string, temperature *float64) (Record, bool) {
	if d.Len() == 0 {
		return Record{}, false
	}
	key := NameKey(name)
	var matches []Record
	for _, rec := range d.records {
		if rec.HasType() && NameKey(rec.Type) == key {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return Record{}, false
	}
	if temperature == nil {
		return matches[0], true
	}
	best, bestDiff := -1, math.Inf(1)
	for i, rec := range matches {
		t, ok := rec.Number("Final Temperature")
		if !ok {
			continue
		}
		if diff := math.Abs(t - *temperature); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return matches[0], true
	}
	return matches[best], true
}

func newProfile(tier string, rec Record) Profile {
	p := Profile{
		Tier:           tier,
		Feedstock:      rec.Type,
		Origin:         rec.Origin,
		Properties:     make(map[string]float64),
		Challenges:     []string{},
		ChallengeFlags: make(map[string]bool, len(rec.Flags)),
	}
	if p.Origin == "" {
		p.Origin = "Unknown"
	}
	for _, prop := range PropertyColumns {
		if v, ok := rec.Number(prop.Column); ok {
			p.Properties[prop.Key] = v
		}
	}
	for _, token := range strings.Split(rec.ChallengeText, ";") {
		if token = strings.TrimSpace(token); token != "" {
			p.Challenges = append(p.Challenges, token)
		}
	}
	for label, set := range rec.Flags {
		p.ChallengeFlags[label] = set
	}
	if v, ok := rec.Number("Final Temperature"); ok {
		p.Temperature = Float(v)
	}
	if v, ok := rec.Number("Biochar Yield (%)"); ok {
		p.BiocharYield = Float(v)
	}
	return p
}

// MatchType describes how LookupCrop found its feedstock.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchSimilar MatchType = "similar"
	MatchDefault MatchType = "default"
)

// CropMatch is the answer of LookupCrop. Profile is nil when the feedstock has no rows in
// either tier.
type CropMatch struct {
	Feedstock string      `json:"feedstock"`
	Type      MatchType   `json:"match_type"`
	Group     string      `json:"similar_group,omitempty"`
	Source    DataSource  `json:"data_source"`
	Quality   DataQuality `json:"data_quality"`
	Profile   *Profile    `json:"profile,omitempty"`
}

// LookupCrop finds reference data for a crop residue: an exact Type match of
// "<crop> <residue>", then the similar-feedstock group with data behind it, then the group's
// preferred feedstock without data.
func (r *References) LookupCrop(resolver *Resolver, crop, residue string) (CropMatch, bool) {
	exact := strings.TrimSpace(crop)
	if strings.TrimSpace(residue) != "" {
		exact = exact + " " + strings.TrimSpace(residue)
	}
	if exact != "" {
		if p, ok := r.Feedstock(exact, nil); ok {
			return CropMatch{
				Feedstock: p.Feedstock,
				Type:      MatchExact,
				Source:    SourceExperimental,
				Quality:   QualityHigh,
				Profile:   &p,
			}, true
		}
	}
	if resolver == nil {
		resolver = DefaultResolver()
	}
	sim, ok := resolver.Resolve(crop, residue)
	if !ok {
		return CropMatch{}, false
	}
	if p, ok := r.Feedstock(sim.Feedstock, nil); ok {
		return CropMatch{
			Feedstock: p.Feedstock,
			Type:      MatchSimilar,
			Group:     sim.Group,
			Source:    SourceSimilarFeedstock,
			Quality:   QualityMedium,
			Profile:   &p,
		}, true
	}
	return CropMatch{
		Feedstock: sim.Feedstock,
		Type:      MatchDefault,
		Group:     sim.Group,
		Source:    SourceProvidedDefault,
		Quality:   QualityLow,
	}, true
}
