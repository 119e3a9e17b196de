package feedstock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SimilarGroup clusters feedstocks that can stand in for crops or residues missing from the
// reference data. The first feedstock is the preferred one.
type SimilarGroup struct {
	Name            string   `yaml:"name"`
	Feedstocks      []string `yaml:"feedstocks"`
	Keywords        []string `yaml:"keywords"`
	ResidueKeywords []string `yaml:"residue_keywords"`
}

// Groups whose residue keywords alone are enough to select them.
var residuePrivilegedGroups = map[string]struct{}{
	"husk_types":     {},
	"coffee_related": {},
}

// DefaultSimilarGroups is evaluated in order; specific groups come before the generic
// grain_straws group because their keywords overlap.
var DefaultSimilarGroups = []SimilarGroup{
	{
		Name:            "husk_types",
		Feedstocks:      []string{"Rice Husk"},
		Keywords:        []string{"rice", "arroz"},
		ResidueKeywords: []string{"husk", "casca"},
	},
	{
		Name:            "coffee_related",
		Feedstocks:      []string{"Coffee Silverskin", "Spent Coffee Ground"},
		Keywords:        []string{"coffee", "café", "cafe"},
		ResidueKeywords: []string{"silverskin", "ground", "pulp"},
	},
	{
		Name:            "corn_related",
		Feedstocks:      []string{"Corn Straw", "Corn cob"},
		Keywords:        []string{"corn", "milho", "maize"},
		ResidueKeywords: []string{"straw", "stover", "cob", "stalk"},
	},
	{
		Name:            "legume_straws",
		Feedstocks:      []string{"Soybean Straw"},
		Keywords:        []string{"soybean", "soja", "bean", "pea", "lentil", "chickpea", "legume"},
		ResidueKeywords: []string{"straw", "residue"},
	},
	{
		Name:            "grain_straws",
		Feedstocks:      []string{"Corn Straw", "Soybean Straw"},
		Keywords:        []string{"wheat", "sorghum", "oats", "barley", "rye", "millet", "grain", "cereal", "trigo"},
		ResidueKeywords: []string{"straw", "stover", "residue"},
	},
}

// SimilarMatch is the resolver's answer for a crop/residue pair.
type SimilarMatch struct {
	Feedstock string
	Group     string
}

type compiledGroup struct {
	name       string
	feedstocks []string
	keywords   []string
	residue    []string
}

// Resolver maps arbitrary crop and residue names onto known feedstocks by keyword.
type Resolver struct {
	groups []compiledGroup
}

// NewResolver compiles the groups, keeping their order.
func NewResolver(groups []SimilarGroup) *Resolver {
	r := &Resolver{groups: make([]compiledGroup, 0, len(groups))}
	for _, g := range groups {
		r.groups = append(r.groups, compiledGroup{
			name:       g.Name,
			feedstocks: cloneStrings(g.Feedstocks),
			keywords:   normalizeKeywords(g.Keywords),
			residue:    normalizeKeywords(g.ResidueKeywords),
		})
	}
	return r
}

// DefaultResolver uses DefaultSimilarGroups.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultSimilarGroups)
}

// Resolve returns the preferred feedstock of the first group matching the crop, or the
// residue for husk and coffee groups. An empty residue disables residue matching.
func (r *Resolver) Resolve(crop, residue string) (SimilarMatch, bool) {
	cropKey := NameKey(crop)
	if cropKey == "" {
		return SimilarMatch{}, false
	}
	residueKey := NameKey(residue)
	tokens := strings.Fields(cropKey)
	for _, g := range r.groups {
		cropMatch := false
		for _, kw := range g.keywords {
			if kw == cropKey || containsString(tokens, kw) {
				cropMatch = true
				break
			}
		}
		residueMatch := false
		if residueKey != "" {
			for _, kw := range g.residue {
				if strings.Contains(residueKey, kw) {
					residueMatch = true
					break
				}
			}
		}
		_, privileged := residuePrivilegedGroups[g.name]
		if cropMatch || (residueMatch && privileged) {
			if len(g.feedstocks) > 0 {
				return SimilarMatch{Feedstock: g.feedstocks[0], Group: g.name}, true
			}
		}
	}
	return SimilarMatch{}, false
}

// Groups returns the compiled group names in evaluation order.
func (r *Resolver) Groups() []string {
	out := make([]string, len(r.groups))
	for i, g := range r.groups {
		out[i] = g.name
	}
	return out
}

// LoadSimilarGroups reads group overrides from a YAML list and merges them into the
// defaults. Groups with a known name replace it in place; new ones are appended. An empty
// path returns the defaults.
func LoadSimilarGroups(path string) ([]SimilarGroup, error) {
	defaults := cloneGroups(DefaultSimilarGroups)
	clean := strings.TrimSpace(path)
	if clean == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return defaults, fmt.Errorf("read similar groups: %w", err)
	}
	var overrides []SimilarGroup
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return defaults, fmt.Errorf("decode similar groups: %w", err)
	}
	return mergeGroups(defaults, overrides)
}

func mergeGroups(base, overrides []SimilarGroup) ([]SimilarGroup, error) {
	merged := cloneGroups(base)
	for _, o := range overrides {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			return base, errors.New("similar group without a name")
		}
		o.Name = name
		replaced := false
		for i := range merged {
			if merged[i].Name == name {
				merged[i] = cloneGroup(o)
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, cloneGroup(o))
		}
	}
	return merged, nil
}

func cloneGroups(groups []SimilarGroup) []SimilarGroup {
	out := make([]SimilarGroup, len(groups))
	for i, g := range groups {
		out[i] = cloneGroup(g)
	}
	return out
}

func cloneGroup(g SimilarGroup) SimilarGroup {
	return SimilarGroup{
		Name:            g.Name,
		Feedstocks:      cloneStrings(g.Feedstocks),
		Keywords:        cloneStrings(g.Keywords),
		ResidueKeywords: cloneStrings(g.ResidueKeywords),
	}
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if key := NameKey(kw); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
