// Package catalog holds the built-in category groups and the scenario
// transforms applied to them before generation.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"digitrend/internal/errs"
	"digitrend/internal/series"
)

// Group names a family of categories.
type Group string

const (
	Workshops Group = "Workshops"
	Jobs      Group = "Jobs"
	Startups  Group = "Startups"
)

// ParseGroup accepts a group name in any case.
func ParseGroup(s string) (Group, error) {
	for _, g := range []Group{Workshops, Jobs, Startups} {
		if strings.EqualFold(string(g), strings.TrimSpace(s)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("group %q: %w", s, errs.ErrNotFound)
}

// Category is one tracked topic with its annual growth rate in percent.
type Category struct {
	Name       string  `json:"name"`
	Rate       float64 `json:"rate"`
	StartValue float64 `json:"start_value"`
}

// GroupSpec is a group with its display strings and ordered categories.
type GroupSpec struct {
	Group      Group      `json:"group"`
	Title      string     `json:"title"`
	Unit       string     `json:"unit"`
	Categories []Category `json:"categories"`
}

// Rates returns the categories as ordered generator rates.
func (g GroupSpec) Rates() []series.Rate {
	rates := make([]series.Rate, len(g.Categories))
	for i, c := range g.Categories {
		rates[i] = series.Rate{Name: c.Name, Percent: c.Rate}
	}
	return rates
}

// Starts returns the start magnitude per category.
func (g GroupSpec) Starts() map[string]float64 {
	starts := make(map[string]float64, len(g.Categories))
	for _, c := range g.Categories {
		starts[c.Name] = c.StartValue
	}
	return starts
}

// Has reports whether name is one of the group's categories.
func (g GroupSpec) Has(name string) bool {
	for _, c := range g.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Catalog is the full configuration the dashboard generates from.
type Catalog struct {
	Groups    []GroupSpec `json:"groups"`
	StartYear int         `json:"start_year"`
	EndYear   int         `json:"end_year"`
	Horizon   int         `json:"horizon"`
}

// Years returns the analysis years.
func (c Catalog) Years() []int {
	return series.YearRange(c.StartYear, c.EndYear)
}

// Group looks a group up by name.
func (c Catalog) Group(g Group) (GroupSpec, error) {
	for _, spec := range c.Groups {
		if spec.Group == g {
			return spec, nil
		}
	}
	return GroupSpec{}, fmt.Errorf("group %q: %w", g, errs.ErrNotFound)
}

// Apply returns a copy of c with every growth rate scaled by the scenario
// multiplier and the analysis years taken from p. c itself is left untouched.
func (c Catalog) Apply(p Params) (Catalog, error) {
	if err := p.Validate(); err != nil {
		return Catalog{}, err
	}
	mult, err := p.Multiplier()
	if err != nil {
		return Catalog{}, err
	}

	out := c.clone()
	for gi := range out.Groups {
		for ci := range out.Groups[gi].Categories {
			out.Groups[gi].Categories[ci].Rate *= mult
		}
	}
	out.StartYear = p.StartYear
	out.EndYear = p.EndYear
	return out, nil
}

// WithOverrides returns a copy of c where categories named in rates take the
// given growth rate. Unknown names are ignored.
func (c Catalog) WithOverrides(rates map[string]float64) Catalog {
	out := c.clone()
	if len(rates) == 0 {
		return out
	}
	for gi := range out.Groups {
		for ci, cat := range out.Groups[gi].Categories {
			if rate, ok := rates[cat.Name]; ok {
				out.Groups[gi].Categories[ci].Rate = rate
			}
		}
	}
	return out
}

func (c Catalog) clone() Catalog {
	out := c
	out.Groups = make([]GroupSpec, len(c.Groups))
	for i, g := range c.Groups {
		g.Categories = append([]Category(nil), g.Categories...)
		out.Groups[i] = g
	}
	return out
}

// Bucket is a qualitative growth label.
type Bucket string

const (
	BucketHigh   Bucket = "High"
	BucketMedium Bucket = "Medium"
	BucketLow    Bucket = "Low"
)

// BucketFor labels a growth rate in percent.
func BucketFor(rate float64) Bucket {
	if rate >= 25 {
		return BucketHigh
	} else if rate >= 18 {
		return BucketMedium
	}
	return BucketLow
}

// GrowthRecord is the flat view used by the ranking chart and sheet.
type GrowthRecord struct {
	Topic  string  `json:"topic"`
	Group  Group   `json:"group"`
	Rate   float64 `json:"rate"`
	Bucket Bucket  `json:"bucket"`
}

// GrowthRecords lists every category, lowest rate first.
func (c Catalog) GrowthRecords() []GrowthRecord {
	var records []GrowthRecord
	for _, g := range c.Groups {
		for _, cat := range g.Categories {
			records = append(records, GrowthRecord{
				Topic:  cat.Name,
				Group:  g.Group,
				Rate:   cat.Rate,
				Bucket: BucketFor(cat.Rate),
			})
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Rate < records[j].Rate
	})
	return records
}

// GroupTable pairs a group with the table generated from it.
type GroupTable struct {
	Spec  GroupSpec     `json:"spec"`
	Table *series.Table `json:"table"`
}
