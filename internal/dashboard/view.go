package dashboard

import (
	"digitrend/internal/catalog"
	"digitrend/internal/series"
)

// CategorySummary is one column's statistics with its configured rate.
type CategorySummary struct {
	Name   string         `json:"name"`
	Rate   float64        `json:"rate"`
	Bucket catalog.Bucket `json:"bucket"`
	series.Summary
}

// GroupView is the JSON shape of a generated group.
type GroupView struct {
	Group     catalog.Group     `json:"group"`
	Title     string            `json:"title"`
	Unit      string            `json:"unit"`
	Years     []int             `json:"years"`
	Columns   []string          `json:"columns"`
	Values    [][]float64       `json:"values"`
	Summaries []CategorySummary `json:"summaries"`
}

// View flattens a group table and summarizes each column.
func View(gt catalog.GroupTable) GroupView {
	v := GroupView{
		Group:   gt.Spec.Group,
		Title:   gt.Spec.Title,
		Unit:    gt.Spec.Unit,
		Years:   gt.Table.Years,
		Columns: gt.Table.Columns,
		Values:  gt.Table.Values,
	}
	rates := make(map[string]float64, len(gt.Spec.Categories))
	for _, c := range gt.Spec.Categories {
		rates[c.Name] = c.Rate
	}
	for _, name := range gt.Table.Columns {
		col, _ := gt.Table.Column(name)
		sum, err := series.Summarize(col)
		if err != nil {
			continue
		}
		v.Summaries = append(v.Summaries, CategorySummary{
			Name:    name,
			Rate:    rates[name],
			Bucket:  catalog.BucketFor(rates[name]),
			Summary: sum,
		})
	}
	return v
}
