// Package report renders the markdown growth report.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"digitrend/internal/catalog"
	"digitrend/internal/errs"
	"digitrend/internal/forecast"
	"digitrend/internal/series"
)

// Projection is one category's forecast tagged with its group.
type Projection struct {
	Group  catalog.Group
	Unit   string
	Result *forecast.Result
}

// Input is everything the report covers.
type Input struct {
	Groups      []catalog.GroupTable
	Growth      []catalog.GrowthRecord
	Projections []Projection
	Params      catalog.Params
	GeneratedAt time.Time
}

const topN = 5

var takeaways = []string{
	"**AI & ML**: a rapidly emerging field with strong job growth and a shortage of skilled professionals. Foundational AI and data analytics workshops build a future-ready workforce.",
	"**Cybersecurity**: a top priority as the digital economy grows, with high demand for ethical hacking and data security skills.",
	"**Cloud Computing**: demand follows business migration to scalable IT; training on major cloud platforms is highly valuable.",
	"**Blockchain**: national payment system adoption creates local demand for developers in this niche.",
	"**Web Development**: remains a foundational skill for the e-commerce and startup ecosystem.",
	"**Recommendations**: individuals should focus on Python, SQL and cloud platforms; institutions should align training with the national digital economy policy to close the skills gap.",
}

// Render builds the markdown report.
func Render(in Input) (string, error) {
	if len(in.Groups) == 0 {
		return "", fmt.Errorf("%w: no groups to report", errs.ErrExport)
	}
	at := in.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	var b strings.Builder
	b.WriteString("# DIGITAL ECONOMY GROWTH REPORT\n")
	fmt.Fprintf(&b, "## Workshops, Jobs & Startups %d-%d\n\n", in.Params.StartYear, in.Params.EndYear)

	b.WriteString("### 📊 EXECUTIVE SUMMARY\n\n")
	mult, _ := in.Params.Multiplier()
	fmt.Fprintf(&b, "- **Scenario**: %s (optimism %.1fx, rates scaled by %.2f)\n", in.Params.Scenario, in.Params.Optimism, mult)
	fmt.Fprintf(&b, "- **Categories Analyzed**: %d\n", len(in.Growth))
	fmt.Fprintf(&b, "- **High Growth Categories (>=25%%)**: %d\n", countBucket(in.Growth, catalog.BucketHigh))
	fmt.Fprintf(&b, "- **Average Growth Rate**: %.1f%%\n", averageRate(in.Growth))
	for _, gt := range in.Groups {
		first, last, ok := totals(gt.Table)
		if !ok {
			continue
		}
		line := fmt.Sprintf("- **%s**: %s → %s %s", gt.Spec.Title, formatNumber(first), formatNumber(last), strings.ToLower(gt.Spec.Unit))
		if pct, err := growthPercent(first, last); err == nil {
			line += fmt.Sprintf(" (%+.1f%%)", pct)
		}
		b.WriteString(line + "\n")
	}

	if len(in.Growth) > 0 {
		b.WriteString("\n### 🚀 TOP GROWTH CATEGORIES\n\n")
		b.WriteString("| Rank | Category | Group | CAGR | Bucket |\n")
		b.WriteString("|------|----------|-------|------|--------|\n")
		for i, r := range topGrowth(in.Growth, topN) {
			fmt.Fprintf(&b, "| %d | %s | %s | %.1f%% | %s |\n", i+1, r.Topic, r.Group, r.Rate, r.Bucket)
		}
	}

	for _, gt := range in.Groups {
		writeGroup(&b, gt)
	}

	if len(in.Projections) > 0 {
		b.WriteString("\n### 🔮 FORECASTS\n")
		for _, p := range in.Projections {
			writeProjection(&b, p)
		}
	}

	b.WriteString("\n### ✅ KEY TAKEAWAYS\n\n")
	for _, t := range takeaways {
		b.WriteString("- " + t + "\n")
	}

	fmt.Fprintf(&b, "\n---\n*Generated by Digitrend Analytics - %s*\n", at.Format("2 January 2006"))
	return b.String(), nil
}

// WriteFile renders the report into path.
func WriteFile(path string, in Input) error {
	md, err := Render(in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("%w: write report: %v", errs.ErrExport, err)
	}
	return nil
}

func writeGroup(b *strings.Builder, gt catalog.GroupTable) {
	t := gt.Table
	if t == nil || t.Len() == 0 {
		return
	}
	firstYear, lastYear := t.Years[0], t.Years[t.Len()-1]

	fmt.Fprintf(b, "\n### 📋 %s (%s)\n\n", strings.ToUpper(gt.Spec.Title), gt.Spec.Unit)
	fmt.Fprintf(b, "| Category | %d | %d | Growth | CAGR | Bucket |\n", firstYear, lastYear)
	b.WriteString("|----------|------|------|--------|------|--------|\n")

	rates := make(map[string]float64, len(gt.Spec.Categories))
	for _, c := range gt.Spec.Categories {
		rates[c.Name] = c.Rate
	}
	for c, name := range t.Columns {
		s, _ := t.Column(name)
		sum, err := series.Summarize(s)
		if err != nil {
			continue
		}
		growth := "n/a"
		if pct, err := series.PercentGrowth(s, firstYear, lastYear); err == nil {
			growth = fmt.Sprintf("%.0f%%", pct)
		}
		cagr := "n/a"
		if sum.CAGR != nil {
			cagr = fmt.Sprintf("%.1f%%", *sum.CAGR*100)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			name,
			formatNumber(t.Values[c][0]),
			formatNumber(t.Values[c][t.Len()-1]),
			growth,
			cagr,
			catalog.BucketFor(rates[name]))
	}
}

func writeProjection(b *strings.Builder, p Projection) {
	res := p.Result
	if res == nil || len(res.Points) == 0 {
		return
	}
	fmt.Fprintf(b, "\n#### %s (%s)\n", res.Name, p.Group)
	fmt.Fprintf(b, "Model: %s regression on %s values, R² = %.3f, MAE = %s %s\n\n",
		res.Model, res.Transform, res.R2, formatNumber(res.MAE), strings.ToLower(p.Unit))
	fmt.Fprintf(b, "| Year | Estimate | Lower (%d%%) | Upper (%d%%) |\n", int(res.Confidence), int(res.Confidence))
	b.WriteString("|------|----------|-------|-------|\n")
	for _, pt := range res.Points {
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n", pt.Year, formatNumber(pt.Estimate), formatNumber(pt.Lower), formatNumber(pt.Upper))
	}
}

func totals(t *series.Table) (first, last float64, ok bool) {
	if t == nil || t.Len() == 0 || len(t.Columns) == 0 {
		return 0, 0, false
	}
	for c := range t.Columns {
		first += t.Values[c][0]
		last += t.Values[c][t.Len()-1]
	}
	return first, last, true
}

func growthPercent(first, last float64) (float64, error) {
	s := series.Series{Years: []int{0, 1}, Values: []float64{first, last}}
	return series.PercentGrowth(s, 0, 1)
}

func topGrowth(records []catalog.GrowthRecord, n int) []catalog.GrowthRecord {
	sorted := append([]catalog.GrowthRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rate > sorted[j].Rate
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func countBucket(records []catalog.GrowthRecord, bucket catalog.Bucket) int {
	count := 0
	for _, r := range records {
		if r.Bucket == bucket {
			count++
		}
	}
	return count
}

func averageRate(records []catalog.GrowthRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range records {
		total += r.Rate
	}
	return total / float64(len(records))
}

func formatNumber(num float64) string {
	if num >= 1000000 {
		return fmt.Sprintf("%.2fM", num/1000000)
	} else if num >= 1000 {
		return fmt.Sprintf("%.1fK", num/1000)
	}
	return fmt.Sprintf("%.0f", num)
}
