// Package export writes the dashboard data to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"digitrend/internal/catalog"
	"digitrend/internal/errs"
	"digitrend/internal/forecast"
)

const (
	// GrowthSheet lists every category's growth rate and bucket.
	GrowthSheet = "Growth Rates"
	// ForecastSheet lists projected rows with their bounds.
	ForecastSheet = "Forecasts"

	headerRow = 4
	firstData = headerRow + 1
)

// Forecast is one category's projection tagged with its group.
type Forecast struct {
	Group  catalog.Group
	Result *forecast.Result
}

// Input is everything one workbook shows.
type Input struct {
	Groups      []catalog.GroupTable
	Growth      []catalog.GrowthRecord
	Forecasts   []Forecast
	Params      catalog.Params
	GeneratedAt time.Time
}

type styles struct {
	title    int
	subtitle int
	header   int
	number   int
	percent  int
	decimal  int
	ratio    int
	label    int
}

// Build assembles the workbook. The caller closes the returned file.
func Build(in Input) (*excelize.File, error) {
	if len(in.Groups) == 0 {
		return nil, fmt.Errorf("%w: no groups to export", errs.ErrExport)
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: styles: %v", errs.ErrExport, err)
	}

	subtitle := subtitleFor(in)
	for i, gt := range in.Groups {
		name := string(gt.Spec.Group)
		if i == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err == nil {
			err = writeGroupSheet(f, name, gt, subtitle, st)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sheet %s: %v", errs.ErrExport, name, err)
		}
	}

	if _, err := f.NewSheet(GrowthSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrExport, err)
	}
	if err := writeGrowthSheet(f, in.Growth, subtitle, st); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: sheet %s: %v", errs.ErrExport, GrowthSheet, err)
	}

	if len(in.Forecasts) > 0 {
		if _, err := f.NewSheet(ForecastSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", errs.ErrExport, err)
		}
		if err := writeForecastSheet(f, in.Forecasts, subtitle, st); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sheet %s: %v", errs.ErrExport, ForecastSheet, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write workbook: %v", errs.ErrExport, err)
	}
	return nil
}

// Save builds the workbook and stores it at path.
func Save(path string, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: save %s: %v", errs.ErrExport, path, err)
	}
	return nil
}

func subtitleFor(in Input) string {
	at := in.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("Scenario: %s | Optimism: %.1fx | Years: %d-%d | Generated %s",
		in.Params.Scenario, in.Params.Optimism, in.Params.StartYear, in.Params.EndYear, at.Format("2 January 2006"))
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	border := []excelize.Border{{Type: "bottom", Color: "1F4E78", Style: 2}}

	if st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "1F4E78"},
	}); err != nil {
		return st, err
	}
	if st.subtitle, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Size: 10, Color: "595959"},
	}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return st, err
	}
	// 3 is the built-in "#,##0" format
	if st.number, err = f.NewStyle(&excelize.Style{NumFmt: 3}); err != nil {
		return st, err
	}
	// 10 is the built-in "0.00%" format
	if st.percent, err = f.NewStyle(&excelize.Style{NumFmt: 10, Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	decimal := "0.0"
	if st.decimal, err = f.NewStyle(&excelize.Style{CustomNumFmt: &decimal}); err != nil {
		return st, err
	}
	ratio := "0.000"
	if st.ratio, err = f.NewStyle(&excelize.Style{CustomNumFmt: &ratio}); err != nil {
		return st, err
	}
	if st.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	return st, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeHeading(f *excelize.File, sheet, title, subtitle string, width int, st styles) error {
	lines := []struct {
		text  string
		style int
	}{
		{title, st.title},
		{subtitle, st.subtitle},
	}
	for i, line := range lines {
		row := i + 1
		if err := f.SetCellValue(sheet, cell(1, row), line.text); err != nil {
			return err
		}
		if width > 1 {
			if err := f.MergeCell(sheet, cell(1, row), cell(width, row)); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), line.style); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, st styles) error {
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cell(i+1, headerRow), h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(len(headers), headerRow), st.header); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, headerRow, 30); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cell(1, firstData),
		ActivePane:  "bottomLeft",
	})
}

func writeGroupSheet(f *excelize.File, sheet string, gt catalog.GroupTable, subtitle string, st styles) error {
	t := gt.Table
	if t == nil || t.Len() == 0 {
		return fmt.Errorf("group %s has no rows", gt.Spec.Group)
	}
	cols := len(t.Columns) + 1
	title := fmt.Sprintf("%s (%s), %d-%d", gt.Spec.Title, gt.Spec.Unit, t.Years[0], t.Years[t.Len()-1])
	if err := writeHeading(f, sheet, title, subtitle, cols, st); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, append([]string{"Year"}, t.Columns...), st); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 10); err != nil {
		return err
	}
	if cols > 1 {
		lastCol, _ := excelize.ColumnNumberToName(cols)
		if err := f.SetColWidth(sheet, "B", lastCol, 18); err != nil {
			return err
		}
	}

	lastData := firstData + t.Len() - 1
	for i, year := range t.Years {
		row := firstData + i
		if err := f.SetCellValue(sheet, cell(1, row), year); err != nil {
			return err
		}
		for c := range t.Columns {
			if err := f.SetCellValue(sheet, cell(c+2, row), t.Values[c][i]); err != nil {
				return err
			}
		}
	}
	if len(t.Columns) == 0 {
		return nil
	}
	if err := f.SetCellStyle(sheet, cell(2, firstData), cell(cols, lastData), st.number); err != nil {
		return err
	}
	if err := colorScale(f, sheet, cell(2, firstData)+":"+cell(cols, lastData)); err != nil {
		return err
	}

	return writeSummaryRows(f, sheet, 2, cols, firstData, lastData, st)
}

// writeSummaryRows adds Average, Max, Min and CAGR formulas under columns
// [fromCol, toCol] over rows [first, last].
func writeSummaryRows(f *excelize.File, sheet string, fromCol, toCol, first, last int, st styles) error {
	row := last + 2
	labels := []string{"Average", "Max", "Min", "CAGR"}
	for i, label := range labels {
		if err := f.SetCellValue(sheet, cell(1, row+i), label); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row+len(labels)-1), st.label); err != nil {
		return err
	}

	for col := fromCol; col <= toCol; col++ {
		top, bottom := cell(col, first), cell(col, last)
		rng := top + ":" + bottom
		formulas := []string{
			fmt.Sprintf("AVERAGE(%s)", rng),
			fmt.Sprintf("MAX(%s)", rng),
			fmt.Sprintf("MIN(%s)", rng),
			fmt.Sprintf("(%s/%s)^(1/(COUNT(%s)-1))-1", bottom, top, rng),
		}
		for i, formula := range formulas {
			if err := f.SetCellFormula(sheet, cell(col, row+i), formula); err != nil {
				return err
			}
		}
	}
	if err := f.SetCellStyle(sheet, cell(fromCol, row), cell(toCol, row+2), st.number); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(fromCol, row+3), cell(toCol, row+3), st.percent)
}

func colorScale(f *excelize.File, sheet, rng string) error {
	return f.SetConditionalFormat(sheet, rng, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "min",
		MidType:  "percentile",
		MidValue: "50",
		MaxType:  "max",
		MinColor: "#F8696B",
		MidColor: "#FFEB84",
		MaxColor: "#63BE7B",
	}})
}

func writeGrowthSheet(f *excelize.File, records []catalog.GrowthRecord, subtitle string, st styles) error {
	sheet := GrowthSheet
	headers := []string{"Topic", "Group", "CAGR (%)", "Bucket"}
	if err := writeHeading(f, sheet, "Growth Rates by Category", subtitle, len(headers), st); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, headers, st); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "D", 14); err != nil {
		return err
	}

	for i, r := range records {
		row := firstData + i
		values := []any{r.Topic, string(r.Group), r.Rate, string(r.Bucket)}
		for c, v := range values {
			if err := f.SetCellValue(sheet, cell(c+1, row), v); err != nil {
				return err
			}
		}
	}
	if len(records) == 0 {
		return nil
	}

	last := firstData + len(records) - 1
	if err := f.SetCellStyle(sheet, cell(3, firstData), cell(3, last), st.decimal); err != nil {
		return err
	}
	if err := colorScale(f, sheet, cell(3, firstData)+":"+cell(3, last)); err != nil {
		return err
	}

	row := last + 2
	rng := cell(3, firstData) + ":" + cell(3, last)
	aggregates := []struct{ label, fn string }{
		{"Average", "AVERAGE"},
		{"Max", "MAX"},
		{"Min", "MIN"},
	}
	for i, agg := range aggregates {
		if err := f.SetCellValue(sheet, cell(1, row+i), agg.label); err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, cell(3, row+i), fmt.Sprintf("%s(%s)", agg.fn, rng)); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row+2), st.label); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(3, row), cell(3, row+2), st.decimal)
}

func writeForecastSheet(f *excelize.File, forecasts []Forecast, subtitle string, st styles) error {
	sheet := ForecastSheet
	headers := []string{"Category", "Group", "Year", "Estimate", "Lower", "Upper", "Confidence", "R²", "MAE"}
	if err := writeHeading(f, sheet, "Trend Forecasts", subtitle, len(headers), st); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, headers, st); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "I", 13); err != nil {
		return err
	}

	row := firstData
	for _, fc := range forecasts {
		if fc.Result == nil {
			continue
		}
		for _, p := range fc.Result.Points {
			values := []any{
				fc.Result.Name, string(fc.Group), p.Year,
				p.Estimate, p.Lower, p.Upper,
				fmt.Sprintf("%d%%", int(fc.Result.Confidence)), fc.Result.R2, fc.Result.MAE,
			}
			for c, v := range values {
				if err := f.SetCellValue(sheet, cell(c+1, row), v); err != nil {
					return err
				}
			}
			row++
		}
	}
	if row == firstData {
		return nil
	}
	if err := f.SetCellStyle(sheet, cell(4, firstData), cell(6, row-1), st.number); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(8, firstData), cell(8, row-1), st.ratio); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(9, firstData), cell(9, row-1), st.number)
}
