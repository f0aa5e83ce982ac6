package server

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"digitrend/internal/catalog"
	"digitrend/internal/errs"
	"digitrend/internal/forecast"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns a validator that reports fields by query name.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// invalidQuery is an invalid-input error carrying one line per bad field.
type invalidQuery struct {
	details []string
}

func (e *invalidQuery) Error() string {
	return fmt.Sprintf("invalid query: %s", strings.Join(e.details, "; "))
}

func (e *invalidQuery) Unwrap() error {
	return errs.ErrInvalidInput
}

func check(v any, parseErrs []string) error {
	details := append([]string(nil), parseErrs...)
	if err := getValidator().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			details = append(details, describe(fe))
		}
	}
	if len(details) > 0 {
		return &invalidQuery{details: details}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// queryReader collects typed query values and the parse errors met on the way.
type queryReader struct {
	values url.Values
	errs   []string
}

func (q *queryReader) str(name, def string) string {
	if v := strings.TrimSpace(q.values.Get(name)); v != "" {
		return v
	}
	return def
}

func (q *queryReader) int(name string, def int) int {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs = append(q.errs, fmt.Sprintf("%s must be an integer, got %q", name, raw))
		return def
	}
	return n
}

func (q *queryReader) float(name string, def float64) float64 {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.errs = append(q.errs, fmt.Sprintf("%s must be a number, got %q", name, raw))
		return def
	}
	return f
}

type scenarioQuery struct {
	Optimism float64 `query:"optimism" validate:"gte=0.5,lte=2"`
	Scenario string  `query:"scenario" validate:"oneof=base optimistic pessimistic downturn"`
	Start    int     `query:"start" validate:"gte=1900,lte=2200"`
	End      int     `query:"end" validate:"gtfield=Start,lte=2200"`
}

func parseScenario(values url.Values) (catalog.Params, error) {
	def := catalog.DefaultParams()
	q := &queryReader{values: values}
	sq := scenarioQuery{
		Optimism: q.float("optimism", def.Optimism),
		Scenario: strings.ToLower(q.str("scenario", string(def.Scenario))),
		Start:    q.int("start", def.StartYear),
		End:      q.int("end", def.EndYear),
	}
	if err := check(&sq, q.errs); err != nil {
		return catalog.Params{}, err
	}
	p := catalog.Params{
		Optimism:  sq.Optimism,
		Scenario:  catalog.Scenario(sq.Scenario),
		StartYear: sq.Start,
		EndYear:   sq.End,
	}
	return p, p.Validate()
}

type growthCalcQuery struct {
	Group string `query:"group" validate:"required"`
	Item  string `query:"item" validate:"required"`
	Start int    `query:"start" validate:"gte=0"`
	End   int    `query:"end" validate:"gte=0"`
}

// parseGrowthCalc reads the calculator years from "start" and "end"; zero
// selects the first and last analysis year.
func parseGrowthCalc(values url.Values) (growthCalcQuery, error) {
	q := &queryReader{values: values}
	gq := growthCalcQuery{
		Group: q.str("group", ""),
		Item:  q.str("item", ""),
		Start: q.int("start", 0),
		End:   q.int("end", 0),
	}
	return gq, check(&gq, q.errs)
}

type forecastQuery struct {
	Group      string `query:"group" validate:"required"`
	Item       string `query:"item" validate:"required"`
	Horizon    int    `query:"horizon" validate:"gte=1,lte=20"`
	Confidence int    `query:"confidence" validate:"oneof=90 95 99"`
	Model      string `query:"model" validate:"oneof=linear quadratic"`
	Transform  string `query:"transform" validate:"oneof=log1p log"`
}

func parseForecast(values url.Values, def forecast.Options) (forecastQuery, forecast.Options, error) {
	q := &queryReader{values: values}
	fq := forecastQuery{
		Group:      q.str("group", ""),
		Item:       q.str("item", ""),
		Horizon:    q.int("horizon", def.Horizon),
		Confidence: q.int("confidence", int(def.Confidence)),
		Model:      strings.ToLower(q.str("model", string(def.Model))),
		Transform:  strings.ToLower(q.str("transform", string(def.Transform))),
	}
	if err := check(&fq, q.errs); err != nil {
		return fq, forecast.Options{}, err
	}
	return fq, forecast.Options{
		Horizon:    fq.Horizon,
		Confidence: forecast.Confidence(fq.Confidence),
		Model:      forecast.Model(fq.Model),
		Transform:  forecast.Transform(fq.Transform),
	}, nil
}
