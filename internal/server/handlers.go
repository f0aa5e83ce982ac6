package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"digitrend/internal/catalog"
	"digitrend/internal/dashboard"
	"digitrend/internal/errs"
	"digitrend/internal/metrics"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tables, err := s.svc.Tables(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]dashboard.GroupView, len(tables))
	for i, gt := range tables {
		views[i] = dashboard.View(gt)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"params": p,
		"groups": views,
	})
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	g, err := catalog.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	gt, err := s.svc.Table(g, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dashboard.View(gt))
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.svc.Growth(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"params":  p,
		"records": records,
	})
}

// handleGrowthCalc uses start and end as the calculator years; the analysis
// range stays at its default.
func (s *Server) handleGrowthCalc(w http.ResponseWriter, r *http.Request) {
	gq, err := parseGrowthCalc(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := catalog.ParseGroup(gq.Group)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scenario := cloneValues(r.URL.Query())
	scenario.Del("start")
	scenario.Del("end")
	p, err := parseScenario(scenario)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	calc, err := s.svc.PercentGrowth(g, gq.Item, gq.Start, gq.End, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, calc)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.forecastFromQuery(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, proj)
}

func (s *Server) forecastFromQuery(w http.ResponseWriter, r *http.Request) (*dashboard.Projection, bool) {
	fq, opts, err := parseForecast(r.URL.Query(), s.svc.ForecastDefaults())
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	g, err := catalog.ParseGroup(fq.Group)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	proj, err := s.svc.Forecast(g, fq.Item, opts, p)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return proj, true
}

func (s *Server) handleGroupChart(w http.ResponseWriter, r *http.Request) {
	g, err := catalog.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := s.svc.GroupChart(g, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBytes(w, "image/png", img)
}

func (s *Server) handleGrowthChart(w http.ResponseWriter, r *http.Request) {
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := s.svc.GrowthChart(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBytes(w, "image/png", img)
}

func (s *Server) handleForecastChart(w http.ResponseWriter, r *http.Request) {
	fq, opts, err := parseForecast(r.URL.Query(), s.svc.ForecastDefaults())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := catalog.ParseGroup(fq.Group)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := s.svc.ForecastChart(g, fq.Item, opts, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBytes(w, "image/png", img)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Workbook(&buf, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("digitrend-%s-%s.xlsx", p.Scenario, time.Now().Format("20060102"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	s.writeBytes(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := parseScenario(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	md, err := s.svc.Report(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBytes(w, "text/markdown; charset=utf-8", []byte(md))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.svc.Refresh()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.Warn().Err(err).Msg("Failed to write response body")
	}
}

// writeError maps err onto the error envelope and its status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	resp := errs.FromError(err, reqID)

	var iq *invalidQuery
	if errors.As(err, &iq) {
		resp = errs.NewResponse(errs.InputInvalid, reqID, errs.WithDetails(iq.details...))
	}

	code := errs.Code(resp.Error.Code)
	status := errs.Status(code)
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	metrics.APIError(resp.Error.Code, route)

	event := s.log.Warn()
	if status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event.Err(err).
		Str("code", resp.Error.Code).
		Str("path", r.URL.Path).
		Str("request_id", reqID).
		Msg("Request failed")

	s.writeJSON(w, status, resp)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
