package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/simulate"
	"github.com/mtslab/mtslab/pkg/surface"
)

type evaluateRequest struct {
	CriterionID string   `json:"criterion_id"`
	Value       *float64 `json:"value"`
	Baseline    *float64 `json:"baseline"`
	NameplateKV float64  `json:"nameplate_kv"`
	AppliedKV   float64  `json:"applied_kv"`
}

type exploreRequest struct {
	CriterionID string    `json:"criterion_id"`
	Text        string    `json:"text"`   // free text, parsed like the manual entry box
	Values      []float64 `json:"values"` // already numeric values
	Baseline    *float64  `json:"baseline"`
	Scenario    string    `json:"scenario"` // simulate when no values are given
	Count       int       `json:"count"`
	NameplateKV float64   `json:"nameplate_kv"`
	AppliedKV   float64   `json:"applied_kv"`
}

func (h *Handler) lookupCriterion(w http.ResponseWriter, id string) (library.Entry, bool) {
	return lookupCriterionIn(w, h.Registry(), id)
}

func lookupCriterionIn(w http.ResponseWriter, reg *library.Registry, id string) (library.Entry, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "criterion_id is required")
		return library.Entry{}, false
	}
	e, err := reg.Criterion(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return library.Entry{}, false
	}
	return e, true
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	e, ok := h.lookupCriterion(w, req.CriterionID)
	if !ok {
		return
	}
	m := evaluate.Measurement{Value: req.Value, Baseline: req.Baseline}
	writeJSON(w, http.StatusOK, explore.Calculate(e, m, req.NameplateKV, req.AppliedKV))
}

func (h *Handler) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req exploreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	e, ok := h.lookupCriterion(w, req.CriterionID)
	if !ok {
		return
	}

	var in explore.Input
	switch {
	case req.Text != "":
		in = explore.FromText(*e.Criterion, req.Text, req.Baseline)
	case len(req.Values) > 0:
		in = explore.FromValues(*e.Criterion, req.Values, nil, req.Baseline)
		in.Source = explore.SourceManual
	case req.Scenario != "":
		var err error
		in, err = h.simulated(*e.Criterion, req.Scenario, req.Count)
		if err != nil {
			writeExploreError(w, err)
			return
		}
	default:
		writeExploreError(w, explore.ErrNoMeasurements)
		return
	}
	in.NameplateKV, in.AppliedKV = req.NameplateKV, req.AppliedKV

	rep, err := explore.Run(e, in)
	if err != nil {
		if errors.Is(err, explore.ErrNoMeasurements) && len(in.Invalid) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"invalid": in.Invalid,
			})
			return
		}
		writeExploreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	rep, _, ok := h.simulatedReport(w, r, h.Registry())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	reg := h.Registry()
	rep, key, ok := h.simulatedReport(w, r, reg)
	if !ok {
		return
	}
	if page := h.charts.Get(key); page != nil {
		w.Header().Set("X-Cache", "hit")
		writeHTML(w, page)
		return
	}
	page, err := surface.ChartHTML(rep)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render chart: "+err.Error())
		return
	}
	h.cacheChart(reg, key, page)
	w.Header().Set("X-Cache", "miss")
	writeHTML(w, page)
}

// cacheChart stores a page rendered from reg unless a reload has replaced
// reg since, in which case the cache was already purged for the new library.
func (h *Handler) cacheChart(reg *library.Registry, key string, page []byte) bool {
	if h.Registry() != reg {
		return false
	}
	h.charts.Put(key, page)
	return true
}

// simulatedReport runs the explorer on a synthesized series described by
// the scenario and count query parameters, resolving the criterion in reg.
// Synthesis is deterministic, so the returned key identifies the report.
func (h *Handler) simulatedReport(w http.ResponseWriter, r *http.Request, reg *library.Registry) (*explore.Report, string, bool) {
	e, ok := lookupCriterionIn(w, reg, r.PathValue("criterionID"))
	if !ok {
		return nil, "", false
	}
	q := r.URL.Query()
	count := 0
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "count must be an integer")
			return nil, "", false
		}
		count = n
	}
	in, err := h.simulated(*e.Criterion, q.Get("scenario"), count)
	if err != nil {
		writeExploreError(w, err)
		return nil, "", false
	}
	rep, err := explore.Run(e, in)
	if err != nil {
		writeExploreError(w, err)
		return nil, "", false
	}
	key := fmt.Sprintf("%s|%s|%d", e.Criterion.ID, in.Scenario, len(in.Values))
	return rep, key, true
}

func (h *Handler) simulated(c library.Criterion, scenario string, count int) (explore.Input, error) {
	var sc simulate.Scenario
	if scenario != "" {
		parsed, err := simulate.ParseScenario(scenario)
		if err != nil {
			return explore.Input{}, err
		}
		sc = parsed
	}
	return explore.FromSimulation(c, sc, count, h.opts)
}

func writeExploreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, explore.ErrNoMeasurements):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, explore.ErrCountOutOfRange),
		errors.Is(err, simulate.ErrUnknownScenario),
		errors.Is(err, simulate.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
