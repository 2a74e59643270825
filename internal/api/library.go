package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/series"
	"github.com/mtslab/mtslab/pkg/surface"
)

type criterionSummary struct {
	TestID    string            `json:"test_id"`
	Title     string            `json:"title"`
	Highlight string            `json:"highlight"`
	Criterion library.Criterion `json:"criterion"`
	Suggested string            `json:"suggested"` // seed text for an empty manual entry box
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var phases []string
	for _, p := range q["phase"] {
		for _, part := range strings.Split(p, ",") {
			if part = strings.TrimSpace(part); part != "" {
				phases = append(phases, part)
			}
		}
	}
	tests := h.Registry().Filter(q.Get("q"), phases)
	if tests == nil {
		tests = []library.Test{}
	}
	writeJSON(w, http.StatusOK, tests)
}

func (h *Handler) lookupTest(w http.ResponseWriter, r *http.Request) (*library.Test, bool) {
	t, err := h.Registry().Test(r.PathValue("testID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return t, true
}

func (h *Handler) handleGetTest(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleCard(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTest(w, r)
	if !ok {
		return
	}
	switch r.URL.Query().Get("format") {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(surface.CardMarkdown(t)))
	case "", "html":
		page, err := surface.CardHTML(t)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "render card: "+err.Error())
			return
		}
		writeHTML(w, page)
	default:
		writeError(w, http.StatusBadRequest, "format must be html or markdown")
	}
}

func (h *Handler) handleVoltage(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTest(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	nameplate, err := optionalFloat(q.Get("nameplate_kv"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "nameplate_kv: "+err.Error())
		return
	}
	applied, err := optionalFloat(q.Get("applied_kv"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "applied_kv: "+err.Error())
		return
	}
	adv, ok := t.AdviseVoltage(nameplate, applied)
	if !ok {
		writeError(w, http.StatusNotFound, "test "+t.ID+" has no test-voltage guidance")
		return
	}
	writeJSON(w, http.StatusOK, adv)
}

func (h *Handler) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	entries := h.Registry().Entries()
	out := make([]criterionSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, criterionSummary{
			TestID:    e.Test.ID,
			Title:     e.Title(),
			Highlight: surface.Highlight(*e.Criterion),
			Criterion: *e.Criterion,
			Suggested: series.Format(explore.SuggestedValues(*e.Criterion)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// optionalFloat parses a query value; empty means zero.
func optionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return f, nil
}
