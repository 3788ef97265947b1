package http

import (
	"net/http"

	"expenses/internal/services"
)

type entriesResponse struct {
	Entries  []services.EntryView `json:"entries"`
	Count    int                  `json:"count"`
	Currency string               `json:"currency"`
	Revision uint64               `json:"revision"`
}

type summaryResponse struct {
	services.Summary
	Currency string `json:"currency"`
	Revision uint64 `json:"revision"`
}

type chartsResponse struct {
	services.Charts
	Revision uint64 `json:"revision"`
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

// dashboard builds the dashboard for the filter in the query string.
func (s *Server) dashboard(r *http.Request) (*services.Dashboard, error) {
	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		return nil, err
	}
	return s.dashboards.Dashboard(r.Context(), spec)
}

// handleListEntries returns the filtered, display-sorted entries.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{
		Entries:  d.Entries,
		Count:    len(d.Entries),
		Currency: d.Currency,
		Revision: d.Revision,
	})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	e, err := s.ledger.Add(r.Context(), body.entryInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/entries/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.ledger.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleUpdateEntry replaces every field of an entry.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	e, err := s.ledger.Update(r.Context(), r.PathValue("id"), body.entryInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleDeleteEntry is idempotent: deleting an unknown id still answers 204.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary returns totals over the whole ledger.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboards.Dashboard(r.Context(), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:  d.Summary,
		Currency: d.Currency,
		Revision: d.Revision,
	})
}

// handleCharts returns the chart series and their layout descriptors.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboards.Dashboard(r.Context(), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chartsResponse{Charts: d.Charts, Revision: d.Revision})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if err := s.ledger.SetCurrency(r.Context(), body["currency"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyRequest{Currency: s.ledger.Currency()})
}
