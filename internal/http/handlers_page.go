package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"expenses/internal/core"
	"expenses/internal/format"
	"expenses/internal/services"
)

// entryForm holds the values shown in the add/edit form.
type entryForm struct {
	ID       string
	Amount   string
	Category string
	Date     string
	Note     string
}

func (f entryForm) Editing() bool {
	return f.ID != ""
}

type filterForm struct {
	Category string
	From     string
	To       string
}

type pageData struct {
	Dashboard  *services.Dashboard
	Categories []core.Category
	Currencies []string
	Filter     filterForm
	Query      template.URL
	Form       entryForm
	Errors     map[string]string
	Message    string
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, form entryForm, formErr error) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	data := pageData{
		Categories: core.Categories(),
		Filter: filterForm{
			Category: query.Get("category"),
			From:     query.Get("from"),
			To:       query.Get("to"),
		},
		Query:  template.URL(filterQuery(query)),
		Form:   form,
		Errors: fieldMessages(formErr),
	}
	if formErr != nil && data.Errors == nil {
		data.Message = formErr.Error()
	}

	spec, err := ParseFilter(query)
	if err != nil {
		// Show everything and point at the bad filter field.
		if data.Errors == nil {
			data.Errors = map[string]string{}
		}
		for field, msg := range fieldMessages(err) {
			data.Errors["filter_"+field] = msg
		}
		spec = nil
		if status == http.StatusOK {
			status = http.StatusUnprocessableEntity
		}
	}

	d, err := s.dashboards.Dashboard(r.Context(), spec)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard build failed", "error", err)
		http.Error(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}
	data.Dashboard = d
	data.Currencies = currencyOptions(d.Currency)
	if data.Form.Date == "" && !data.Form.Editing() {
		data.Form.Date = time.Now().Format(core.DateLayout)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
	}
}

// currencyOptions lists the known codes plus the current one if it is custom.
func currencyOptions(current string) []string {
	codes := format.Currencies()
	for _, c := range codes {
		if c == current {
			return codes
		}
	}
	return append(codes, current)
}

// handleIndex renders the dashboard. ?edit=<id> pre-fills the form with an
// existing entry.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var form entryForm
	var formErr error
	if id := r.URL.Query().Get("edit"); id != "" {
		e, err := s.ledger.Get(id)
		if err != nil {
			formErr = err
		} else {
			form = entryForm{
				ID:       e.ID,
				Amount:   strconv.FormatFloat(e.Amount.Value(), 'f', -1, 64),
				Category: e.Category.String(),
				Date:     e.Date.String(),
				Note:     e.Note,
			}
		}
	}
	s.renderPage(w, r, http.StatusOK, form, formErr)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := filterQuery(r.URL.Query()); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formValues(r *http.Request) (entryForm, error) {
	if err := r.ParseForm(); err != nil {
		return entryForm{}, err
	}
	in := formFields(r.PostForm).entryInput()
	return entryForm{Amount: in.Amount, Category: in.Category, Date: in.Date, Note: in.Note}, nil
}

func (f entryForm) input() core.EntryInput {
	return core.EntryInput{Amount: f.Amount, Category: f.Category, Date: f.Date, Note: f.Note}
}

// formFailure re-renders the page with the submitted values after a
// rejected mutation.
func (s *Server) formFailure(w http.ResponseWriter, r *http.Request, form entryForm, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Ledger mutation failed", "path", r.URL.Path, "error", err)
		err = errors.New("could not save the ledger, please try again")
	}
	s.renderPage(w, r, status, form, err)
}

func (s *Server) handleCreateEntryForm(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, err := s.ledger.Add(r.Context(), form.input()); err != nil {
		s.formFailure(w, r, form, err)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) handleUpdateEntryForm(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form.ID = r.PathValue("id")
	if _, err := s.ledger.Update(r.Context(), form.ID, form.input()); err != nil {
		s.formFailure(w, r, form, err)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) handleDeleteEntryForm(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.formFailure(w, r, entryForm{}, err)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) handleCurrencyForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := s.ledger.SetCurrency(r.Context(), formFields(r.PostForm)["currency"]); err != nil {
		s.formFailure(w, r, entryForm{}, err)
		return
	}
	s.redirectHome(w, r)
}
