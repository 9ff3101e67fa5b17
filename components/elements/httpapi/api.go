package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
	"github.com/goliatone/go-matter-elements/components/elements/commands"
	"github.com/goliatone/go-matter-elements/components/elements/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	UpdatePortfolio gocommand.Commander[commands.UpdatePortfolioInput]
	AttachContainer gocommand.Commander[commands.AttachContainerInput]
	DetachContainer gocommand.Commander[commands.DetachContainerInput]
	Status          gocommand.Querier[queries.StatusInput, elements.Status]
	Portfolio       gocommand.Querier[queries.PortfolioInput, elements.PortfolioQuery]
	Page            *elements.Controller
	Broadcast       *elements.BroadcastHub
}

// HandlePage renders the page hosting the element.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if h.Page == nil {
		http.Error(w, "page not configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Page.RenderTemplate(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleStatus writes the element status as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Status.Query(r.Context(), queries.StatusInput{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleGetPortfolio writes the current portfolio, or 404 before one resolves.
func (h *Handlers) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.Portfolio.Query(r.Context(), queries.PortfolioInput{})
	if errors.Is(err, queries.ErrNoPortfolio) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

// HandleUpdatePortfolio replaces the portfolio and re-mounts the element.
// Malformed JSON is a 400; a portfolio that fails validation is a 422.
func (h *Handlers) HandleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	var payload elements.PortfolioQuery
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, elements.ErrInvalidPortfolio) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	if err := h.UpdatePortfolio.Execute(r.Context(), commands.UpdatePortfolioInput{Portfolio: payload}); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleAttachContainer attaches the named container.
func (h *Handlers) HandleAttachContainer(w http.ResponseWriter, r *http.Request) {
	var payload commands.AttachContainerInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.AttachContainer.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleDetachContainer detaches the current container and unmounts the element.
func (h *Handlers) HandleDetachContainer(w http.ResponseWriter, r *http.Request) {
	if err := h.DetachContainer.Execute(r.Context(), commands.DetachContainerInput{}); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, elements.ErrInvalidPortfolio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, elements.ErrControllerClosed), errors.Is(err, elements.ErrContainerOccupied):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
