package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type LeadHandler struct {
	Leads *usecase.LeadLifecycle
	Log   *logrus.Logger
}

func NewLeadHandler(leads *usecase.LeadLifecycle, log *logrus.Logger) *LeadHandler {
	return &LeadHandler{Leads: leads, Log: log}
}

type AssignLeadRequest struct {
	AssigneeID string `json:"assignee_id"`
}

type UpdateInterestRequest struct {
	Interested *bool `json:"interested"`
}

type AddNoteRequest struct {
	Text string `json:"text"`
}

// Create handles POST /leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var input usecase.CreateLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.Leads.CreateLead(r.Context(), actor, input)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// List handles GET /leads?include_deleted=true.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	out, err := h.Leads.ListLeads(r.Context(), actor, includeDeleted)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CheckPhone handles GET /leads/phone-check?phone=.
func (h *LeadHandler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	out, err := h.Leads.CheckPhone(r.Context(), actor, r.URL.Query().Get("phone"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	out, err := h.Leads.GetLead(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req AssignLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.AssignLead(r.Context(), actor, chi.URLParam(r, "id"), req.AssigneeID)
	})
}

func (h *LeadHandler) MarkCalled(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.MarkLeadCalled(r.Context(), actor, chi.URLParam(r, "id"))
	})
}

func (h *LeadHandler) UpdateInterest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req UpdateInterestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Interested == nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   usecase.CodeInvalidInput,
			Message: "validation failed: interested is required",
			Fields:  []usecase.ValidationError{{Field: "interested", Message: "is required"}},
		})
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.UpdateLeadInterest(r.Context(), actor, chi.URLParam(r, "id"), *req.Interested)
	})
}

func (h *LeadHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.CloseLead(r.Context(), actor, chi.URLParam(r, "id"))
	})
}

func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req AddNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.AddLeadNote(r.Context(), actor, chi.URLParam(r, "id"), req.Text)
	})
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.SoftDeleteLead(r.Context(), actor, chi.URLParam(r, "id"))
	})
}

func (h *LeadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	h.respond(w, func() (*usecase.LeadOutput, error) {
		return h.Leads.RestoreLead(r.Context(), actor, chi.URLParam(r, "id"))
	})
}

func (h *LeadHandler) respond(w http.ResponseWriter, op func() (*usecase.LeadOutput, error)) {
	out, err := op()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
