package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldpay/internal/api"
	"fieldpay/internal/history"
	"fieldpay/internal/lifecycle"
	"fieldpay/internal/workorder"
)

type WorkOrderHandlers struct {
	Lifecycle  *lifecycle.Lifecycle
	WorkOrders *workorder.Repository
	History    *history.Repository
}

type createWorkOrderRequest struct {
	workorder.Params
	Draft   bool   `json:"draft"`
	Remarks string `json:"remarks,omitempty"`
}

func (h WorkOrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFromContext(r.Context())
	if actor == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req createWorkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if _, err := workorder.ParseRateType(string(req.RateType)); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid rateType")
		return
	}

	var (
		wo  *workorder.WorkOrder
		err error
	)
	if req.Draft {
		wo, err = h.Lifecycle.CreateDraft(r.Context(), req.Params)
	} else {
		wo, err = h.Lifecycle.CreateAndSubmit(r.Context(), req.Params, actor.ID, req.Remarks)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"workOrder": wo})
}

type updateWorkOrderRequest struct {
	workorder.Params
	Submit  bool   `json:"submit"`
	Remarks string `json:"remarks,omitempty"`
}

func (h WorkOrderHandlers) Update(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFromContext(r.Context())
	if actor == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req updateWorkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if _, err := workorder.ParseRateType(string(req.RateType)); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid rateType")
		return
	}

	wo, err := h.Lifecycle.UpdateAndSubmit(r.Context(), id, req.Params, req.Submit, actor.ID, req.Remarks)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"workOrder": wo})
}

type transitionRequest struct {
	Event   string `json:"event"`
	Remarks string `json:"remarks,omitempty"`
}

func (h WorkOrderHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFromContext(r.Context())
	if actor == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	ev, err := workorder.ParseEvent(req.Event)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid event")
		return
	}

	wo, err := h.Lifecycle.AttemptTransition(r.Context(), id, ev, actor.ID, req.Remarks)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"workOrder": wo})
}

// Archive soft-deletes a work order, routed through the same transition path
// so settled earnings are reversed atomically.
func (h WorkOrderHandlers) Archive(w http.ResponseWriter, r *http.Request) {
	actor := api.ActorFromContext(r.Context())
	if actor == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	if _, err := h.Lifecycle.AttemptTransition(r.Context(), id, workorder.EventArchive, actor.ID, ""); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h WorkOrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	items, err := h.WorkOrders.List(r.Context(), includeArchived)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []workorder.ListItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (h WorkOrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	wo, err := h.WorkOrders.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "work order not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"workOrder": wo})
}

func (h WorkOrderHandlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if _, err := h.WorkOrders.GetByID(r.Context(), id); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "work order not found")
		return
	}

	records, err := h.History.ListByWorkOrder(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": records})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch workorder.KindOf(err) {
	case workorder.KindGuardViolation:
		api.WriteError(w, http.StatusUnprocessableEntity, string(workorder.KindGuardViolation), err.Error())
	case workorder.KindInvalidTransition:
		api.WriteError(w, http.StatusConflict, string(workorder.KindInvalidTransition), err.Error())
	case workorder.KindNotFound:
		api.WriteError(w, http.StatusNotFound, string(workorder.KindNotFound), err.Error())
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
