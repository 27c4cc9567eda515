package httpapi

import (
	"encoding/json"
	"net/http"

	"fieldpay/internal/api"
	"fieldpay/internal/deduction"
)

type RuleHandlers struct {
	Rules *deduction.Repository
}

// List returns active deduction rules, optionally narrowed to those covering a
// month and nationality class. Reference data is owned upstream; this is a
// read-only view.
func (h RuleHandlers) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Rules.ActiveRules(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	month := r.URL.Query().Get("month")
	nationality := r.URL.Query().Get("nationality")
	if month != "" {
		first, last, err := deduction.MonthBounds(month)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid month, expected YYYY-MM")
			return
		}
		var filtered []deduction.Rule
		for _, rule := range rules {
			if !rule.InEffect(first, last) {
				continue
			}
			if nationality != "" && !rule.AppliesTo(nationality) {
				continue
			}
			filtered = append(filtered, rule)
		}
		rules = filtered
	}
	if rules == nil {
		rules = []deduction.Rule{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": rules})
}
