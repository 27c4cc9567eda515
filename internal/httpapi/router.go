package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldpay/internal/api"
	"fieldpay/internal/deduction"
	"fieldpay/internal/history"
	"fieldpay/internal/ledger"
	"fieldpay/internal/lifecycle"
	"fieldpay/internal/worker"
	"fieldpay/internal/workorder"
	"fieldpay/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	workOrderHandlers := WorkOrderHandlers{
		Lifecycle:  lifecycle.New(deps.DB),
		WorkOrders: workorder.NewRepository(deps.DB),
		History:    history.NewRepository(deps.DB),
	}
	ledgerHandlers := LedgerHandlers{
		DB:      deps.DB,
		Ledgers: ledger.NewRepository(deps.DB),
	}
	ruleHandlers := RuleHandlers{Rules: deduction.NewRepository(deps.DB)}
	workerHandlers := WorkerHandlers{Workers: worker.NewRepository(deps.DB)}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Admin console is served from a separate frontend domain.
		// Only allow CORS for explicitly configured origins.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AdminAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Actor-ID", "X-Actor-Name"},
			MaxAgeSeconds:  600,
		}))
		r.Use(api.ActorAuth(deps.Cfg))

		// Work order lifecycle
		r.Post("/work-orders", workOrderHandlers.Create)
		r.Get("/work-orders", workOrderHandlers.List)
		r.Get("/work-orders/{id}", workOrderHandlers.Get)
		r.Put("/work-orders/{id}", workOrderHandlers.Update)
		r.Delete("/work-orders/{id}", workOrderHandlers.Archive)
		r.Post("/work-orders/{id}/transitions", workOrderHandlers.Transition)
		r.Get("/work-orders/{id}/history", workOrderHandlers.ListHistory)

		// Monthly earnings ledgers
		r.Get("/ledgers/{month}", ledgerHandlers.Get)
		r.Get("/ledgers/{month}/entries/{workerId}", ledgerHandlers.GetEntry)
		r.Post("/ledgers/{month}/entries/{workerId}/recalculate", ledgerHandlers.Recalculate)

		// Reference data
		r.Get("/deduction-rules", ruleHandlers.List)
		r.Get("/workers/{id}", workerHandlers.Get)
	})

	return r
}
