package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/auth"
	"github.com/meridian-dist/meridian/internal/catalog"
	"github.com/meridian-dist/meridian/internal/dashboard"
	"github.com/meridian-dist/meridian/internal/leads"
	"github.com/meridian-dist/meridian/internal/ledger"
	"github.com/meridian-dist/meridian/internal/notify"
	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/regions"
	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Pool           *pgxpool.Pool

	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RegionsHandler   *regions.Handler
	CatalogHandler   *catalog.Handler
	LedgerHandler    *ledger.Handler
	OrdersHandler    *orders.Handler
	LeadsHandler     *leads.Handler
	DashboardHandler *dashboard.Handler
	NotifyHandler    *notify.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	var database pinger
	if params.Pool != nil {
		database = params.Pool
	}
	r.Get("/healthz", healthHandler(database))

	timeout := 30 * time.Second
	if params.Config != nil && params.Config.AppRequestTimeout > 0 {
		timeout = params.Config.AppRequestTimeout
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))

		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/regions", params.RegionsHandler.MountRoutes)
		r.Route("/products", params.CatalogHandler.MountRoutes)
		r.Route("/inventory", params.LedgerHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/leads", params.LeadsHandler.MountLeadRoutes)
		r.Route("/carts", params.LeadsHandler.MountCartRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	})

	// The event stream holds its connection open well past the request
	// timeout, so it mounts outside the timeout group.
	r.Route("/events", params.NotifyHandler.MountRoutes)

	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(database pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := database.Ping(ctx); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
