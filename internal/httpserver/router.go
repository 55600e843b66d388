package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"antigravity-engine/internal/agents"
	"antigravity-engine/internal/health"
	"antigravity-engine/internal/portfolio"
	"antigravity-engine/internal/trades"
)

type RouterDeps struct {
	PortfolioHandler *portfolio.Handler
	TradeHandler     *trades.Handler
	AgentHandler     *agents.Handler
	HealthHandler    *health.Handler
	WSHandler        http.Handler
	InternalToken    string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware so the dashboard UI can connect.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Internal-Token")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", d.HealthHandler.Get)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Get("/metrics", d.HealthHandler.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/portfolio/{userID}", d.PortfolioHandler.Get)
		r.Get("/portfolio/{userID}/withdrawals", d.PortfolioHandler.Withdrawals)
		r.Post("/portfolio/deposit", d.PortfolioHandler.Deposit)
		r.Post("/portfolio/withdraw", d.PortfolioHandler.Withdraw)
		r.Get("/trades/{userID}", d.TradeHandler.ListByUser)
		r.Post("/agent/chat", d.AgentHandler.Chat)
		r.With(RequireInternalToken(d.InternalToken)).Post("/simulation/inject", d.AgentHandler.Inject)
	})

	if d.WSHandler != nil {
		r.Get("/ws", d.WSHandler.ServeHTTP)
	}

	return r
}
