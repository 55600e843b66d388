package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/genai"

	"antigravity-engine/internal/agents"
	"antigravity-engine/internal/audit"
	"antigravity-engine/internal/broker"
	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/config"
	"antigravity-engine/internal/constraint"
	"antigravity-engine/internal/db"
	"antigravity-engine/internal/health"
	"antigravity-engine/internal/httpserver"
	"antigravity-engine/internal/marketdata"
	"antigravity-engine/internal/portfolio"
	"antigravity-engine/internal/reasoning"
	"antigravity-engine/internal/trades"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startedAt := time.Now().UTC()

	var pool *pgxpool.Pool
	var portfolioStore portfolio.Store
	var tradeStore trades.Store
	var auditStore audit.Store
	if cfg.DBDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal(err)
		}
		portfolioStore = portfolio.NewPGStore(pool)
		tradeStore = trades.NewPGStore(pool)
		auditStore = audit.NewPGStore(pool)
	} else {
		log.Printf("[Main] DB_DSN not set, running on in-memory stores")
		portfolioStore = portfolio.NewMemoryStore()
		tradeStore = trades.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
	}

	keeper := portfolio.NewKeeper(portfolioStore)
	verifier := constraint.NewVerifier(keeper, cfg.CvarThreshold)
	pipeline := bus.New(cfg.BusPartitions, cfg.BusBuffer)

	var analysisEngine, tradeEngine, observerEngine, chatEngine reasoning.Engine
	if os.Getenv("GEMINI_API_KEY") != "" {
		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			log.Fatal(err)
		}
		analysisEngine = reasoning.NewGemini(client, cfg.GeminiModel)
		tradeEngine = reasoning.NewGemini(client, cfg.GeminiModel, constraint.NewVerifyTool(verifier, cfg.SeedUserID))
		observerEngine = reasoning.NewGemini(client, cfg.GeminiModel)
		chatEngine = reasoning.NewGemini(client, cfg.GeminiModel)
	} else {
		log.Printf("[Main] GEMINI_API_KEY not set, reasoning engine disabled")
		disabled := reasoning.NewDisabled()
		analysisEngine, tradeEngine, observerEngine, chatEngine = disabled, disabled, disabled, disabled
	}

	var adapter broker.Adapter
	if cfg.BrokerAPIURL != "" {
		adapter = broker.NewSandboxAdapter(cfg.BrokerAPIURL)
	} else {
		adapter = broker.NewDisabledAdapter()
	}
	dispatcher := broker.NewDispatcher(adapter, cfg.DispatchQueueSize)
	dispatcher.Start(ctx)

	market := marketdata.NewClient(cfg.MarketAPIURL)
	analysisAgent := agents.NewAnalysisAgent(analysisEngine, market, pipeline, cfg.AnalysisAsset, cfg.AnalysisInterval)
	tradeAgent := agents.NewTradeAgent(tradeEngine, tradeStore, dispatcher, pipeline, cfg.SeedUserID)
	observerAgent := agents.NewObserverAgent(observerEngine, auditStore, pipeline, cfg.ConfidenceThreshold)

	if err := tradeAgent.Start(ctx); err != nil {
		log.Fatal(err)
	}
	if err := observerAgent.Start(ctx); err != nil {
		log.Fatal(err)
	}
	wsHandler := httpserver.NewWSHandler(pipeline, cfg.WebSocketOrigin)
	if err := wsHandler.Start(ctx); err != nil {
		log.Fatal(err)
	}
	go analysisAgent.Run(ctx)

	seed(ctx, keeper, cfg)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		PortfolioHandler: portfolio.NewHandler(keeper),
		TradeHandler:     trades.NewHandler(tradeStore),
		AgentHandler:     agents.NewHandler(analysisAgent, chatEngine),
		HealthHandler:    health.NewHandler(pool, pipeline, dispatcher, auditStore, startedAt, cfg.InternalToken),
		WSHandler:        wsHandler,
		InternalToken:    cfg.InternalToken,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.Printf("server listening on %s", cfg.HTTPAddr)
	log.Printf("health endpoint: http://localhost%s/health", cfg.HTTPAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	pipeline.Close()
	dispatcher.Close()
}

// seed establishes the sandbox portfolio on first boot: the protected base
// plus seed profit so trading can start without tripping the CVaR gate on
// zero profit.
func seed(ctx context.Context, keeper *portfolio.Keeper, cfg config.Config) {
	_, err := keeper.Snapshot(ctx, cfg.SeedUserID)
	if err == nil {
		log.Printf("[Main] portfolio for %s already exists, skipping initialization", cfg.SeedUserID)
		return
	}
	if !errors.Is(err, portfolio.ErrNotFound) {
		log.Printf("[Main] seed lookup failed: %v", err)
		return
	}
	if _, err := keeper.Deposit(ctx, cfg.SeedUserID, cfg.SeedCapital); err != nil {
		log.Printf("[Main] seed deposit failed: %v", err)
		return
	}
	if _, err := keeper.AddProfit(ctx, cfg.SeedUserID, cfg.SeedProfit); err != nil {
		log.Printf("[Main] seed profit failed: %v", err)
		return
	}
	log.Printf("[Main] initial capital %s and seed profit %s established for %s",
		cfg.SeedCapital, cfg.SeedProfit, cfg.SeedUserID)
}
