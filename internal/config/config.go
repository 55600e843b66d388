package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr            string
	DBDSN               string
	InternalToken       string
	WebSocketOrigin     string
	GeminiModel         string
	MarketAPIURL        string
	BrokerAPIURL        string
	CvarThreshold       decimal.Decimal
	ConfidenceThreshold float64
	AnalysisInterval    time.Duration
	AnalysisAsset       string
	SeedUserID          string
	SeedCapital         decimal.Decimal
	SeedProfit          decimal.Decimal
	BusPartitions       int
	BusBuffer           int
	DispatchQueueSize   int
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	// DB_DSN is optional: when empty the engine runs on in-memory stores.
	c.DBDSN = os.Getenv("DB_DSN")
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	c.GeminiModel = os.Getenv("GEMINI_MODEL")
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.5-pro"
	}
	c.MarketAPIURL = os.Getenv("MARKET_API_URL")
	c.BrokerAPIURL = os.Getenv("BROKER_API_URL")

	threshold := os.Getenv("CVAR_THRESHOLD")
	if threshold == "" {
		threshold = "0.10"
	}
	d, err := decimal.NewFromString(threshold)
	if err != nil {
		return c, errors.New("invalid CVAR_THRESHOLD")
	}
	c.CvarThreshold = d

	confidence := os.Getenv("CONFIDENCE_THRESHOLD")
	if confidence == "" {
		confidence = "0.85"
	}
	f, err := strconv.ParseFloat(confidence, 64)
	if err != nil || f < 0 || f > 1 {
		return c, errors.New("invalid CONFIDENCE_THRESHOLD: must be within [0,1]")
	}
	c.ConfidenceThreshold = f

	interval := os.Getenv("ANALYSIS_INTERVAL")
	if interval == "" {
		interval = "60s"
	}
	dur, err := time.ParseDuration(interval)
	if err != nil {
		return c, errors.New("invalid ANALYSIS_INTERVAL")
	}
	c.AnalysisInterval = dur

	c.AnalysisAsset = os.Getenv("ANALYSIS_ASSET")
	if c.AnalysisAsset == "" {
		c.AnalysisAsset = "AAL"
	}

	c.SeedUserID = os.Getenv("SEED_USER_ID")
	if c.SeedUserID == "" {
		c.SeedUserID = "usr_001"
	}
	seedCapital := os.Getenv("SEED_CAPITAL")
	if seedCapital == "" {
		seedCapital = "100000.00"
	}
	if c.SeedCapital, err = decimal.NewFromString(seedCapital); err != nil {
		return c, errors.New("invalid SEED_CAPITAL")
	}
	seedProfit := os.Getenv("SEED_PROFIT")
	if seedProfit == "" {
		seedProfit = "5000.00"
	}
	if c.SeedProfit, err = decimal.NewFromString(seedProfit); err != nil {
		return c, errors.New("invalid SEED_PROFIT")
	}

	if c.BusPartitions, err = intEnv("BUS_PARTITIONS", 3); err != nil {
		return c, err
	}
	if c.BusBuffer, err = intEnv("BUS_BUFFER", 256); err != nil {
		return c, err
	}
	if c.DispatchQueueSize, err = intEnv("DISPATCH_QUEUE_SIZE", 64); err != nil {
		return c, err
	}

	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
