package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/engine"
	"github.com/contactkeval/option-analytics/internal/logger"
	"github.com/contactkeval/option-analytics/internal/report"
	"github.com/contactkeval/option-analytics/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config (optional)")
	ticker := flag.String("ticker", "", "underlying ticker (overrides config)")
	rest := flag.Bool("rest", false, "run as REST server")
	port := flag.String("port", ":8080", "REST server listen address")
	out := flag.String("out", "", "report output directory (overrides config)")
	synthetic := flag.Bool("synthetic", false, "use the synthetic data provider")
	verbosity := flag.Int("verbosity", -1, "log verbosity 0-3 (overrides config)")
	flag.Parse()

	// Optional .env for provider settings (e.g. YAHOO_BASE_URL).
	_ = godotenv.Load()

	var cfg engine.Config
	if *configPath != "" {
		cfgData, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("reading config: %v", err)
		}
		if err := json.Unmarshal(cfgData, &cfg); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
	}
	if *ticker != "" {
		cfg.Ticker = *ticker
	}
	if *out != "" {
		cfg.OutputDir = *out
	}
	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	logger.SetVerbosity(cfg.Verbosity)

	// choose provider
	var prov data.Provider
	if *synthetic {
		prov = data.NewSyntheticProvider(time.Now().UnixNano(), time.Now().UTC())
		log.Printf("[info] synthetic provider enabled")
	} else {
		prov = data.NewYahooProvider(os.Getenv("YAHOO_BASE_URL"))
		log.Printf("[info] yahoo provider enabled")
	}

	eng, err := engine.New(&cfg, prov)
	if err != nil {
		log.Fatalf("building engine: %v", err)
	}

	if *rest {
		srv := server.New(eng, cfg.Ticker)
		log.Printf("[info] starting REST server on %s", *port)
		log.Fatal(http.ListenAndServe(*port, srv.Router()))
		return
	}

	start := time.Now()
	res, err := eng.Run(cfg.Ticker, time.Now().UTC())
	if err != nil {
		log.Fatalf("computation failed: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Printf("[warn] could not create output dir %s: %v", cfg.OutputDir, err)
	}
	if err := report.WriteJSON(res, cfg.OutputDir); err != nil {
		log.Printf("[warn] writing result.json: %v", err)
	}
	if err := report.WriteCSV(res, cfg.OutputDir); err != nil {
		log.Printf("[warn] writing quotes.csv: %v", err)
	}
	log.Printf("[done] finished in %v, wrote %d quotes across %d buckets to %s",
		time.Since(start), res.TotalQuotes(), len(res.ExpirationDates), cfg.OutputDir)
}
