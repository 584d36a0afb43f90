package main

import (
	"log"
	"os"

	"github.com/kibbyd/reason-pilot/internal/answerer"
	"github.com/kibbyd/reason-pilot/internal/bridge"
	"github.com/kibbyd/reason-pilot/internal/confidence"
	"github.com/kibbyd/reason-pilot/internal/fallback"
	"github.com/kibbyd/reason-pilot/internal/pipeline"
	"github.com/kibbyd/reason-pilot/internal/sources"
	"github.com/kibbyd/reason-pilot/internal/store"
)

// #region main
func main() {
	dbPath := envOr("REASON_DB", "reason_pilot.db")
	addr := envOr("BRIDGE_ADDR", ":8089")

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	var chain []fallback.Source
	if wsCfg := sources.DefaultWebSearchConfig(); wsCfg.Enabled {
		chain = append(chain, sources.NewWebSearch(wsCfg))
	}
	if research := sources.NewResearch(); research != nil {
		chain = append(chain, research)
	}
	if assistant := sources.NewAssistant(); assistant != nil {
		chain = append(chain, assistant)
	}

	p := pipeline.New(st, answerer.NewClient(), chain, confidence.DefaultConfig(), fallback.DefaultConfig())

	r := bridge.New(p, st)
	log.Printf("[BRIDGE] listening on %s (db %s)", addr, dbPath)
	if err := r.Run(addr); err != nil {
		log.Fatalf("bridge server: %v", err)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
