package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kibbyd/reason-pilot/internal/answerer"
	"github.com/kibbyd/reason-pilot/internal/confidence"
	"github.com/kibbyd/reason-pilot/internal/fallback"
	"github.com/kibbyd/reason-pilot/internal/pipeline"
	"github.com/kibbyd/reason-pilot/internal/sources"
	"github.com/kibbyd/reason-pilot/internal/store"
	"github.com/kibbyd/reason-pilot/internal/trace"
)

// #region main
func main() {
	dbPath := envOr("REASON_DB", "reason_pilot.db")

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	local := answerer.NewClient()
	chain := buildChain()

	p := pipeline.New(st, local, chain, confidence.DefaultConfig(), fallback.DefaultConfig())

	fmt.Println("Reasoning assistant ready.")
	fmt.Printf("  DB: %s | escalation sources: %s\n", dbPath, chainIDs(chain))
	fmt.Println("Type a question, '#correct'/'#incorrect' to rate, '#feedback', '#context', '#performance', or 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		res, err := p.Resolve(context.Background(), input)
		if err != nil {
			log.Printf("resolve error: %v", err)
			continue
		}

		if res.IsCommand {
			fmt.Printf("\n%s\n\n", res.Output)
			continue
		}

		fmt.Printf("\n%s\n", res.Answer)
		if res.Warning != "" {
			fmt.Printf("(!) %s\n", res.Warning)
		}
		if len(res.Trace) > 0 {
			fmt.Printf("\n%s\n", trace.Render(res.Trace))
		}
		fmt.Printf("\n[s%d %s] type=%s source=%s confidence=%.2f state=%s\n\n",
			res.SessionID, res.Kind, res.ProblemType, res.Source, res.Confidence, res.State)
	}
}

// #endregion main

// #region chain

// buildChain assembles the escalation chain from the environment. Stages
// without configuration drop out rather than failing at query time.
func buildChain() []fallback.Source {
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
	return chain
}

func chainIDs(chain []fallback.Source) string {
	if len(chain) == 0 {
		return "none"
	}
	ids := make([]string, len(chain))
	for i, s := range chain {
		ids[i] = s.ID()
	}
	return strings.Join(ids, ", ")
}

// #endregion chain

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
