package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/providers"
	"github.com/virtuefdn/medbridge/backend/internal/evaluation"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/groq"
	"github.com/virtuefdn/medbridge/backend/pkg/config"
)

func main() {
	var goldenPath string
	var withLLM bool
	flag.StringVar(&goldenPath, "golden", "config/golden_queries.json", "path to golden query set")
	flag.BoolVar(&withLLM, "llm", false, "enable the LLM intent fallback during evaluation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var classifier providers.IntentClassifier
	if withLLM {
		if cfg.Groq.APIKey == "" {
			log.Fatal("LLM evaluation requested but GROQ_API_KEY is not set")
		}
		groqClient, err := groq.NewClient(&cfg.Groq)
		if err != nil {
			log.Fatalf("Failed to initialize Groq client: %v", err)
		}
		classifier = groqClient
	}

	supervisor := services.NewSupervisorService(classifier, withLLM)

	if _, err := os.Stat("backend/" + goldenPath); err == nil {
		goldenPath = "backend/" + goldenPath
	}

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden queries: %v", err)
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatalf("Invalid golden queries: %v", err)
	}

	runner := evaluation.NewRunner(supervisor)
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	violations := evaluation.DefaultGates().Check(summary)
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "GATE FAILED: %v\n", v)
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}
