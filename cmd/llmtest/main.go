package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/isndotbiz/spiritatlas/cmd/mainconfig"
	appconfig "github.com/isndotbiz/spiritatlas/internal/config"
	"github.com/isndotbiz/spiritatlas/internal/credentials"
	"github.com/isndotbiz/spiritatlas/internal/enrichment"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// llmtest exercises each configured provider with a small sample profile so
// credentials and endpoints can be verified outside the full API server.
func main() {
	only := flag.String("provider", "", "test a single provider id (claude, openai, gemini, groq, openrouter, ollama)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New("warn")

	creds := credentials.NewMemoryStore().Seed(map[string]string{
		enrichment.ProviderClaude:     cfg.AnthropicAPIKey,
		enrichment.ProviderOpenAI:     cfg.OpenAIAPIKey,
		enrichment.ProviderGemini:     cfg.GeminiAPIKey,
		enrichment.ProviderGroq:       cfg.GroqAPIKey,
		enrichment.ProviderOpenRouter: cfg.OpenRouterAPIKey,
	})

	reg := enrichment.NewRegistry()
	reg.Register(enrichment.ProviderClaude, enrichment.NewClaudeProvider(creds, cfg.AnthropicBaseURL, logger))
	reg.Register(enrichment.ProviderOpenAI, enrichment.NewOpenAIProvider(creds, logger))
	reg.Register(enrichment.ProviderGemini, enrichment.NewGeminiProvider(creds, logger))
	reg.Register(enrichment.ProviderGroq, enrichment.NewGroqProvider(creds, logger))
	reg.Register(enrichment.ProviderOpenRouter, enrichment.NewOpenRouterProvider(creds, logger))
	reg.Register(enrichment.ProviderOllama, enrichment.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, logger))

	if cfg.BedrockEnabled || cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			log.Fatalf("load AWS config: %v", err)
		}
		brClient := bedrockruntime.NewFromConfig(awsCfg)
		reg.Register(enrichment.ProviderBedrock, enrichment.NewBedrockProvider(brClient, cfg.BedrockModelID, logger))
	}

	ectx := enrichment.NewContext(5, 24,
		map[string]string{"lifePath": "7", "expression": "3"},
		map[string]string{"sunSign": "Pisces"},
		nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("Provider smoke test (5/24 profile fields)")
	fmt.Println("-----------------------------------------")

	ids := reg.IDs()
	sort.Strings(ids)

	tried := 0
	for _, id := range ids {
		if *only != "" && id != *only {
			continue
		}
		provider, ok := reg.Get(id)
		if !ok {
			continue
		}
		if !provider.Available() {
			fmt.Printf("[skip] %-10s not configured\n", id)
			continue
		}
		tried++
		start := time.Now()
		result, err := provider.GenerateEnrichment(ctx, ectx)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			fmt.Printf("[fail] %-10s %v (%s)\n", id, err, elapsed)
			continue
		}
		fmt.Printf("[ ok ] %-10s confidence=%.2f latency=%s\n", id, result.Confidence, elapsed)
		fmt.Printf("       %s\n", excerpt(result.Text, 160))
	}

	if tried == 0 {
		fmt.Println("no providers configured; set at least one API key")
	}
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
