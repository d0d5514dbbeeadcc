//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"companion-game-be/internal/config"
	"companion-game-be/pkg/embedding"
	"companion-game-be/pkg/llm"
	"companion-game-be/pkg/llm/ollama"
)

// Smoke-checks the configured Ollama endpoint with the same calls the
// pipeline stages make. Run with: go run scripts/probe_ollama.go
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	provider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)

	fmt.Println("--- Chat (JSON mode) ---")
	raw, err := provider.Generate(ctx,
		`Extract facts from: "user: I moved to Lisbon last month". Respond as JSON: {"facts": [...]}`,
		llm.WithJSONMode(), llm.WithTemperature(0.2))
	if err != nil {
		log.Fatalf("chat call failed: %v", err)
	}
	fmt.Println(raw)

	fmt.Println("\n--- Embedding ---")
	vector, err := embedder.Generate(ctx, "I moved to Lisbon last month")
	if err != nil {
		log.Fatalf("embedding call failed: %v", err)
	}
	fmt.Printf("model=%s dimensions=%d first=%f\n", cfg.Ai.EmbeddingModel, len(vector), vector[0])
}
