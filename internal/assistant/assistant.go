// Package assistant answers natural-language questions about the
// transaction log. Questions are embedded locally, matched against the
// vector store, and the retrieved transactions are handed to a hosted LLM
// as context. Travel questions get a web lookup on top.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

const systemPrompt = `You are a personal finance assistant. Answer the user's question using the transaction context provided. Amounts are in the user's home currency. If the context does not contain the answer, say so instead of guessing. Keep answers short.`

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the closest stored transactions.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit uint64) ([]SearchResult, error)
}

// ChatModel produces the final answer.
type ChatModel interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// WebSearcher supplements travel questions with live information.
type WebSearcher interface {
	Lookup(ctx context.Context, query string) (string, error)
}

type Assistant struct {
	embedder Embedder
	searcher Searcher
	chat     ChatModel
	web      WebSearcher
	topK     int
}

func New(embedder Embedder, searcher Searcher, chat ChatModel, web WebSearcher, topK int) *Assistant {
	return &Assistant{
		embedder: embedder,
		searcher: searcher,
		chat:     chat,
		web:      web,
		topK:     topK,
	}
}

// ChunkText renders a transaction the way it is stored in the vector
// store's payload and shown to the LLM.
func ChunkText(tx core.Transaction) string {
	return fmt.Sprintf("Date: %s, Category: %s, Amount: %s, Product: %s",
		tx.DateAdded.Format("2006-01-02"), tx.Category, tx.Amount.FormatValue(), tx.ProductName)
}

// Payload builds the vector point payload for a transaction.
func Payload(tx core.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"text":     ChunkText(tx),
		"category": tx.Category,
		"date":     tx.DateAdded.Format("2006-01-02"),
	}
}

// Answer runs the full retrieval pipeline for one question.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	results, err := a.searcher.Search(ctx, vector, uint64(a.topK))
	if err != nil {
		return "", fmt.Errorf("search transactions: %w", err)
	}

	var webContext string
	if a.web != nil && IsTravelQuestion(question) {
		webContext, err = a.web.Lookup(ctx, question)
		if err != nil {
			// Web lookup is best effort; the transaction context still stands.
			slog.WarnContext(ctx, "Web lookup failed", "error", err)
			webContext = ""
		}
	}

	prompt := BuildPrompt(question, results, webContext)
	answer, err := a.chat.Chat(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return answer, nil
}

// BuildPrompt assembles the user message from the question, retrieved
// transactions, and any web snippet.
func BuildPrompt(question string, results []SearchResult, webContext string) string {
	var b strings.Builder

	b.WriteString("Transaction context:\n")
	if len(results) == 0 {
		b.WriteString("(no matching transactions)\n")
	}
	for _, r := range results {
		text, _ := r.Payload["text"].(string)
		if text == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(text)
		b.WriteString("\n")
	}

	if webContext != "" {
		b.WriteString("\nWeb context:\n")
		b.WriteString(webContext)
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
