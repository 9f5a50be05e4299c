package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ragstack/ragserve/internal/core"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "nomic-embed-text"
	defaultOllamaDim     = 768
)

// OllamaProvider embeds texts against an Ollama server, one request per text.
type OllamaProvider struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string, dim int, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if dim <= 0 {
		dim = defaultOllamaDim
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OllamaProvider) Kind() core.ProviderKind { return core.ProviderOllama }
func (p *OllamaProvider) Dimension() int          { return p.dim }

// EmbedTexts issues one request per text. A failed call (timeout, bad status,
// non-list payload) substitutes a zero vector for that text and continues, so
// one bad chunk never aborts an ingestion. Only when every call failed does
// the batch escalate to ErrEmbeddingUnavailable.
func (p *OllamaProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	failed := 0
	for i, text := range texts {
		vec, err := p.embedOne(ctx, text)
		if err != nil {
			log.Printf("embedding: ollama call failed for text %d/%d: %v", i+1, len(texts), err)
			out[i] = make([]float32, p.dim)
			failed++
			continue
		}
		out[i] = AdjustDimension(vec, p.dim)
	}
	if failed == len(texts) {
		return out, fmt.Errorf("%w: all %d ollama embedding calls failed", core.ErrEmbeddingUnavailable, failed)
	}
	return out, nil
}

func (p *OllamaProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"model": p.model, "prompt": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ollama embeddings: %s", resp.Status)
	}

	var payload struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if payload.Embedding == nil {
		return nil, fmt.Errorf("ollama response missing embedding field")
	}
	return payload.Embedding, nil
}

var _ core.EmbeddingProvider = (*OllamaProvider)(nil)
