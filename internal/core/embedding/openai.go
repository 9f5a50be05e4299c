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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
	defaultOpenAIDim     = 1536
)

// OpenAIProvider embeds texts against an OpenAI-compatible endpoint, one
// request per text, with the same zero-vector fallback as the Ollama path.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string, dim int, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	if dim <= 0 {
		dim = defaultOpenAIDim
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) Kind() core.ProviderKind { return core.ProviderOpenAI }
func (p *OpenAIProvider) Dimension() int          { return p.dim }

func (p *OpenAIProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	failed := 0
	for i, text := range texts {
		vec, err := p.embedOne(ctx, text)
		if err != nil {
			log.Printf("embedding: openai call failed for text %d/%d: %v", i+1, len(texts), err)
			out[i] = make([]float32, p.dim)
			failed++
			continue
		}
		out[i] = AdjustDimension(vec, p.dim)
	}
	if failed == len(texts) {
		return out, fmt.Errorf("%w: all %d openai embedding calls failed", core.ErrEmbeddingUnavailable, failed)
	}
	return out, nil
}

func (p *OpenAIProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"model": p.model, "input": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("openai embeddings: %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].Embedding == nil {
		return nil, fmt.Errorf("openai response missing embedding data")
	}
	return payload.Data[0].Embedding, nil
}

var _ core.EmbeddingProvider = (*OpenAIProvider)(nil)
