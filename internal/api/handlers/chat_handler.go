package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

// ChatHandler answers a question from hybrid-search context.
type ChatHandler struct {
	engine Searcher
	llm    core.LLMProvider
}

func NewChatHandler(engine Searcher, llm core.LLMProvider) *ChatHandler {
	return &ChatHandler{engine: engine, llm: llm}
}

type chatRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", core.ErrInvalidInput))
		return
	}
	if req.Collection == "" {
		req.Collection = "Default"
	}

	results, err := h.engine.Search(r.Context(), req.Query, req.Collection)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	var sb strings.Builder
	for _, res := range results {
		sb.WriteString(res.ChunkContent)
		sb.WriteString("\n---\n")
	}

	systemPrompt := "You are an intelligent assistant answering based only on the given document content. If unsure, say 'I cannot find this in the documents.'"
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", sb.String(), req.Query)

	answer, err := h.llm.Generate(r.Context(), systemPrompt, userPrompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":  answer,
		"sources": results,
	})
}
