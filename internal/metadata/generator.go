// Package metadata generates descriptive item metadata (title, description,
// tags, creator) for an audio file from its filename and the user's free-text
// context, using an OpenAI-compatible chat completions API. Generation is
// best-effort: when no API key is configured, or the model misbehaves, a
// filename-derived fallback is returned instead of an error.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jbrick2070/Archival-Flow/internal/config"
	"github.com/jbrick2070/Archival-Flow/internal/httpclient"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
)

const (
	generateTimeout = config.DefaultProbeTimeout * 4
	cacheSize       = 32
	maxOutputTokens = 512
	maxResponseBody = 1 << 20
)

const systemPrompt = `You write listing metadata for audio files published to a public archive.
Given a filename and optional context from the uploader, respond with a single JSON object:
{"title": string, "description": string, "tags": [string, ...], "creator": string}
Keep the title under 80 characters, the description to 2-3 sentences, and 3-8 short tags.
If the context names the creator, use it; otherwise leave creator empty. Respond with JSON only.`

// Generated is the metadata proposal for one file.
type Generated struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Creator     string   `json:"creator"`
}

// Generator produces metadata proposals, caching results so re-entering the
// review step for the same file does not re-issue the model call.
type Generator struct {
	baseURL string
	apiKey  string
	model   string

	httpClient *http.Client
	cache      *lru.Cache[string, Generated]
	logger     logging.Logger
}

// NewGenerator builds a Generator from the loaded configuration.
func NewGenerator(cfg *config.Config, logger logging.Logger) *Generator {
	cache, _ := lru.New[string, Generated](cacheSize)
	return &Generator{
		baseURL:    strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
		httpClient: httpclient.New(generateTimeout),
		cache:      cache,
		logger:     logging.OrNop(logger),
	}
}

// Generate proposes metadata for filename, steering the model with the
// user-provided context. It never fails: model errors degrade to the
// filename-derived fallback.
func (g *Generator) Generate(ctx context.Context, filename, hint string) Generated {
	key := filename + "\x00" + hint
	if cached, ok := g.cache.Get(key); ok {
		return cached
	}

	if strings.TrimSpace(g.apiKey) == "" {
		g.logger.Debug("no LLM API key configured, using fallback metadata for %s", filename)
		return Fallback(filename, hint)
	}

	generated, err := g.complete(ctx, filename, hint)
	if err != nil {
		g.logger.Warn("metadata generation for %s failed, using fallback: %v", filename, err)
		return Fallback(filename, hint)
	}

	generated = normalize(generated, filename)
	g.cache.Add(key, generated)
	return generated
}

func (g *Generator) complete(ctx context.Context, filename, hint string) (Generated, error) {
	user := fmt.Sprintf("Filename: %s", filename)
	if strings.TrimSpace(hint) != "" {
		user += fmt.Sprintf("\nContext from uploader: %s", hint)
	}

	reqBody := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"max_tokens": maxOutputTokens,
		"stream":     false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Generated{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Generated{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Generated{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := httpclient.ReadBody(resp.Body, maxResponseBody)
	if err != nil {
		return Generated{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Generated{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return Generated{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return Generated{}, fmt.Errorf("response contained no choices")
	}

	return ParseModelOutput(chatResp.Choices[0].Message.Content)
}
