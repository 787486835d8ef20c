package perplexity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/cache"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar-pro"
	userAgent      = "AI-Event-Scanner/2.0"

	// MinRelevanceScore is the lowest classification score a search keeps
	MinRelevanceScore = 5

	callSearch   = "search"
	callClassify = "classify"
)

// Client implements providers.EventSearchProvider against the Perplexity
// chat completions API
type Client struct {
	apiKey          string
	model           string
	baseURL         string
	httpClient      *http.Client
	searchTimeout   time.Duration
	classifyTimeout time.Duration
	limiter         *rate.Limiter
	cache           providers.CacheProvider
	cacheTTL        int
	tracer          trace.Tracer
}

// NewClient creates a new Perplexity client. When classifications is nil an
// in-process LRU sized from cfg memoizes classifications.
func NewClient(cfg *config.PerplexityConfig, classifications providers.CacheProvider) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("perplexity api key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = 60 * time.Second
	}
	classifyTimeout := cfg.ClassifyTimeout
	if classifyTimeout <= 0 {
		classifyTimeout = 30 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	if classifications == nil {
		size := cfg.CacheSize
		if size <= 0 {
			size = 1024
		}
		classifications = cache.NewMemoryAdapter(size, cacheTTL)
	}

	limit := rate.Inf
	if cfg.QueryDelay > 0 {
		limit = rate.Every(cfg.QueryDelay)
	}

	return &Client{
		apiKey:          cfg.APIKey,
		model:           model,
		baseURL:         baseURL,
		httpClient:      &http.Client{},
		searchTimeout:   searchTimeout,
		classifyTimeout: classifyTimeout,
		limiter:         rate.NewLimiter(limit, 1),
		cache:           classifications,
		cacheTTL:        int(cacheTTL / time.Second),
		tracer:          otel.Tracer("github.com/zatekoja/ai-event-scanner/backend/perplexity"),
	}, nil
}

var _ providers.EventSearchProvider = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// SearchEvents runs every topic query, deduplicates the candidates and keeps
// those that classify as relevant. Failed queries are skipped; if none of
// them got a response the result is ErrSearchUnavailable.
func (c *Client) SearchEvents(ctx context.Context, location string, platform entities.Platform, dateRange string) ([]*entities.Candidate, error) {
	ctx, span := c.tracer.Start(ctx, "perplexity.SearchEvents", trace.WithAttributes(
		attribute.String("event.location", location),
		attribute.String("event.platform", string(platform)),
	))
	defer span.End()

	var (
		all       []*entities.Candidate
		responded int
		lastErr   error
	)
	for _, query := range searchQueries(location, dateRange) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		content, err := c.complete(ctx, callSearch, c.searchTimeout, chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: searchSystemPrompt},
				{Role: "user", Content: buildSearchUserPrompt(query, platform, dateRange)},
			},
			Temperature: 0.2,
			MaxTokens:   2000,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("query", query).Msg("Search query failed")
			lastErr = err
			continue
		}
		responded++

		candidates, err := parseCandidates(content)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Str("content", truncate(content, 200)).Msg("Failed to parse search results")
			continue
		}
		all = append(all, candidates...)
	}

	if responded == 0 {
		err := fmt.Errorf("%w: %w", providers.ErrSearchUnavailable, lastErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all search queries failed")
		return nil, err
	}

	unique := dedupe(all)
	relevant := make([]*entities.Candidate, 0, len(unique))
	for _, candidate := range unique {
		classification, err := c.ClassifyEvent(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("title", candidate.Title.String()).Msg("Event classification failed")
			continue
		}
		if classification.AIRelevanceScore < MinRelevanceScore {
			continue
		}
		candidate.Classification = classification
		relevant = append(relevant, candidate)
	}

	span.SetAttributes(
		attribute.Int("search.candidates", len(all)),
		attribute.Int("search.unique", len(unique)),
		attribute.Int("search.relevant", len(relevant)),
	)
	log.Info().
		Str("location", location).
		Str("platform", string(platform)).
		Int("candidates", len(all)).
		Int("unique", len(unique)).
		Int("relevant", len(relevant)).
		Msg("Event search completed")
	return relevant, nil
}

// ClassifyEvent scores a candidate, memoized by title. Transport and status
// errors are returned; an unparseable reply yields the fallback
// classification, which is not memoized.
func (c *Client) ClassifyEvent(ctx context.Context, candidate *entities.Candidate) (*entities.Classification, error) {
	if candidate == nil {
		return nil, errors.New("candidate is required")
	}

	key := classificationCacheKey(candidate.Title.String())
	if cached, err := c.cache.Get(ctx, key); err == nil {
		var classification entities.Classification
		if err := json.Unmarshal(cached, &classification); err == nil {
			return &classification, nil
		}
	}

	content, err := c.complete(ctx, callClassify, c.classifyTimeout, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: buildClassifyUserPrompt(candidate)},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}

	classification, err := parseClassification(content)
	if err != nil {
		log.Warn().Err(err).Str("content", truncate(content, 200)).Msg("Failed to parse classification JSON")
		return entities.FallbackClassification(), nil
	}

	if data, err := json.Marshal(classification); err == nil {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache classification")
		}
	}
	return classification, nil
}

// complete issues one chat completion and returns the first choice's content
func (c *Client) complete(ctx context.Context, call string, timeout time.Duration, payload chatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordMetric(ctx, c.model, call, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("perplexity request failed with status %d", resp.StatusCode)
		recordMetric(ctx, c.model, call, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordMetric(ctx, c.model, call, resp.StatusCode, time.Since(start), err)
		return "", fmt.Errorf("failed to decode perplexity response: %w", err)
	}

	recordMetric(ctx, c.model, call, resp.StatusCode, time.Since(start), nil)
	if len(envelope.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(envelope.Choices[0].Message.Content), nil
}

func dedupe(candidates []*entities.Candidate) []*entities.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]*entities.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		sig := candidate.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		unique = append(unique, candidate)
	}
	return unique
}

func classificationCacheKey(title string) string {
	sum := sha256.Sum256([]byte(title))
	return "classify:" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type perplexityMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsOK   bool
	apiMetrics  perplexityMetrics
)

func ensureMetrics() bool {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/ai-event-scanner/backend/perplexity")

		requestCount, err := meter.Int64Counter(
			"ai.perplexity.request.count",
			metric.WithDescription("Number of Perplexity requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.perplexity.request.duration",
			metric.WithDescription("Perplexity request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.perplexity.request.errors",
			metric.WithDescription("Number of Perplexity request errors"),
		)
		if err != nil {
			return
		}

		apiMetrics = perplexityMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
		metricsOK = true
	})
	return metricsOK
}

func recordMetric(ctx context.Context, model, call string, statusCode int, duration time.Duration, err error) {
	if !ensureMetrics() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "perplexity"),
		attribute.String("ai.model", model),
		attribute.String("ai.call", call),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	apiMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	apiMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		apiMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
