// Package profilegen provides an LLM-authoring adapter that satisfies
// profile.Source by asking an OpenAI model to draft a crop's staged
// GDD/thermal requirements. It is a documented, out-of-loop collaborator:
// nothing in the optimize/adjust call path invokes it directly, since an
// LLM-authored profile needs a human review step before it can be trusted
// to drive phenology.Evaluate. Callers persist its output through
// internal/store.Repository.SaveCatalog once reviewed.
package profilegen

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/patrickmn/go-cache" // v2.1.0
	"github.com/sashabaranov/go-openai" // v1.32.5

	"github.com/fieldplan/allocator/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseDelay      = 100 * time.Millisecond
	maxJitter      = 50 * time.Millisecond
)

// Client drafts crop phenology profiles with an OpenAI chat completion,
// parsing the model's JSON response into domain.StageRequirement values.
type Client struct {
	api          *openai.Client
	timeout      time.Duration
	rateLimiter  sync.Mutex
	responseCache *cache.Cache
	lastRequest  time.Time
}

// NewClient creates a Client against the given OpenAI API key.
func NewClient(apiKey string) (*Client, error) {
	if len(apiKey) < 32 {
		return nil, fmt.Errorf("profilegen: API key length insufficient")
	}

	return &Client{
		api:           openai.NewClient(apiKey),
		timeout:       defaultTimeout,
		responseCache: cache.New(1*time.Hour, 2*time.Hour),
		lastRequest:   time.Now(),
	}, nil
}

// FetchProfile implements profile.Source, so a drafted profile can be
// reviewed through the same pipeline a static or Postgres profile would be.
func (c *Client) FetchProfile(ctx context.Context, cropID string) ([]domain.StageRequirement, error) {
	return c.DraftProfile(ctx, cropID, cropID, nil)
}

// DraftProfile asks the model for a full staged GDD/thermal profile for a
// named crop variety, optionally nudged by known growing conditions.
func (c *Client) DraftProfile(ctx context.Context, cropName, variety string, conditions map[string]string) ([]domain.StageRequirement, error) {
	cacheKey := fmt.Sprintf("profile_%s_%s_%v", cropName, variety, conditions)
	if cached, found := c.responseCache.Get(cacheKey); found {
		return cached.([]domain.StageRequirement), nil
	}

	prompt := buildProfilePrompt(cropName, variety, conditions)

	completion, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("profilegen: failed to draft profile: %w", err)
	}

	stages, err := parseStages(completion)
	if err != nil {
		return nil, fmt.Errorf("profilegen: failed to parse drafted profile: %w", err)
	}

	c.responseCache.Set(cacheKey, stages, cache.DefaultExpiration)
	return stages, nil
}

func (c *Client) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if attempt > 0 {
			time.Sleep(c.backoff(attempt))
		}

		c.rateLimiter.Lock()
		if since := time.Since(c.lastRequest); since < time.Second {
			time.Sleep(time.Second - since)
		}
		c.lastRequest = time.Now()
		c.rateLimiter.Unlock()

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: openai.GPT3Dot5Turbo,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			MaxTokens:   700,
		})
		if err == nil && len(resp.Choices) > 0 {
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return delay + jitter
}

func buildProfilePrompt(cropName, variety string, conditions map[string]string) string {
	return fmt.Sprintf(
		"Draft a staged growing-degree-day profile for %s (%s) under these conditions: %v. "+
			"Respond as a JSON array of objects with fields: stage_name, order, base_temperature, "+
			"optimal_min, optimal_max, high_stress_threshold, required_gdd.",
		cropName, variety, conditions,
	)
}

// profileStageJSON mirrors the JSON shape requested in buildProfilePrompt.
type profileStageJSON struct {
	StageName          string  `json:"stage_name"`
	Order              int     `json:"order"`
	BaseTemperature    float64 `json:"base_temperature"`
	OptimalMin         float64 `json:"optimal_min"`
	OptimalMax         float64 `json:"optimal_max"`
	HighStressThreshold float64 `json:"high_stress_threshold"`
	RequiredGDD        float64 `json:"required_gdd"`
}

func parseStages(completion string) ([]domain.StageRequirement, error) {
	var raw []profileStageJSON
	if err := json.Unmarshal([]byte(completion), &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("model returned no stages")
	}

	out := make([]domain.StageRequirement, len(raw))
	for i, s := range raw {
		out[i] = domain.StageRequirement{
			StageName: s.StageName,
			Order:     s.Order,
			Thermal: domain.ThermalProfile{
				BaseTemperature:  s.BaseTemperature,
				OptimalMin:       s.OptimalMin,
				OptimalMax:       s.OptimalMax,
				HighStressThresh: s.HighStressThreshold,
			},
			RequiredGDD: s.RequiredGDD,
		}
	}
	return out, nil
}
