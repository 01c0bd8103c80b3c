package semantic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/labelguard/labelguard/internal/model"
)

const detectorPrompt = `You analyze food label text for semantic risks: contradictory claims,
exaggerated claims, and claims unsupported by the label itself.

Respond with JSON only, in this exact shape:
{"risk_list":[{"risk_type":"...","evidence":{"block_id":"...","raw_snippet":"..."},
"risk_description":"...","risk_logic":"..."}]}

Rules:
- raw_snippet MUST be copied verbatim from the text of the block it cites.
- block_id MUST be one of the block ids provided.
- Do not assign severities. Do not invent blocks or text.
- Return {"risk_list":[]} when nothing is found.`

// OpenAIDetector implements Detector against an OpenAI-compatible API
type OpenAIDetector struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewOpenAIDetector creates a detector from the semantic config section
func NewOpenAIDetector(cfg model.SemanticConfig) (*OpenAIDetector, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("semantic: OpenAI API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &OpenAIDetector{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Name returns the provider name
func (d *OpenAIDetector) Name() string {
	return "openai"
}

// Detect sends the artifact blocks to the model and parses the candidate
// list. Transport failures abort; malformed candidates degrade with records.
func (d *OpenAIDetector) Detect(ctx context.Context, artifact *model.Artifact) ([]model.RiskCandidate, []model.ErrorRecord, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, nil, eris.Wrap(err, "semantic: rate limit")
	}

	blocks, err := json.Marshal(artifact.Blocks)
	if err != nil {
		return nil, nil, eris.Wrap(err, "semantic: marshal blocks")
	}

	mdl := d.model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model:     mdl,
		MaxTokens: d.maxTokens,
		// Deterministic-leaning settings; collaborator output is still
		// non-deterministic and gets re-validated downstream.
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: detectorPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(blocks)},
		},
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "semantic: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, nil, eris.New("semantic: empty completion response")
	}

	candidates, records, err := ParseCandidates([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, nil, eris.Wrap(err, "semantic: parse response")
	}
	return candidates, records, nil
}
