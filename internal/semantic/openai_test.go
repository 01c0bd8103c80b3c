package semantic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/labelguard/labelguard/internal/model"
)

func detectorConfig(baseURL string) model.SemanticConfig {
	return model.SemanticConfig{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		APIKey:            "test-key",
		BaseURL:           baseURL,
		TimeoutSeconds:    5,
		RequestsPerSecond: 100,
	}
}

func testArtifact() *model.Artifact {
	return &model.Artifact{
		Blocks: []model.Block{
			{BlockID: "b1", BlockType: model.BlockClaimStrip, TextRaw: "zero sugar, high energy",
				SourcePage: 1, BBox: model.BBox{X: 0.1, Y: 0.1, W: 0.5, H: 0.1}},
		},
	}
}

func completionWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
}

func TestOpenAIDetector_Detect_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		content := `{"risk_list":[{"risk_type":"claim_contradiction",` +
			`"evidence":{"block_id":"b1","raw_snippet":"zero sugar"},` +
			`"risk_description":"Contradicts nutrition table","risk_logic":"sugar listed as 4g"}]}`
		_ = json.NewEncoder(w).Encode(completionWith(content))
	}))
	defer server.Close()

	detector, err := NewOpenAIDetector(detectorConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	if detector.Name() != "openai" {
		t.Errorf("Name() = %s", detector.Name())
	}

	candidates, records, err := detector.Detect(context.Background(), testArtifact())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("unexpected records: %+v", records)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.RiskType != "claim_contradiction" || c.DetectionMethod != model.DetectionSemanticLLM {
		t.Errorf("candidate = %+v", c)
	}
	if c.Evidence.BlockID != "b1" || c.Evidence.RawSnippet != "zero sugar" {
		t.Errorf("evidence = %+v", c.Evidence)
	}
}

func TestOpenAIDetector_Detect_EmptyRiskList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(`{"risk_list":[]}`))
	}))
	defer server.Close()

	detector, err := NewOpenAIDetector(detectorConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	candidates, _, err := detector.Detect(context.Background(), testArtifact())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestOpenAIDetector_Detect_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	detector, err := NewOpenAIDetector(detectorConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	if _, _, err := detector.Detect(context.Background(), testArtifact()); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIDetector_Detect_MalformedCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(`not json at all`))
	}))
	defer server.Close()

	detector, err := NewOpenAIDetector(detectorConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	if _, _, err := detector.Detect(context.Background(), testArtifact()); err == nil {
		t.Fatal("Expected error for malformed completion, got nil")
	}
}

func TestNewOpenAIDetector_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIDetector(model.SemanticConfig{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}
