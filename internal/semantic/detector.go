// Package semantic is the client side of the SemanticRiskDetector
// collaborator. It produces severity-less risk candidates that enter the
// aggregator's stream on equal footing with rule candidates, tagged
// detection_method=semantic_llm.
//
// Nothing in the deterministic core depends on this package; the CLI wires
// it in explicitly, and pre-computed candidates can be loaded from a file
// instead of calling a provider.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labelguard/labelguard/internal/model"
)

// Detector discovers semantic risks (claims, contradictions) in an artifact
type Detector interface {
	// Name returns the provider name
	Name() string

	// Detect returns risk candidates without severity. Candidates that fail
	// shape checks are dropped with a warn record, never repaired.
	Detect(ctx context.Context, artifact *model.Artifact) ([]model.RiskCandidate, []model.ErrorRecord, error)
}

// candidateDoc mirrors the collaborator's JSON output shape
type candidateDoc struct {
	RiskList []struct {
		RiskType    string         `json:"risk_type"`
		Evidence    model.Evidence `json:"evidence"`
		Description string         `json:"risk_description"`
		Rationale   string         `json:"risk_logic"`
	} `json:"risk_list"`
}

// ParseCandidates parses a semantic candidate document. Unknown fields are
// tolerated so collaborators can evolve their output; entries missing
// required fields are skipped and reported. Severities present in the input
// are ignored; severity assignment belongs to the mapper.
func ParseCandidates(data []byte) ([]model.RiskCandidate, []model.ErrorRecord, error) {
	var doc candidateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse semantic candidates: %w", err)
	}

	var out []model.RiskCandidate
	var records []model.ErrorRecord
	for i, item := range doc.RiskList {
		if strings.TrimSpace(item.RiskType) == "" ||
			item.Evidence.BlockID == "" || item.Evidence.RawSnippet == "" {
			records = append(records, model.ErrorRecord{
				ErrorCode:  model.ErrCodeValidation,
				ModuleName: model.ModuleName,
				Message:    fmt.Sprintf("semantic candidate %d missing required fields, dropped", i),
				Severity:   model.ErrSeverityWarn,
			})
			continue
		}
		out = append(out, model.RiskCandidate{
			RiskType:        model.RiskType(item.RiskType),
			DetectionMethod: model.DetectionSemanticLLM,
			Evidence:        item.Evidence,
			Description:     item.Description,
			Rationale:       item.Rationale,
		})
	}
	return out, records, nil
}
