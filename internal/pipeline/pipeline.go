// Package pipeline composes the deterministic risk core for one run:
// scope indexing, rule matching, semantic candidate merge, severity
// assignment and guardrail aggregation. Direct function composition between
// independently testable components; no orchestration runtime.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/guardrail"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/rules"
	"github.com/labelguard/labelguard/internal/scope"
	"github.com/labelguard/labelguard/internal/severity"
)

// Pipeline runs scans against one validated, run-scoped dictionary.
// All stages are pure functions over immutable inputs; a Pipeline is safe
// for concurrent use across runs.
type Pipeline struct {
	dict    *dict.Dictionary
	matcher *rules.Matcher
	mapper  *severity.Mapper
	logger  *zap.Logger
}

// New creates a pipeline bound to a validated dictionary
func New(d *dict.Dictionary, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		dict:    d,
		matcher: rules.NewMatcher(d),
		mapper:  severity.NewMapper(d),
		logger:  logger,
	}
}

// Run scans one artifact, optionally merging externally supplied semantic
// candidates, and assembles the final output. Cancelling ctx before final
// assembly has no observable side effects.
func (p *Pipeline) Run(ctx context.Context, artifact *model.Artifact, semanticCandidates []model.RiskCandidate) (*model.FinalOutput, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	var records []model.ErrorRecord
	records = append(records, checkArtifactMeta(artifact)...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, upstream := scope.Build(artifact, p.dict.Matching.Normalization)
	records = append(records, upstream...)
	log.Debug("scope index built",
		zap.Int("blocks", len(idx.Blocks)),
		zap.Int("pages", len(idx.Pages)),
		zap.Int("upstream_errors", len(upstream)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := p.matcher.Match(idx)
	log.Debug("rule matching complete", zap.Int("candidates", len(candidates)))
	candidates = append(candidates, semanticCandidates...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var objs []model.RiskObject
	for _, c := range candidates {
		sev, err := p.mapper.Assign(c.RiskType)
		if err != nil {
			records = append(records, model.ErrorRecord{
				ErrorCode:  model.ErrCodeRegistry,
				ModuleName: model.ModuleName,
				Message:    err.Error(),
				Severity:   model.ErrSeverityError,
				Context:    map[string]string{"risk_type": string(c.RiskType)},
			})
			continue
		}
		objs = append(objs, model.RiskObject{
			RiskType:        c.RiskType,
			DetectionMethod: c.DetectionMethod,
			Severity:        sev,
			Evidence:        c.Evidence,
			Description:     c.Description,
			Rationale:       c.Rationale,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := guardrail.New(p.dict, idx)
	final, aggRecords, aggErr := agg.Aggregate(objs)
	records = append(records, aggRecords...)

	out := &model.FinalOutput{
		VersionMeta:   model.NewVersionMeta(),
		DictVersion:   p.dict.DictVersion,
		RunID:         runID,
		FinalRiskList: final,
		Errors:        records,
	}
	if aggErr != nil {
		log.Warn("run failed during aggregation", zap.Error(aggErr))
		return out, fmt.Errorf("aggregate: %w", aggErr)
	}

	log.Info("scan complete",
		zap.Int("risks", len(final)),
		zap.Int("errors", len(records)))
	return out, nil
}

// checkArtifactMeta reports missing version metadata. The run degrades with
// warn records rather than inventing values.
func checkArtifactMeta(a *model.Artifact) []model.ErrorRecord {
	var records []model.ErrorRecord
	warn := func(field string) {
		records = append(records, model.ErrorRecord{
			ErrorCode:  model.ErrCodeUpstream,
			ModuleName: model.ModuleName,
			Message:    "artifact missing required version field " + field,
			Severity:   model.ErrSeverityWarn,
		})
	}
	if a.SystemVersion == "" {
		warn("system_version")
	}
	if a.ModuleName == "" {
		warn("module_name")
	}
	if a.ModuleVersion == "" {
		warn("module_version")
	}
	if a.SpecVersion == "" {
		warn("spec_version")
	}
	if a.SchemaVersion == "" {
		warn("schema_version")
	}
	return records
}
