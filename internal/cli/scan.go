package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/pipeline"
	"github.com/labelguard/labelguard/internal/rules"
	"github.com/labelguard/labelguard/internal/semantic"
)

var (
	dictPath     string
	outJSON      string
	semanticFile string
	llmEnabled   bool
	llmModel     string
	compactJSON  bool
	scanTimeout  time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <artifact.json>",
	Short: "Scan one extraction artifact and emit the final risk list",
	Long: `Scan runs the deterministic risk core over one BlockExtractor artifact:
- Build global/page/block text scopes with evidence back-references
- Evaluate the rule groups: missing, format, relationship
- Assign severities from the dictionary
- Validate, fingerprint, deduplicate and assemble the final risk list

Semantic candidates from the LLM collaborator can be merged in, either from
a pre-computed file (--semantic) or by calling the provider (--llm).

Example:
  labelguard scan artifact.json --dict dicts/patterns_v1.yaml
  labelguard scan artifact.json --semantic semantic_risks.json -o risks.json
  labelguard scan artifact.json --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&dictPath, "dict", "", "rule dictionary YAML (default from config)")
	scanCmd.Flags().StringVarP(&outJSON, "out", "o", "", "output JSON path (default stdout)")
	scanCmd.Flags().StringVar(&semanticFile, "semantic", "", "pre-computed semantic candidate JSON to merge")
	scanCmd.Flags().BoolVar(&compactJSON, "compact", false, "emit compact JSON instead of indented")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", time.Minute, "overall scan timeout")

	// LLM collaborator flags
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "call the semantic risk detector provider")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	cfg := resolveConfig()
	if dictPath == "" {
		dictPath = cfg.Dictionary.Path
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	d, err := dict.Load(dictPath, rules.Requirements())
	if err != nil {
		return eris.Wrap(err, "load dictionary")
	}

	artifact, err := readArtifact(args[0])
	if err != nil {
		return err
	}

	semCandidates, err := loadSemanticCandidates(ctx, cfg, artifact)
	if err != nil {
		return err
	}

	p := pipeline.New(d, logger)
	out, runErr := p.Run(ctx, artifact, semCandidates)
	if out != nil {
		if werr := writeOutput(out, outJSON, compactJSON || !cfg.Output.Pretty); werr != nil {
			return werr
		}
	}
	if runErr != nil {
		return eris.Wrap(runErr, "scan failed")
	}
	return nil
}

func readArtifact(path string) (*model.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read artifact")
	}
	var artifact model.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, eris.Wrap(err, "parse artifact")
	}
	return &artifact, nil
}

// loadSemanticCandidates resolves the semantic candidate stream: a
// pre-computed file, a live provider call, or nothing.
func loadSemanticCandidates(ctx context.Context, cfg *model.Config, artifact *model.Artifact) ([]model.RiskCandidate, error) {
	if semanticFile != "" {
		data, err := os.ReadFile(semanticFile)
		if err != nil {
			return nil, eris.Wrap(err, "read semantic candidates")
		}
		candidates, records, err := semantic.ParseCandidates(data)
		if err != nil {
			return nil, eris.Wrap(err, "parse semantic candidates")
		}
		for _, r := range records {
			fmt.Fprintf(os.Stderr, "warning: %s\n", r.Message)
		}
		return candidates, nil
	}

	if !llmEnabled {
		return nil, nil
	}

	semCfg := cfg.Semantic
	semCfg.Model = llmModel
	if semCfg.APIKey == "" {
		semCfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if semCfg.APIKey == "" {
		return nil, eris.New("OPENAI_API_KEY environment variable not set")
	}

	detector, err := semantic.NewOpenAIDetector(semCfg)
	if err != nil {
		return nil, err
	}
	candidates, records, err := detector.Detect(ctx, artifact)
	if err != nil {
		return nil, eris.Wrap(err, "semantic detection")
	}
	for _, r := range records {
		fmt.Fprintf(os.Stderr, "warning: %s\n", r.Message)
	}
	return candidates, nil
}

func writeOutput(out *model.FinalOutput, path string, compact bool) error {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write output")
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s (%d risks, %d errors)\n", path, len(out.FinalRiskList), len(out.Errors))
	}
	return nil
}
