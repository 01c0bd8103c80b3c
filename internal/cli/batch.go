package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/pipeline"
	"github.com/labelguard/labelguard/internal/rules"
	"github.com/labelguard/labelguard/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scan multiple artifacts from a path list in parallel",
	Long: `Batch processes multiple extraction artifacts concurrently:
- Read artifact paths from the input file (one per line)
- Validate the dictionary once and share it across all scans
- Scan artifacts in parallel with a configurable worker count
- Write one risk list per artifact, named after the input file

Results are reported in input order regardless of scheduling.

Example:
  labelguard batch artifacts.txt
  labelguard batch artifacts.txt --concurrency 8 --output-dir ./risk-reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./labelguard-reports", "output directory for risk lists")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&dictPath, "dict", "", "rule dictionary YAML (default from config)")
	batchCmd.Flags().BoolVar(&compactJSON, "compact", false, "emit compact JSON instead of indented")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := resolveConfig()
	if dictPath == "" {
		dictPath = cfg.Dictionary.Path
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.BatchWorkers
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	store := dict.NewStore(rules.Requirements(), time.Duration(cfg.Dictionary.CacheTTL)*time.Second)
	d, err := store.Acquire(dictPath)
	if err != nil {
		return eris.Wrap(err, "load dictionary")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return eris.Wrap(err, "create output directory")
	}

	p := pipeline.New(d, logger)
	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return eris.Wrap(err, "batch")
	}

	failed := 0
	for _, res := range results {
		if res.Error != nil && res.Output == nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, res.Error)
			continue
		}

		outPath := filepath.Join(outputDir, reportName(res.Path))
		if werr := writeOutput(res.Output, outPath, compactJSON); werr != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, werr)
			continue
		}
		if res.Error != nil {
			// Output was written but the run is marked failed.
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, res.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%d risks)\n", res.Path, outPath, len(res.Output.FinalRiskList))
	}

	fmt.Fprintf(os.Stderr, "\nProcessed %d artifacts, %d failed\n", len(results), failed)
	if failed > 0 {
		return eris.Errorf("%d of %d artifacts failed", failed, len(results))
	}
	return nil
}

// reportName derives the output file name from the artifact path
func reportName(artifactPath string) string {
	base := filepath.Base(artifactPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".risks.json"
}
