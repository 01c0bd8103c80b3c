package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/labelguard/labelguard/internal/model"
)

// Scanner scans one extraction artifact into a final output
type Scanner interface {
	Run(ctx context.Context, artifact *model.Artifact, semantic []model.RiskCandidate) (*model.FinalOutput, error)
}

// ScanJob scans one artifact file
type ScanJob struct {
	Index   int // position in the input list, restored after pooling
	Path    string
	Scanner Scanner
}

// Execute reads, parses and scans the artifact file
func (j *ScanJob) Execute(ctx context.Context) Result {
	res := &ScanResult{Index: j.Index, Path: j.Path}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		res.Error = fmt.Errorf("read artifact: %w", err)
		return res
	}
	var artifact model.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		res.Error = fmt.Errorf("parse artifact: %w", err)
		return res
	}

	out, err := j.Scanner.Run(ctx, &artifact, nil)
	res.Output = out
	res.Error = err
	return res
}

// ScanResult is the outcome of one artifact scan
type ScanResult struct {
	Index  int
	Path   string
	Output *model.FinalOutput
	Error  error
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many artifact files concurrently against one shared
// validated dictionary. Results come back in input order so batch output is
// reproducible regardless of scheduling.
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
}

// ProcessPaths scans the given artifact files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ScanResult {
	if len(paths) == 0 {
		return []*ScanResult{}
	}

	pool := NewSizedPool(b.concurrency, len(paths))
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for i, path := range paths {
		pool.Submit(&ScanJob{Index: i, Path: path, Scanner: b.scanner})
	}

	results := pool.Wait()
	close(done)

	scanResults := make([]*ScanResult, 0, len(results))
	for _, result := range results {
		scanResults = append(scanResults, result.(*ScanResult))
	}
	sort.Slice(scanResults, func(i, j int) bool {
		return scanResults[i].Index < scanResults[j].Index
	})
	return scanResults
}

// ProcessFile reads artifact paths from a list file and scans them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*ScanResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads artifact paths from a file (one per line).
// Blank lines and #-comments are skipped; duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
