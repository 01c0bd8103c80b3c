package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labelguard/labelguard/internal/model"
)

// mockScanner implements Scanner
type mockScanner struct {
	ShouldError bool
}

func (m *mockScanner) Run(ctx context.Context, artifact *model.Artifact, semantic []model.RiskCandidate) (*model.FinalOutput, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("scan error")
	}
	return &model.FinalOutput{
		VersionMeta: model.NewVersionMeta(),
		RunID:       "test-run",
	}, nil
}

func writeArtifactFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := `{"system_version":"v1","module_name":"BlockExtractor","module_version":"v1",` +
		`"spec_version":"v1","schema_version":"draft-2020-12","raw_text_lines":[],"blocks":[]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeArtifactFile(t, dir, "a.json"),
		writeArtifactFile(t, dir, "b.json"),
		writeArtifactFile(t, dir, "c.json"),
	}

	processor := NewBatchProcessor(&mockScanner{}, 2)
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results must come back in input order regardless of scheduling.
	for i, res := range results {
		if res.Index != i {
			t.Errorf("expected index %d at position %d, got %d", i, i, res.Index)
		}
		if res.Path != paths[i] {
			t.Errorf("expected path %s at position %d, got %s", paths[i], i, res.Path)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Output == nil {
			t.Errorf("expected output for %s", res.Path)
		}
	}
}

func TestBatchProcessor_ProcessPaths_ScanError(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeArtifactFile(t, dir, "a.json")}

	processor := NewBatchProcessor(&mockScanner{ShouldError: true}, 2)
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
}

func TestBatchProcessor_ProcessPaths_UnreadableFile(t *testing.T) {
	processor := NewBatchProcessor(&mockScanner{}, 2)
	results := processor.ProcessPaths(context.Background(), []string{"no_such_artifact.json"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error for unreadable file, got nil")
	}
	if results[0].Output != nil {
		t.Error("expected nil output for unreadable file")
	}
}

func TestBatchProcessor_ProcessPaths_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&mockScanner{}, 2)
	results := processor.ProcessPaths(context.Background(), []string{path})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockScanner{}, 2)
	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := `artifacts/a.json
# comment
artifacts/b.json

artifacts/c.json   `

	tmpfile, err := os.CreateTemp("", "paths")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"artifacts/a.json", "artifacts/b.json", "artifacts/c.json"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected path %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestReadPathsFromFile_Deduplication(t *testing.T) {
	content := "artifacts/a.json\nartifacts/a.json\n"

	tmpfile, err := os.CreateTemp("", "paths_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected 1 path after deduplication, got %d", len(paths))
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	_, err := ReadPathsFromFile("no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	a := writeArtifactFile(t, dir, "a.json")
	b := writeArtifactFile(t, dir, "b.json")

	listFile := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(listFile, []byte(a+"\n# comment\n"+b+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&mockScanner{}, 2)
	results, err := processor.ProcessFile(context.Background(), listFile)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestScanResult_GetError(t *testing.T) {
	r1 := &ScanResult{Path: "a.json", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("scan failed")
	r2 := &ScanResult{Path: "a.json", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
