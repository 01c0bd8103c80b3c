// Package scope builds matchable text views over an extraction artifact.
//
// Three scope kinds exist: one global view, one per page, one per block.
// Every scope keeps offset ranges back to the owning block so any matched
// span can be traced to its origin for evidence binding and fidelity checks.
// Scopes index one canonical text store; normalized copies exist only for
// pattern testing.
package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
)

// Kind distinguishes the three scope levels
type Kind string

const (
	KindGlobal Kind = "global"
	KindPage   Kind = "page"
	KindBlock  Kind = "block"
)

// segment is a half-open offset range [Start,End) in a scope's canonical
// text owned by one block
type segment struct {
	Start   int
	End     int
	BlockID string
	Page    int
}

// Scope is one matchable text view
type Scope struct {
	Kind    Kind
	Page    int    // set for page scopes
	BlockID string // set for block scopes

	Raw  string // canonical text, evidence source of truth
	Norm string // normalized copy, pattern testing only

	segments []segment
}

// BlockAt resolves the block owning the given offset in Raw
func (s *Scope) BlockAt(offset int) (blockID string, page int, ok bool) {
	i := sort.Search(len(s.segments), func(i int) bool {
		return s.segments[i].End > offset
	})
	if i < len(s.segments) && offset >= s.segments[i].Start {
		return s.segments[i].BlockID, s.segments[i].Page, true
	}
	return "", 0, false
}

// Index holds all scopes plus lookup tables for evidence verification
type Index struct {
	Global *Scope
	Pages  []*Scope // ascending page order
	Blocks []*Scope // artifact input order

	blockText    map[string]string
	blockPage    map[string]int
	lineText     map[string]string
	blocksByType map[model.BlockType][]model.Block
	normCfg      dict.NormalizationConfig
}

// Build constructs the scope index from an artifact. Malformed entries are
// skipped and reported as upstream error records; text is never fabricated.
func Build(a *model.Artifact, normCfg dict.NormalizationConfig) (*Index, []model.ErrorRecord) {
	var errs []model.ErrorRecord
	warn := func(format string, args ...interface{}) {
		errs = append(errs, model.ErrorRecord{
			ErrorCode:  model.ErrCodeUpstream,
			ModuleName: model.ModuleName,
			Message:    fmt.Sprintf(format, args...),
			Severity:   model.ErrSeverityWarn,
		})
	}

	idx := &Index{
		blockText:    make(map[string]string),
		blockPage:    make(map[string]int),
		lineText:     make(map[string]string),
		blocksByType: make(map[model.BlockType][]model.Block),
		normCfg:      normCfg,
	}

	for _, ln := range a.RawTextLines {
		if ln.LineID == "" {
			warn("raw text line without line_id skipped")
			continue
		}
		if ln.SourcePage < 1 {
			warn("line %s has source_page %d, skipped", ln.LineID, ln.SourcePage)
			continue
		}
		idx.lineText[ln.LineID] = ln.Text
	}

	var blocks []model.Block
	for _, b := range a.Blocks {
		switch {
		case b.BlockID == "":
			warn("block without block_id skipped")
			continue
		case !b.BlockType.Valid():
			warn("block %s has unknown block_type %q, skipped", b.BlockID, b.BlockType)
			continue
		case b.SourcePage < 1:
			warn("block %s has source_page %d, skipped", b.BlockID, b.SourcePage)
			continue
		case !bboxInUnitSquare(b.BBox):
			warn("block %s has bbox outside [0,1]², skipped", b.BlockID)
			continue
		}
		if _, dup := idx.blockText[b.BlockID]; dup {
			warn("duplicate block_id %s, later occurrence skipped", b.BlockID)
			continue
		}
		blocks = append(blocks, b)
		idx.blockText[b.BlockID] = b.TextRaw
		idx.blockPage[b.BlockID] = b.SourcePage
		idx.blocksByType[b.BlockType] = append(idx.blocksByType[b.BlockType], b)
	}

	idx.Global = buildScope(KindGlobal, 0, "", blocks, normCfg)

	pageSet := map[int][]model.Block{}
	var pages []int
	for _, b := range blocks {
		if _, seen := pageSet[b.SourcePage]; !seen {
			pages = append(pages, b.SourcePage)
		}
		pageSet[b.SourcePage] = append(pageSet[b.SourcePage], b)
	}
	sort.Ints(pages)
	for _, p := range pages {
		s := buildScope(KindPage, p, "", pageSet[p], normCfg)
		idx.Pages = append(idx.Pages, s)
	}

	for _, b := range blocks {
		s := buildScope(KindBlock, b.SourcePage, b.BlockID, []model.Block{b}, normCfg)
		idx.Blocks = append(idx.Blocks, s)
	}

	return idx, errs
}

func buildScope(kind Kind, page int, blockID string, blocks []model.Block, normCfg dict.NormalizationConfig) *Scope {
	var sb strings.Builder
	var segs []segment
	for _, b := range blocks {
		if b.TextRaw == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		start := sb.Len()
		sb.WriteString(b.TextRaw)
		segs = append(segs, segment{Start: start, End: sb.Len(), BlockID: b.BlockID, Page: b.SourcePage})
	}
	raw := sb.String()
	return &Scope{
		Kind:     kind,
		Page:     page,
		BlockID:  blockID,
		Raw:      raw,
		Norm:     NormalizeForMatch(raw, normCfg),
		segments: segs,
	}
}

func bboxInUnitSquare(b model.BBox) bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(b.X) && in(b.Y) && in(b.W) && in(b.H) && in(b.X+b.W) && in(b.Y+b.H)
}

// Normalization returns the match-only normalization config in force
func (i *Index) Normalization() dict.NormalizationConfig {
	return i.normCfg
}

// BlockText returns the canonical text owned by a block id
func (i *Index) BlockText(blockID string) (string, bool) {
	t, ok := i.blockText[blockID]
	return t, ok
}

// BlockPage returns the source page of a block id (0 if unknown)
func (i *Index) BlockPage(blockID string) int {
	return i.blockPage[blockID]
}

// LineText returns the literal text of a raw line id
func (i *Index) LineText(lineID string) (string, bool) {
	t, ok := i.lineText[lineID]
	return t, ok
}

// LineTexts returns all line texts (fidelity checks fall back to lines)
func (i *Index) LineTexts() map[string]string {
	return i.lineText
}

// BlocksOfType returns the well-formed blocks of the given type, input order
func (i *Index) BlocksOfType(t model.BlockType) []model.Block {
	return i.blocksByType[t]
}

// HasBlockType reports whether at least one well-formed block of type t exists
func (i *Index) HasBlockType(t model.BlockType) bool {
	return len(i.blocksByType[t]) > 0
}
