package model

// Line is a single OCR text line produced by the BlockExtractor collaborator
type Line struct {
	LineID     string  `json:"line_id"`               // Unique line identifier
	Text       string  `json:"text"`                  // Literal extracted text
	SourcePage int     `json:"source_page"`           // 1-based page number
	Confidence float64 `json:"confidence,omitempty"`  // OCR readability score (0-1)
}

// BlockType classifies the functional role of a label region
type BlockType string

const (
	BlockTitle        BlockType = "title"
	BlockClaimStrip   BlockType = "claim_strip"
	BlockIngredient   BlockType = "ingredient"
	BlockNutrition    BlockType = "nutrition"
	BlockStandard     BlockType = "standard"
	BlockLicense      BlockType = "license"
	BlockProducer     BlockType = "producer"
	BlockDateShelf    BlockType = "date_shelf_life"
	BlockStorage      BlockType = "storage"
	BlockWarning      BlockType = "warning"
	BlockBarcode      BlockType = "barcode"
	BlockOther        BlockType = "other"
)

// blockTypes is the closed set of valid block types
var blockTypes = map[BlockType]bool{
	BlockTitle: true, BlockClaimStrip: true, BlockIngredient: true,
	BlockNutrition: true, BlockStandard: true, BlockLicense: true,
	BlockProducer: true, BlockDateShelf: true, BlockStorage: true,
	BlockWarning: true, BlockBarcode: true, BlockOther: true,
}

// Valid reports whether t belongs to the closed block type set
func (t BlockType) Valid() bool {
	return blockTypes[t]
}

// BBox is a normalized bounding box in [0,1]² label coordinates
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Block is a grouped region of label text with a functional type.
// Its TextRaw is reconstructible by concatenating the referenced lines.
type Block struct {
	BlockID    string    `json:"block_id"`
	BlockType  BlockType `json:"block_type"`
	TextRaw    string    `json:"text_raw"`
	SourcePage int       `json:"source_page"`
	BBox       BBox      `json:"bbox"`
	LineIDs    []string  `json:"line_ids,omitempty"` // Lines this block was assembled from
}

// Artifact is the BlockExtractor output: the immutable input to a scan run
type Artifact struct {
	VersionMeta

	RawTextLines []Line  `json:"raw_text_lines"`
	Blocks       []Block `json:"blocks"`
}

// VersionMeta carries the version fields every pipeline artifact must declare
type VersionMeta struct {
	SystemVersion string `json:"system_version"`
	ModuleName    string `json:"module_name"`
	ModuleVersion string `json:"module_version"`
	SpecVersion   string `json:"spec_version"`
	SchemaVersion string `json:"schema_version"`
}
