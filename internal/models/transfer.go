package models

// ImportMode selects whether an import keeps existing tools.
type ImportMode string

const (
	ImportAppend  ImportMode = "append"
	ImportReplace ImportMode = "replace"
)

// ToolExport is the portable JSON form of a tool. Timestamps are ISO-8601.
type ToolExport struct {
	ID            string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string  `json:"name" yaml:"name"`
	Category      string  `json:"category" yaml:"category"`
	URL           string  `json:"url" yaml:"url"`
	Description   string  `json:"description" yaml:"description"`
	Memo          string  `json:"memo,omitempty" yaml:"memo,omitempty"`
	Plan          Plan    `json:"plan,omitempty" yaml:"plan,omitempty"`
	AverageRating float64 `json:"averageRating" yaml:"averageRating,omitempty"`
	RatingCount   int     `json:"ratingCount" yaml:"ratingCount,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

type InvalidImportEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	Mode     ImportMode           `json:"mode"`
	Valid    int                  `json:"valid"`
	Invalid  []InvalidImportEntry `json:"invalid"`
	Inserted int                  `json:"inserted"`
	Deleted  int                  `json:"deleted"`
}
