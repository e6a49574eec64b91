package model

// AnalysisReport is the presentation data derived from one prefix analysis.
// It is built once per run by prefix.BuildReport and never mutated afterward.
type AnalysisReport struct {
	// File1 and File2 are the compared inputs.
	File1 FileStat `json:"file1"`
	File2 FileStat `json:"file2"`

	// Marker is the truncation marker used for the comparison.
	// Empty means the whole buffers were compared.
	Marker string `json:"marker,omitempty"`

	// PrefixLength is the common prefix length in characters.
	PrefixLength int `json:"prefix_length"`

	// PrefixBytes is the common prefix length in bytes.
	PrefixBytes int `json:"prefix_bytes"`

	// File1Percent and File2Percent are the shares of each file covered by
	// the common prefix. They are 0 for empty files.
	File1Percent float64 `json:"file1_percent"`
	File2Percent float64 `json:"file2_percent"`

	// Preview holds the first PreviewLimit characters of the prefix.
	Preview string `json:"preview"`

	// PreviewLimit is the preview size the report was built with.
	PreviewLimit int `json:"preview_limit"`

	// PreviewElided is the number of prefix characters left out of Preview.
	PreviewElided int `json:"preview_elided"`

	// Divergence is set when the prefix stops before the end of the
	// shorter file.
	Divergence *Divergence `json:"divergence,omitempty"`

	// SystemSection is set when both files carry a system/user section pair.
	SystemSection *SectionOverlap `json:"system_section,omitempty"`
}

// FileStat describes one compared file.
type FileStat struct {
	// Path is the file path as given on the command line.
	Path string `json:"path"`

	// Size is the length in characters.
	Size int `json:"size"`

	// Bytes is the length in bytes.
	Bytes int `json:"bytes"`

	// Remaining is the number of characters after the common prefix.
	Remaining int `json:"remaining"`
}

// Divergence describes the first point where the two files differ.
type Divergence struct {
	// Position is the character index of the first difference.
	Position int `json:"position"`

	// ContextSize is the number of characters taken on each side.
	ContextSize int `json:"context_size"`

	// Context1 and Context2 are the windows around Position in each file,
	// clamped to the file bounds.
	Context1 string `json:"context1"`
	Context2 string `json:"context2"`
}

// SectionOverlap compares the leading sections of two structured prompts,
// each ending at its own end marker.
type SectionOverlap struct {
	// Identical is true when both sections are byte for byte equal.
	Identical bool `json:"identical"`

	// CommonPrefixLength is the shared length in characters. It equals
	// the section length when Identical is true.
	CommonPrefixLength int `json:"common_prefix_length"`

	// Section1Length and Section2Length are the section lengths in characters.
	Section1Length int `json:"section1_length"`
	Section2Length int `json:"section2_length"`
}

// MinSize returns the size of the shorter file.
func (r *AnalysisReport) MinSize() int {
	return min(r.File1.Size, r.File2.Size)
}

// HasDivergence reports whether the files differ before the end of the
// shorter one.
func (r *AnalysisReport) HasDivergence() bool {
	return r.Divergence != nil
}
