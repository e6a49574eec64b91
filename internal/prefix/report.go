package prefix

import (
	"unicode/utf8"

	"github.com/nao1215/prefixdiff/internal/model"
)

// Default report bounds.
const (
	DefaultPreviewLimit = 500
	DefaultContextSize  = 100
)

// ReportOptions bounds the preview and divergence context of a report.
type ReportOptions struct {
	// PreviewLimit is the maximum number of prefix characters shown.
	PreviewLimit int

	// ContextSize is the number of characters shown on each side of the
	// first difference.
	ContextSize int

	// Marker bounds the comparison and is recorded in the report.
	Marker string

	// SystemMarker and UserMarker delimit the section compared by Analyze.
	// Either one empty skips the section comparison.
	SystemMarker string
	UserMarker   string
}

// DefaultReportOptions returns the default preview and context sizes.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		PreviewLimit: DefaultPreviewLimit,
		ContextSize:  DefaultContextSize,
		SystemMarker: DefaultSystemMarker,
		UserMarker:   DefaultUserMarker,
	}
}

// Analyze compares two buffers and builds the full report, including the
// system section comparison when both markers are found in both buffers.
func Analyze(buf1, buf2 TextBuffer, opts ReportOptions) *model.AnalysisReport {
	result := Compare(buf1, buf2, opts.Marker)
	report := BuildReport(buf1, buf2, result, opts)

	if overlap, ok := DetectStructuredOverlap(buf1.Content, buf2.Content, opts.SystemMarker, opts.UserMarker); ok {
		report.SystemSection = &overlap
	}

	return report
}

// BuildReport derives the presentation data for a comparison result.
// Negative limits are treated as zero.
func BuildReport(buf1, buf2 TextBuffer, result Result, opts ReportOptions) *model.AnalysisReport {
	previewLimit := max(opts.PreviewLimit, 0)
	contextSize := max(opts.ContextSize, 0)

	preview := headRunes(result.Prefix, previewLimit)
	elided := max(result.Length-previewLimit, 0)

	report := &model.AnalysisReport{
		File1: model.FileStat{
			Path:      buf1.Path,
			Size:      buf1.Length,
			Bytes:     len(buf1.Content),
			Remaining: buf1.Length - result.Length,
		},
		File2: model.FileStat{
			Path:      buf2.Path,
			Size:      buf2.Length,
			Bytes:     len(buf2.Content),
			Remaining: buf2.Length - result.Length,
		},
		Marker:        opts.Marker,
		PrefixLength:  result.Length,
		PrefixBytes:   result.Bytes,
		File1Percent:  percent(result.Length, buf1.Length),
		File2Percent:  percent(result.Length, buf2.Length),
		Preview:       preview,
		PreviewLimit:  previewLimit,
		PreviewElided: elided,
	}

	if result.Length < min(buf1.Length, buf2.Length) {
		report.Divergence = &model.Divergence{
			Position:    result.Length,
			ContextSize: contextSize,
			Context1:    window(buf1.Content, result.Bytes, contextSize),
			Context2:    window(buf2.Content, result.Bytes, contextSize),
		}
	}

	return report
}

// percent returns part/whole*100, or 0 for an empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// headRunes returns the first n characters of s.
func headRunes(s string, n int) string {
	i := 0
	for count := 0; count < n && i < len(s); count++ {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s[:i]
}

// window returns up to size characters before and after the byte offset at
// in s, clamped to the bounds of s.
func window(s string, at, size int) string {
	start := at
	for count := 0; count < size && start > 0; count++ {
		_, w := utf8.DecodeLastRuneInString(s[:start])
		start -= w
	}

	end := at
	for count := 0; count < size && end < len(s); count++ {
		_, w := utf8.DecodeRuneInString(s[end:])
		end += w
	}

	return s[start:end]
}
