package prefix

import (
	"strings"
	"unicode/utf8"

	"github.com/nao1215/prefixdiff/internal/model"
)

// Default ChatML markers delimiting the system and user sections.
const (
	DefaultSystemMarker = "<|im_start|>system"
	DefaultUserMarker   = "<|im_start|>user"
)

// DetectStructuredOverlap compares the leading sections of two structured
// prompts. It applies only when startMarker and endMarker both occur in both
// texts; otherwise ok is false. Each section runs from the start of its text
// up to its own first endMarker.
func DetectStructuredOverlap(text1, text2, startMarker, endMarker string) (model.SectionOverlap, bool) {
	if startMarker == "" || endMarker == "" {
		return model.SectionOverlap{}, false
	}
	if !strings.Contains(text1, startMarker) || !strings.Contains(text2, startMarker) {
		return model.SectionOverlap{}, false
	}

	end1 := strings.Index(text1, endMarker)
	end2 := strings.Index(text2, endMarker)
	if end1 == -1 || end2 == -1 {
		return model.SectionOverlap{}, false
	}

	section1 := text1[:end1]
	section2 := text2[:end2]
	len1 := utf8.RuneCountInString(section1)
	len2 := utf8.RuneCountInString(section2)

	if section1 == section2 {
		return model.SectionOverlap{
			Identical:          true,
			CommonPrefixLength: len1,
			Section1Length:     len1,
			Section2Length:     len2,
		}, true
	}

	return model.SectionOverlap{
		Identical:          false,
		CommonPrefixLength: CommonPrefix(section1, section2).Length,
		Section1Length:     len1,
		Section2Length:     len2,
	}, true
}
