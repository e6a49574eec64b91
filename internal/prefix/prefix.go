package prefix

import (
	"strings"
	"unicode/utf8"
)

// Result is the common prefix of two texts.
type Result struct {
	// Prefix is the shared leading text, taken from the first input.
	Prefix string

	// Length is the prefix length in characters.
	Length int

	// Bytes is the prefix length in bytes.
	Bytes int
}

// CommonPrefix returns the longest common leading text of text1 and text2.
// The scan stops at the first differing character, so the work done is
// proportional to the prefix length and not to the input lengths.
func CommonPrefix(text1, text2 string) Result {
	var i, n int
	for i < len(text1) && i < len(text2) {
		_, w1 := utf8.DecodeRuneInString(text1[i:])
		_, w2 := utf8.DecodeRuneInString(text2[i:])
		if w1 != w2 || text1[i:i+w1] != text2[i:i+w2] {
			break
		}
		i += w1
		n++
	}

	return Result{
		Prefix: text1[:i],
		Length: n,
		Bytes:  i,
	}
}

// CommonPrefixUntilMarker returns the common prefix of the text preceding
// the first occurrence of marker in each input. The two marker positions
// are independent. If marker is empty or missing from either input, the
// full texts are compared instead.
func CommonPrefixUntilMarker(text1, text2, marker string) Result {
	if marker == "" {
		return CommonPrefix(text1, text2)
	}

	pos1 := strings.Index(text1, marker)
	pos2 := strings.Index(text2, marker)
	if pos1 == -1 || pos2 == -1 {
		return CommonPrefix(text1, text2)
	}

	return CommonPrefix(text1[:pos1], text2[:pos2])
}

// Compare dispatches to CommonPrefixUntilMarker when marker is set and to
// CommonPrefix otherwise.
func Compare(buf1, buf2 TextBuffer, marker string) Result {
	if marker != "" {
		return CommonPrefixUntilMarker(buf1.Content, buf2.Content, marker)
	}
	return CommonPrefix(buf1.Content, buf2.Content)
}
