package prefix

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

var (
	// ErrFileNotFound is returned by Load when the input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidEncoding is returned by Load when the input is not valid UTF-8.
	// The analyzer does not repair malformed input.
	ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")
)

// TextBuffer is an immutable text read once from a file.
type TextBuffer struct {
	// Path is where the content was read from.
	Path string

	// Content is the full text.
	Content string

	// Length is the number of characters in Content.
	Length int
}

// NewTextBuffer wraps an in-memory string.
func NewTextBuffer(path, content string) TextBuffer {
	return TextBuffer{
		Path:    path,
		Content: content,
		Length:  utf8.RuneCountInString(content),
	}
}

// Load reads path into a TextBuffer.
func Load(path string) (TextBuffer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return TextBuffer{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return TextBuffer{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		return TextBuffer{}, fmt.Errorf("%w: %s", ErrInvalidEncoding, path)
	}

	return NewTextBuffer(path, string(data)), nil
}
