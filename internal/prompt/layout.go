package prompt

import (
	"fmt"
	"strings"
)

// Layout selects how sections are reassembled.
type Layout string

const (
	// LayoutReorder puts the expected output format right after the system
	// block, separated by blank lines.
	LayoutReorder Layout = "reorder"

	// LayoutChatML places everything but the device output in the system
	// turn of a ChatML conversation.
	LayoutChatML Layout = "chatml"
)

// Layouts lists the supported layouts.
func Layouts() []Layout {
	return []Layout{LayoutReorder, LayoutChatML}
}

// ParseLayout returns the layout named s.
func ParseLayout(s string) (Layout, error) {
	for _, l := range Layouts() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want reorder or chatml)", ErrUnknownLayout, s)
}

// Render assembles the sections in the given layout.
func Render(s Sections, layout Layout) (string, error) {
	switch layout {
	case LayoutReorder:
		parts := []string{s.System}
		if s.ExpectedOutput != "" {
			parts = append(parts, s.ExpectedOutput)
		}
		parts = append(parts, s.Requirement, s.DeviceOutput)
		return strings.Join(parts, "\n\n"), nil
	case LayoutChatML:
		return "<|im_start|>system<|im_sep|>\n" +
			s.System + "\n" +
			s.Requirement + "\n" +
			s.ExpectedOutput + "\n" +
			"<|im_end|>\n" +
			"<|im_start|>user<|im_sep|>\n" +
			s.DeviceOutput + "<|im_end|>\n" +
			"<|im_start|>assistant<|im_sep|>", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}
}

// Restructure splits content and renders it in the given layout.
func Restructure(content string, m Markers, layout Layout) (string, error) {
	s, err := Split(content, m)
	if err != nil {
		return "", err
	}
	return Render(s, layout)
}
