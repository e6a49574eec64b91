package prompt

import (
	"fmt"
	"strings"
)

// Default section markers. The system block ends with a literal backslash
// sequence, not with newlines: the prompt files store "\n" escaped.
const (
	DefaultSystemEnd      = `explain exactly why.\n\n`
	DefaultRequirement    = "Requirement Document:"
	DefaultDeviceOutput   = "Device Output:"
	DefaultExpectedOutput = "Expected Output Format:"
)

// Markers are the literal strings that locate the sections of a prompt.
type Markers struct {
	// SystemEnd terminates the system block and is part of it.
	SystemEnd string

	// Requirement, DeviceOutput and ExpectedOutput start their sections
	// and are kept in the section text.
	Requirement    string
	DeviceOutput   string
	ExpectedOutput string
}

// DefaultMarkers returns the markers used by the device-analysis prompts.
func DefaultMarkers() Markers {
	return Markers{
		SystemEnd:      DefaultSystemEnd,
		Requirement:    DefaultRequirement,
		DeviceOutput:   DefaultDeviceOutput,
		ExpectedOutput: DefaultExpectedOutput,
	}
}

// WithDefaults fills empty markers from DefaultMarkers.
func (m Markers) WithDefaults() Markers {
	d := DefaultMarkers()
	if m.SystemEnd == "" {
		m.SystemEnd = d.SystemEnd
	}
	if m.Requirement == "" {
		m.Requirement = d.Requirement
	}
	if m.DeviceOutput == "" {
		m.DeviceOutput = d.DeviceOutput
	}
	if m.ExpectedOutput == "" {
		m.ExpectedOutput = d.ExpectedOutput
	}
	return m
}

// Sections are the trimmed parts of a raw prompt.
type Sections struct {
	System         string
	Requirement    string
	DeviceOutput   string
	ExpectedOutput string // empty when the prompt has none
}

// Split locates the sections of content using the first occurrence of each
// marker. The system block runs from the start through SystemEnd. The
// requirement document runs up to the device output, which runs up to the
// expected output format or the end of the text.
func Split(content string, m Markers) (Sections, error) {
	m = m.WithDefaults()

	systemEnd := strings.Index(content, m.SystemEnd)
	reqStart := strings.Index(content, m.Requirement)
	devStart := strings.Index(content, m.DeviceOutput)
	expStart := strings.Index(content, m.ExpectedOutput)

	var missing []string
	if systemEnd == -1 {
		missing = append(missing, "system prompt")
	}
	if reqStart == -1 {
		missing = append(missing, m.Requirement)
	}
	if devStart == -1 {
		missing = append(missing, m.DeviceOutput)
	}
	if len(missing) > 0 {
		return Sections{}, fmt.Errorf("%w: %s", ErrMissingSection, strings.Join(missing, ", "))
	}

	if reqStart > devStart {
		return Sections{}, fmt.Errorf("%w: %q after %q", ErrSectionOrder, m.Requirement, m.DeviceOutput)
	}
	if expStart != -1 && expStart < devStart {
		return Sections{}, fmt.Errorf("%w: %q before %q", ErrSectionOrder, m.ExpectedOutput, m.DeviceOutput)
	}

	devEnd := len(content)
	if expStart != -1 {
		devEnd = expStart
	}

	s := Sections{
		System:       strings.TrimSpace(content[:systemEnd+len(m.SystemEnd)]),
		Requirement:  strings.TrimSpace(content[reqStart:devStart]),
		DeviceOutput: strings.TrimSpace(content[devStart:devEnd]),
	}
	if expStart != -1 {
		s.ExpectedOutput = strings.TrimSpace(content[expStart:])
	}

	return s, nil
}
