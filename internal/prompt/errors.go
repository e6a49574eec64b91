package prompt

import "errors"

var (
	// ErrMissingSection is returned when the system, requirement or device
	// output marker is absent.
	ErrMissingSection = errors.New("missing required section")

	// ErrSectionOrder is returned when the section markers are not in
	// requirement, device output, expected output order.
	ErrSectionOrder = errors.New("sections out of order")

	// ErrUnknownLayout is returned for a layout name other than reorder or chatml.
	ErrUnknownLayout = errors.New("unknown layout")
)
