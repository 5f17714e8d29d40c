package ui

import (
	"strconv"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// NumericalEntry is an Entry restricted to non-negative integers.
// Settings such as the refresh interval, port, window and limit use it.
type NumericalEntry struct {
	widget.Entry
}

// NewNumericalEntry creates a new instance of NumericalEntry.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedRune drops everything but the digits 0-9.
// Pasted text bypasses this filter, so readers go through IntOr or a Validator.
func (e *NumericalEntry) TypedRune(r rune) {
	if r >= '0' && r <= '9' {
		e.Entry.TypedRune(r)
	}
}

// Keyboard shows a numeric keypad on mobile devices.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}

// SetInt displays v.
func (e *NumericalEntry) SetInt(v int) {
	e.SetText(strconv.Itoa(v))
}

// IntOr parses the entry, returning def when it is empty, invalid or negative.
func (e *NumericalEntry) IntOr(def int) int {
	v, err := strconv.Atoi(e.Text)
	if err != nil || v < 0 {
		return def
	}
	return v
}
