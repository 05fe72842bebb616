package output

import "github.com/fatih/color"

// ColorScheme is the palette shared by the text and table formatters,
// adapted from the teacher's trace-only scheme to the port/host/ping
// states this repo renders.
type ColorScheme struct {
	Open    *color.Color
	Closed  *color.Color
	Filtered *color.Color
	Gateway *color.Color
	Hop     *color.Color
	Dest    *color.Color
	RTTLow  *color.Color
	RTTMed  *color.Color
	RTTHigh *color.Color
	Timeout *color.Color
	Header  *color.Color
}

// DefaultColorScheme returns the default palette.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Open:     color.New(color.FgGreen, color.Bold),
		Closed:   color.New(color.FgRed),
		Filtered: color.New(color.FgYellow),
		Gateway:  color.New(color.FgCyan, color.Bold),
		Hop:      color.New(color.FgCyan),
		Dest:     color.New(color.FgGreen, color.Bold),
		RTTLow:   color.New(color.FgGreen),
		RTTMed:   color.New(color.FgYellow),
		RTTHigh:  color.New(color.FgRed),
		Timeout:  color.New(color.FgRed, color.Bold),
		Header:   color.New(color.FgWhite, color.Bold),
	}
}

func (c *ColorScheme) forRTT(ms float64) *color.Color {
	switch {
	case ms < 50:
		return c.RTTLow
	case ms < 150:
		return c.RTTMed
	default:
		return c.RTTHigh
	}
}
