// Package output formats run results for the terminal, a file, or JSON,
// adapted from the teacher's writer/formatter split to the result types
// defined in internal/model (spec §6).
package output

import "github.com/poros-project/netreco/internal/model"

// Format selects the rendering applied to a result document.
type Format int

const (
	FormatText Format = iota
	FormatTable
	FormatJSON
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatTable:
		return "table"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "text"
	}
}

// Document is any of the four root result types the CLI can emit.
type Document interface {
	*model.ScanResult | *model.TraceResult | *model.PingResult | *model.NeighborDiscoveryResult
}

// Formatter renders one result document to bytes.
type Formatter interface {
	FormatScan(*model.ScanResult) ([]byte, error)
	FormatTrace(*model.TraceResult) ([]byte, error)
	FormatPing(*model.PingResult) ([]byte, error)
	FormatNeighbor(*model.NeighborDiscoveryResult) ([]byte, error)
	ContentType() string
}

// Config controls rendering details shared by all non-JSON formatters.
type Config struct {
	Colors     bool
	NoHostname bool
	Width      int
}

// DefaultConfig returns sensible rendering defaults.
func DefaultConfig() Config {
	return Config{Colors: true}
}

// NewFormatter selects a Formatter implementation for format.
func NewFormatter(format Format, cfg Config) Formatter {
	switch format {
	case FormatJSON:
		return jsonFormatter{}
	case FormatCSV:
		return csvFormatter{}
	case FormatTable:
		return tableFormatter{cfg: cfg}
	default:
		return textFormatter{cfg: cfg}
	}
}
