package output

import (
	"bytes"
	"encoding/json"

	"github.com/poros-project/netreco/internal/model"
)

type jsonFormatter struct{}

func (jsonFormatter) ContentType() string { return "application/json" }

func (jsonFormatter) FormatScan(r *model.ScanResult) ([]byte, error)  { return prettyJSON(r) }
func (jsonFormatter) FormatTrace(r *model.TraceResult) ([]byte, error) { return prettyJSON(r) }
func (jsonFormatter) FormatPing(r *model.PingResult) ([]byte, error)  { return prettyJSON(r) }
func (jsonFormatter) FormatNeighbor(r *model.NeighborDiscoveryResult) ([]byte, error) {
	return prettyJSON(r)
}

// prettyJSON renders v with two-space indentation (spec §6: "emitted as
// pretty JSON"). time.Time marshals to RFC-3339 by its standard
// MarshalJSON; model's enum types marshal to their string form.
func prettyJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
