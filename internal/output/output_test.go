package output

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/poros-project/netreco/internal/model"
)

func sampleScanResult() *model.ScanResult {
	ep := model.NewEndpointResult(net.ParseIP("192.0.2.10"), "host.example")
	ep.SetPort(model.Port{Number: 22, Transport: model.TransportTCP}, model.StateOpen, 5*time.Millisecond)
	return &model.ScanResult{Endpoints: []*model.EndpointResult{ep}, ScanTime: time.Now()}
}

func TestJSONFormatterProducesStringEnums(t *testing.T) {
	data, err := jsonFormatter{}.FormatScan(sampleScanResult())
	if err != nil {
		t.Fatalf("FormatScan: %v", err)
	}
	if !strings.Contains(string(data), `"Open"`) {
		t.Fatalf("expected string-typed state enum in JSON: %s", data)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
}

func TestCSVFormatterRendersHeaderAndRow(t *testing.T) {
	data, err := csvFormatter{}.FormatScan(sampleScanResult())
	if err != nil {
		t.Fatalf("FormatScan: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header + 1 row, got %d lines: %q", len(lines), data)
	}
	if !strings.Contains(lines[1], "192.0.2.10") {
		t.Fatalf("expected row to contain the endpoint IP: %s", lines[1])
	}
}

func TestTextFormatterDoesNotPanicWithoutColors(t *testing.T) {
	f := textFormatter{cfg: Config{Colors: false}}
	if _, err := f.FormatScan(sampleScanResult()); err != nil {
		t.Fatalf("FormatScan: %v", err)
	}
}
