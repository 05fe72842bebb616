package capture

import (
	"net"
	"testing"

	"github.com/poros-project/netreco/internal/model"
)

func TestBuildBPFExpressionCombinesProtoAndHost(t *testing.T) {
	filter := model.CaptureFilter{
		EtherTypes: []uint16{0x0800},
		SrcIPs:     []net.IP{net.ParseIP("192.0.2.1")},
	}
	expr := BuildBPFExpression(filter)
	if expr == "" {
		t.Fatal("expected non-empty BPF expression")
	}
	if want := "(ip)"; !contains(expr, want) {
		t.Fatalf("expected %q in %q", want, expr)
	}
	if want := "192.0.2.1"; !contains(expr, want) {
		t.Fatalf("expected %q in %q", want, expr)
	}
}

func TestBuildBPFExpressionEmptyFilterIsEmptyExpression(t *testing.T) {
	if got := BuildBPFExpression(model.CaptureFilter{}); got != "" {
		t.Fatalf("expected empty expression, got %q", got)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
