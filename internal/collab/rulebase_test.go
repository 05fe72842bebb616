package collab

import (
	"net"
	"testing"

	"github.com/poros-project/netreco/internal/fingerprint"
)

func TestRulebaseExactMatchIsMemberOfFamilies(t *testing.T) {
	rb := NewRulebase()
	matches := rb.ExactMatches(fingerprint.Feature{WindowSize: 65160, OptionPattern: "mss-sack-ts-nop-ws"})
	if len(matches) == 0 {
		t.Fatal("expected an exact match for the bundled Linux rule")
	}
	found := false
	for _, fam := range rb.Families() {
		if fam == matches[0].Family {
			found = true
		}
	}
	if !found {
		t.Fatalf("match family %q missing from Families()", matches[0].Family)
	}
}

func TestRulebaseVendorLooksUpOUI(t *testing.T) {
	rb := NewRulebase()
	mac := net.HardwareAddr{0xDC, 0xA6, 0x32, 0x11, 0x22, 0x33}
	vendor, ok := rb.Vendor(mac)
	if !ok || vendor != "Raspberry Pi Foundation" {
		t.Fatalf("want Raspberry Pi Foundation, got %q ok=%v", vendor, ok)
	}
}

func TestRulebaseServiceLookup(t *testing.T) {
	rb := NewRulebase()
	if s, ok := rb.Service(443); !ok || s != "https" {
		t.Fatalf("want https, got %q ok=%v", s, ok)
	}
	if _, ok := rb.Service(65000); ok {
		t.Fatal("expected no service for an arbitrary high port")
	}
}
