package fingerprint

import "testing"

type fakeRulebase struct {
	exact    []Rule
	approx   []Rule
	families []string
}

func (f *fakeRulebase) ExactMatches(feat Feature) []Rule       { return f.exact }
func (f *fakeRulebase) ApproximateMatches(feat Feature) []Rule { return f.approx }
func (f *fakeRulebase) Families() []string                    { return f.families }

func TestGuessPrefersExactGeneralPurposeHighestGeneration(t *testing.T) {
	rb := &fakeRulebase{
		exact: []Rule{
			{Family: "Linux 4.x", DeviceType: "general purpose", Generation: 1},
			{Family: "Linux 5.x", DeviceType: "general purpose", Generation: 5},
			{Family: "Linux 6.x", DeviceType: "router", Generation: 9},
		},
		families: []string{"Linux 4.x", "Linux 5.x", "Linux 6.x"},
	}
	g := Guess(rb, Feature{WindowSize: 65160, TTLObserved: 64})
	if g.Family != "Linux 5.x" {
		t.Fatalf("want Linux 5.x, got %s", g.Family)
	}
	if g.Confidence != 0.9 {
		t.Fatalf("want exact confidence 0.9, got %v", g.Confidence)
	}
	found := false
	for _, fam := range rb.Families() {
		if fam == g.Family {
			found = true
		}
	}
	if !found {
		t.Fatal("exact match family must be a member of rulebase.Families()")
	}
}

func TestGuessFallsBackToApproximate(t *testing.T) {
	rb := &fakeRulebase{
		approx: []Rule{
			{Family: "BSD", Generation: 2},
			{Family: "BSD-newer", Generation: 7},
		},
	}
	g := Guess(rb, Feature{TTLObserved: 64})
	if g.Family != "BSD-newer" {
		t.Fatalf("want BSD-newer, got %s", g.Family)
	}
	if g.Confidence != 0.6 {
		t.Fatalf("want approximate confidence 0.6, got %v", g.Confidence)
	}
}

func TestGuessFallsBackToTTLClass(t *testing.T) {
	rb := &fakeRulebase{}
	g := Guess(rb, Feature{TTLObserved: 118})
	if g.Family != "Windows" {
		t.Fatalf("want Windows for TTL 118 (class 128), got %s", g.Family)
	}
	if g.InitialTTLClass != 128 {
		t.Fatalf("want class 128, got %d", g.InitialTTLClass)
	}
	if g.Confidence != 0.3 {
		t.Fatalf("want TTL-only confidence 0.3, got %v", g.Confidence)
	}
}

func TestInitialTTLClassRoundsUp(t *testing.T) {
	cases := map[int]int{1: 64, 64: 64, 65: 128, 128: 128, 200: 255, 255: 255}
	for observed, want := range cases {
		if got := InitialTTLClass(observed); got != want {
			t.Fatalf("InitialTTLClass(%d) = %d, want %d", observed, got, want)
		}
	}
}
