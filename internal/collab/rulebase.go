package collab

import (
	"fmt"
	"net"
	"strings"

	"github.com/poros-project/netreco/internal/fingerprint"
)

// Rulebase bundles the read-only lookup tables named in spec §6: OS
// fingerprint rules, OUI vendor map, port→service table, and a
// subdomain wordlist.
type Rulebase struct {
	rules    []fingerprint.Rule
	families []string
	oui      map[string]string // first 3 octets, colon-joined uppercase hex -> vendor
	services map[int]string    // well-known port -> service name
	wordlist []string
}

// NewRulebase seeds a Rulebase with the built-in tables. There is no
// loader for rulebase files; the built-in tables are the only source.
func NewRulebase() *Rulebase {
	rb := &Rulebase{
		oui:      defaultOUI(),
		services: defaultServices(),
		wordlist: defaultWordlist(),
	}
	rb.rules, rb.families = defaultOSRules()
	return rb
}

// ExactMatches implements fingerprint.Rulebase.
func (rb *Rulebase) ExactMatches(f fingerprint.Feature) []fingerprint.Rule {
	var out []fingerprint.Rule
	for _, r := range rb.rules {
		if r.WindowSize == f.WindowSize && r.OptionPattern == f.OptionPattern {
			out = append(out, r)
		}
	}
	return out
}

// ApproximateMatches implements fingerprint.Rulebase.
func (rb *Rulebase) ApproximateMatches(f fingerprint.Feature) []fingerprint.Rule {
	var out []fingerprint.Rule
	for _, r := range rb.rules {
		if !strings.HasPrefix(f.OptionPattern, firstOptions(r.OptionPattern)) &&
			!strings.HasPrefix(r.OptionPattern, firstOptions(f.OptionPattern)) {
			continue
		}
		if abs(r.WindowSize-f.WindowSize) <= 1000 {
			out = append(out, r)
		}
	}
	return out
}

// Families implements fingerprint.Rulebase.
func (rb *Rulebase) Families() []string { return rb.families }

// Vendor resolves a MAC's OUI (first three octets) to a vendor name,
// implementing the neighbor package's VendorLookup collaborator.
func (rb *Rulebase) Vendor(mac net.HardwareAddr) (string, bool) {
	if len(mac) < 3 {
		return "", false
	}
	prefix := strings.ToUpper(fmt.Sprintf("%02X:%02X:%02X", mac[0], mac[1], mac[2]))
	v, ok := rb.oui[prefix]
	return v, ok
}

// Service returns the well-known service name for a port, if any.
func (rb *Rulebase) Service(port int) (string, bool) {
	s, ok := rb.services[port]
	return s, ok
}

// Wordlist returns the bundled subdomain wordlist used by the domain
// enumeration command.
func (rb *Rulebase) Wordlist() []string { return rb.wordlist }

func firstOptions(pattern string) string {
	if len(pattern) > 16 {
		return pattern[:16]
	}
	return pattern
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func defaultOSRules() ([]fingerprint.Rule, []string) {
	rules := []fingerprint.Rule{
		{WindowSize: 65160, OptionPattern: "mss-sack-ts-nop-ws", Family: "Linux 5.x/6.x", DeviceType: "general purpose", Generation: 6, CPEs: []string{"cpe:/o:linux:linux_kernel:5"}},
		{WindowSize: 29200, OptionPattern: "mss-sack-ts-nop-ws", Family: "Linux 3.x/4.x", DeviceType: "general purpose", Generation: 4, CPEs: []string{"cpe:/o:linux:linux_kernel:4"}},
		{WindowSize: 8192, OptionPattern: "mss-nop-ws-nop-nop-sack", Family: "Windows 10/11", DeviceType: "general purpose", Generation: 10, CPEs: []string{"cpe:/o:microsoft:windows_10"}},
		{WindowSize: 65535, OptionPattern: "mss-nop-ws-sack", Family: "FreeBSD", DeviceType: "general purpose", Generation: 13},
	}
	families := make([]string, 0, len(rules))
	seen := make(map[string]bool)
	for _, r := range rules {
		if !seen[r.Family] {
			families = append(families, r.Family)
			seen[r.Family] = true
		}
	}
	return rules, families
}

func defaultOUI() map[string]string {
	return map[string]string{
		"00:1A:11": "Google",
		"00:50:56": "VMware",
		"00:0C:29": "VMware",
		"08:00:27": "Oracle VirtualBox",
		"DC:A6:32": "Raspberry Pi Foundation",
		"B8:27:EB": "Raspberry Pi Foundation",
	}
}

func defaultServices() map[int]string {
	return map[int]string{
		22: "ssh", 23: "telnet", 25: "smtp", 53: "domain", 80: "http",
		110: "pop3", 143: "imap", 443: "https", 3306: "mysql", 5432: "postgresql",
		6379: "redis", 8080: "http-alt", 27017: "mongodb",
	}
}

func defaultWordlist() []string {
	return []string{"www", "mail", "ftp", "api", "dev", "staging", "admin", "vpn", "ns1", "ns2"}
}
