package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

var (
	flagDomainWordlist       string
	flagDomainConcurrency    int
	flagDomainTimeoutMS      int
	flagDomainResolveTimeout int
)

var domainCmd = &cobra.Command{
	Use:   "domain <base>",
	Short: "Enumerate subdomains of a base domain via forward DNS resolution",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomain,
}

func init() {
	domainCmd.Flags().StringVar(&flagDomainWordlist, "wordlist", "", "path to a newline-separated subdomain wordlist (default: the bundled rulebase wordlist)")
	domainCmd.Flags().IntVar(&flagDomainConcurrency, "concurrency", 50, "concurrent resolution workers")
	domainCmd.Flags().IntVar(&flagDomainTimeoutMS, "timeout-ms", 30000, "whole-run timeout")
	domainCmd.Flags().IntVar(&flagDomainResolveTimeout, "resolve-timeout-ms", 1500, "per-lookup timeout")
}

// runDomain is thin CLI glue over the Resolver and Rulebase collaborators
// named in spec §6 — subdomain enumeration is explicitly out of core
// scope (spec §1's "Static reference data ... the core consumes these as
// pure lookup tables"), so this command resolves each candidate directly
// rather than going through the orchestrator.
func runDomain(cmd *cobra.Command, args []string) error {
	base := resolveAlias(args[0])
	words, err := loadWordlist(flagDomainWordlist)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), durationMS(flagDomainTimeoutMS))
	defer cancel()

	type found struct {
		host string
		ip   string
	}
	results := make(chan found, len(words))
	jobs := make(chan string, len(words))

	var wg sync.WaitGroup
	concurrency := flagDomainConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for word := range jobs {
				host := word + "." + base
				ip, ok := rb.Resolver.Lookup(ctx, host, durationMS(flagDomainResolveTimeout))
				if !ok {
					continue
				}
				select {
				case results <- found{host: host, ip: ip.String()}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, w := range words {
			select {
			case jobs <- w:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	count := 0
	for r := range results {
		count++
		fmt.Printf("%-40s %s\n", r.host, r.ip)
	}
	if count == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no subdomains resolved")
	}
	return nil
}

func loadWordlist(path string) ([]string, error) {
	if path == "" {
		return rb.Rulebase.Wordlist(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, w)
	}
	return words, scanner.Err()
}
