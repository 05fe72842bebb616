package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/cliutil"
	"github.com/poros-project/netreco/internal/model"
)

var (
	flagPortSpec           string
	flagPortProto          string
	flagPortMethod         string
	flagPortService        bool
	flagPortOS             bool
	flagPortIface          string
	flagPortConcurrency    int
	flagPortConnectTimeout int
	flagPortWaitMS         int
	flagPortOrdered        bool
	flagPortNoPing         bool
)

var portCmd = &cobra.Command{
	Use:   "port <target>...",
	Short: "Enumerate open transport ports on one or more targets",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPort,
}

func init() {
	portCmd.Flags().StringVar(&flagPortSpec, "ports", "top-100", "port spec: top-N | N[,N]* | A-B")
	portCmd.Flags().StringVar(&flagPortProto, "proto", "tcp", "tcp, udp, or quic (quic rides the UDP probe path)")
	portCmd.Flags().StringVar(&flagPortMethod, "method", "syn", "connect or syn")
	portCmd.Flags().BoolVarP(&flagPortService, "service", "s", false, "annotate ports with the well-known service name")
	portCmd.Flags().BoolVarP(&flagPortOS, "os", "o", false, "run OS fingerprinting against endpoints with an open TCP port")
	portCmd.Flags().StringVar(&flagPortIface, "interface", "", "bind interface (default: default route interface)")
	portCmd.Flags().IntVar(&flagPortConcurrency, "concurrency", 100, "connect-scan in-flight socket limit")
	portCmd.Flags().IntVar(&flagPortConnectTimeout, "connect-timeout-ms", 2000, "connect-scan per-socket timeout")
	portCmd.Flags().IntVar(&flagPortWaitMS, "wait-ms", 1000, "raw-mode tail-wait after the last probe is sent")
	portCmd.Flags().BoolVar(&flagPortOrdered, "ordered", false, "disable target/port randomization")
	portCmd.Flags().BoolVar(&flagPortNoPing, "no-ping", false, "skip the liveness pre-check (reserved; core always probes every port directly)")
	portCmd.Flags().StringVar(&flagFormat, "format", "table", "text, table, json, or csv")
}

func runPort(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	transport := model.TransportTCP
	if flagPortProto == "udp" || flagPortProto == "quic" {
		transport = model.TransportUDP
	}

	ports, err := cliutil.ParsePortSpec(flagPortSpec, transport)
	if err != nil {
		return err
	}

	targetArgs := make([]string, len(args))
	for i, a := range args {
		targetArgs[i] = resolveAlias(a)
	}
	endpoints, err := cliutil.ResolveTargets(ctx, targetArgs, resolverCollaborator(), 2*time.Second, cfg.Aliases)
	if err != nil {
		return err
	}
	endpoints = cliutil.WithPorts(endpoints, ports)

	setting := model.ProbeSetting{
		Targets:         endpoints,
		PortConcurrency: flagPortConcurrency,
		ConnectTimeout:  durationMS(flagPortConnectTimeout),
		WaitTime:        durationMS(flagPortWaitMS),
		TaskTimeout:     cfg.Defaults.TaskTimeout,
		Randomize:       !flagPortOrdered,
		Seed:            time.Now().UnixNano(),
	}

	var result *model.ScanResult
	if transport == model.TransportTCP && flagPortMethod == "syn" {
		result, err = rb.RunPortScanSyn(ctx, flagPortIface, setting)
	} else {
		result, err = rb.RunPortScanConnect(ctx, setting)
	}
	if err != nil {
		return err
	}

	if flagPortService {
		annotateServices(result)
	}
	if !flagPortOS {
		clearOSGuesses(result)
	}

	w, err := newWriter(parseFormat(flagFormat))
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.WriteScan(result); err != nil {
		return err
	}
	if result.Warning != "" && !flagQuiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", result.Warning)
	}
	return nil
}

// clearOSGuesses drops the OS fingerprint unless -o was passed; the
// Runner always runs the fingerprint cascade against endpoints with an
// open TCP port (spec §4.5's gating rule), so -o governs whether the
// CLI surfaces that result rather than whether the core computes it.
func clearOSGuesses(result *model.ScanResult) {
	for _, ep := range result.Endpoints {
		ep.OSGuess = nil
		ep.CPEs = nil
	}
}

func annotateServices(result *model.ScanResult) {
	for _, ep := range result.Endpoints {
		for _, pr := range ep.Ports {
			if pr.Service != "" {
				continue
			}
			if s, ok := rb.Rulebase.Service(pr.Port.Number); ok {
				pr.Service = s
			}
		}
	}
}
