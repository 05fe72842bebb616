package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/cliutil"
	"github.com/poros-project/netreco/internal/model"
)

var (
	flagHostProto       string
	flagHostPortSpec    string
	flagHostWaitMS      int
	flagHostTimeoutMS   int
	flagHostIface       string
	flagHostConcurrency int
	flagHostOrdered     bool
)

var hostCmd = &cobra.Command{
	Use:   "host <target>...",
	Short: "Sweep a set of targets for liveness",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHost,
}

func init() {
	hostCmd.Flags().StringVar(&flagHostProto, "proto", "icmp", "icmp, udp, or tcp")
	hostCmd.Flags().StringVar(&flagHostPortSpec, "ports", "", "port spec used by --proto tcp|udp (default: 80 for tcp, the UDP trace base port for udp)")
	hostCmd.Flags().IntVar(&flagHostWaitMS, "wait-ms", 1000, "tail-wait after the last probe is sent")
	hostCmd.Flags().IntVar(&flagHostTimeoutMS, "timeout-ms", 30000, "whole-run task timeout")
	hostCmd.Flags().StringVar(&flagHostIface, "interface", "", "bind interface (default: default route interface)")
	hostCmd.Flags().IntVar(&flagHostConcurrency, "concurrency", 100, "unused: every host-scan mode, tcp included, sends raw probes")
	hostCmd.Flags().BoolVar(&flagHostOrdered, "ordered", false, "disable target randomization")
	hostCmd.Flags().StringVar(&flagFormat, "format", "table", "text, table, json, or csv")
}

func runHost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	protocol := protocolFromString(flagHostProto)

	transport := model.TransportTCP
	if protocol == model.ProtoUDP {
		transport = model.TransportUDP
	}
	ports, err := cliutil.ParsePortSpec(flagHostPortSpec, transport)
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
	if len(ports) > 0 {
		endpoints = cliutil.WithPorts(endpoints, ports)
	}

	setting := model.ProbeSetting{
		Targets:         endpoints,
		PortConcurrency: flagHostConcurrency,
		ConnectTimeout:  2 * time.Second,
		WaitTime:        durationMS(flagHostWaitMS),
		TaskTimeout:     durationMS(flagHostTimeoutMS),
		Randomize:       !flagHostOrdered,
		Seed:            time.Now().UnixNano(),
	}

	result, err := rb.RunHostScan(ctx, flagHostIface, setting, protocol)
	if err != nil {
		return err
	}

	w, err := newWriter(parseFormat(flagFormat))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteScan(result)
}

func protocolFromString(s string) model.Protocol {
	switch s {
	case "tcp":
		return model.ProtoTCP
	case "udp":
		return model.ProtoUDP
	default:
		return model.ProtoICMP
	}
}
