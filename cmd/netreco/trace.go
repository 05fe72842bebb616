package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/cliutil"
	"github.com/poros-project/netreco/internal/model"
)

var (
	flagTraceProto      string
	flagTracePort       int
	flagTraceMaxHops    int
	flagTraceIntervalMS int
	flagTraceTimeoutMS  int
	flagTraceIface      string
)

var traceCmd = &cobra.Command{
	Use:   "trace <target>",
	Short: "Trace the network path to a target hop by hop",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().StringVar(&flagTraceProto, "proto", "udp", "udp (the only wire-encoded trace probe this core builds)")
	traceCmd.Flags().IntVar(&flagTracePort, "port", 33435, "base UDP destination port")
	traceCmd.Flags().IntVar(&flagTraceMaxHops, "max-hops", 30, "hop_limit: caps the sequence space (1..255)")
	traceCmd.Flags().IntVar(&flagTraceIntervalMS, "interval-ms", 0, "pacing delay between hops (0 = as fast as the sender accepts)")
	traceCmd.Flags().IntVar(&flagTraceTimeoutMS, "timeout-ms", 1000, "per-hop response window")
	traceCmd.Flags().StringVar(&flagTraceIface, "interface", "", "bind interface (default: default route interface)")
	traceCmd.Flags().StringVar(&flagFormat, "format", "table", "text, table, json, or csv")
}

func runTrace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := resolveAlias(args[0])
	endpoints, err := cliutil.ResolveTargets(ctx, []string{target}, resolverCollaborator(), 2*time.Second, cfg.Aliases)
	if err != nil {
		return err
	}

	hopLimit := flagTraceMaxHops
	if hopLimit < 1 {
		hopLimit = 1
	}
	if hopLimit > 255 {
		hopLimit = 255
	}

	setting := model.TraceSetting{
		Dst:            endpoints[0].IP,
		DstPort:        flagTracePort,
		HopLimit:       hopLimit,
		Protocol:       model.ProtoUDP,
		SendRate:       durationMS(flagTraceIntervalMS),
		ReceiveTimeout: durationMS(flagTraceTimeoutMS),
		ProbeTimeout:   durationMS(flagTraceTimeoutMS),
	}

	result, err := rb.RunTraceroute(ctx, flagTraceIface, setting)
	if err != nil {
		return err
	}

	w, err := newWriter(parseFormat(flagFormat))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteTrace(result)
}
