package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/cliutil"
	"github.com/poros-project/netreco/internal/model"
)

var (
	flagPingProto      string
	flagPingPort       int
	flagPingCount      int
	flagPingIntervalMS int
	flagPingTimeoutMS  int
	flagPingIface      string
)

var pingCmd = &cobra.Command{
	Use:   "ping <target>",
	Short: "Send a bounded series of probes and report one result per probe",
	Args:  cobra.ExactArgs(1),
	RunE:  runPing,
}

func init() {
	pingCmd.Flags().StringVar(&flagPingProto, "proto", "icmp", "icmp, tcp, or udp")
	pingCmd.Flags().IntVar(&flagPingPort, "port", 80, "destination port for --proto tcp|udp")
	pingCmd.Flags().IntVar(&flagPingCount, "count", 4, "number of probes to send (1..10000)")
	pingCmd.Flags().IntVar(&flagPingIntervalMS, "interval-ms", 1000, "delay between probes")
	pingCmd.Flags().IntVar(&flagPingTimeoutMS, "timeout-ms", 1000, "per-probe response window")
	pingCmd.Flags().StringVar(&flagPingIface, "interface", "", "bind interface (default: default route interface)")
	pingCmd.Flags().StringVar(&flagFormat, "format", "table", "text, table, json, or csv")
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := resolveAlias(args[0])
	endpoints, err := cliutil.ResolveTargets(ctx, []string{target}, resolverCollaborator(), 2*time.Second, cfg.Aliases)
	if err != nil {
		return err
	}

	count := flagPingCount
	if count < 1 {
		count = 1
	}
	if count > 10000 {
		count = 10000
	}

	setting := model.PingSetting{
		Dst:          endpoints[0].IP,
		Protocol:     protocolFromString(flagPingProto),
		Port:         flagPingPort,
		Count:        count,
		Interval:     durationMS(flagPingIntervalMS),
		ProbeTimeout: durationMS(flagPingTimeoutMS),
	}

	result, err := rb.RunPing(ctx, flagPingIface, setting)
	if err != nil {
		return err
	}

	w, err := newWriter(parseFormat(flagFormat))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WritePing(result)
}
