package main

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/reconerr"
)

var (
	flagNeiIface     string
	flagNeiTimeoutMS int
)

var neiCmd = &cobra.Command{
	Use:   "nei <target>",
	Short: "Resolve a single address's link-layer (MAC) identity via ARP/NDP",
	Args:  cobra.ExactArgs(1),
	RunE:  runNei,
}

func init() {
	neiCmd.Flags().StringVar(&flagNeiIface, "interface", "", "bind interface (default: default route interface)")
	neiCmd.Flags().IntVar(&flagNeiTimeoutMS, "timeout-ms", 1000, "how long to wait for a reply")
	neiCmd.Flags().StringVar(&flagFormat, "format", "table", "text, table, json, or csv")
}

func runNei(cmd *cobra.Command, args []string) error {
	ip := net.ParseIP(resolveAlias(args[0]))
	if ip == nil {
		return reconerr.Config("nei.parse", net.InvalidAddrError(args[0]))
	}

	ctx := cmd.Context()
	result, err := rb.RunNeighbor(ctx, flagNeiIface, ip, durationMS(flagNeiTimeoutMS))
	if err != nil {
		return err
	}

	if rb.Rulebase != nil {
		if vendor, ok := rb.Rulebase.Vendor(result.MAC); ok {
			result.Vendor = vendor
		}
	}

	w, err := newWriter(parseFormat(flagFormat))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteNeighbor(result)
}
