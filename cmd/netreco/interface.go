package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagInterfaceAll bool

var interfaceCmd = &cobra.Command{
	Use:   "interface",
	Short: "List bindable network interfaces",
	RunE:  runInterface,
}

func init() {
	interfaceCmd.Flags().BoolVarP(&flagInterfaceAll, "all", "a", false, "include down and loopback interfaces")
}

func runInterface(cmd *cobra.Command, args []string) error {
	ifaces, err := rb.Interfaces.Enumerate()
	if err != nil {
		return err
	}
	for _, info := range ifaces {
		if !flagInterfaceAll && (!info.IsUp || info.IsLoop) {
			continue
		}
		mac := info.MAC.String()
		if mac == "" {
			mac = "-"
		}
		fmt.Printf("%-16s index=%-4d mac=%-17s up=%-5v loopback=%-5v\n", info.Name, info.Index, mac, info.IsUp, info.IsLoop)
		for _, ip := range info.IPs {
			fmt.Printf("    %s\n", ip)
		}
	}
	return nil
}
