package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poros-project/netreco/internal/collab"
	"github.com/poros-project/netreco/internal/config"
	"github.com/poros-project/netreco/internal/logging"
	"github.com/poros-project/netreco/internal/orchestrator"
	"github.com/poros-project/netreco/internal/output"
)

// Global persistent flags (spec §6 "Global: --log-level, --log-file[-path],
// --quiet, --output FILE, --no-stdout").
var (
	flagLogLevel   string
	flagLogFile    string
	flagQuiet      bool
	flagOutputFile string
	flagNoStdout   bool
	flagConfigFile string
	flagFormat     string
	flagNoColor    bool

	cfg *config.Config
	log *logrus.Logger
	rb  *orchestrator.Runner
)

var rootCmd = &cobra.Command{
	Use:   "netreco",
	Short: "Cross-platform active network reconnaissance",
	Long: `netreco discovers live hosts, enumerates open transport ports,
fingerprints operating systems and services, traces network paths, and
resolves link-layer identities by crafting ARP/NDP/TCP/UDP/ICMP probes
and correlating replies captured on a bound network interface.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "rotate logs to this file path")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file-path", "", "alias for --log-file")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress stderr logging")
	rootCmd.PersistentFlags().StringVar(&flagOutputFile, "output", "", "also write the full result as JSON to FILE")
	rootCmd.PersistentFlags().BoolVar(&flagNoStdout, "no-stdout", false, "suppress the normal stdout result document")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default: ~/.config/netreco/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored table/text output")

	rootCmd.AddCommand(portCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(neiCmd)
	rootCmd.AddCommand(domainCmd)
	rootCmd.AddCommand(interfaceCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// initRuntime wires the logger, config, and a Runner shared by every
// subcommand, matching the teacher's PersistentPreRunE config-loading
// pattern generalized to this spec's ambient logging stack.
func initRuntime(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfigFile != "" {
		cfg, err = config.LoadFrom(flagConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(logging.Config{
		Level:    flagLogLevel,
		FilePath: flagLogFile,
		Quiet:    flagQuiet,
	})

	rb = orchestrator.NewRunner(log)
	return nil
}

// resolveAlias maps a target through cfg.Aliases, matching the teacher's
// config.Aliases convenience (spec's supplemented "target shorthand").
func resolveAlias(target string) string {
	if cfg == nil || cfg.Aliases == nil {
		return target
	}
	if alias, ok := cfg.Aliases[target]; ok {
		return alias
	}
	return target
}

func resolverCollaborator() collab.Resolver { return rb.Resolver }

func newWriter(format output.Format) (*output.Writer, error) {
	outCfg := output.DefaultConfig()
	outCfg.Colors = !flagNoColor
	return output.NewWriter(format, outCfg, flagOutputFile, flagNoStdout)
}

func parseFormat(s string) output.Format {
	switch s {
	case "json":
		return output.FormatJSON
	case "csv":
		return output.FormatCSV
	case "table":
		return output.FormatTable
	default:
		return output.FormatText
	}
}

func durationMS(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
