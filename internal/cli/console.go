package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/javanstorm/vmconsole/internal/config"
	"github.com/javanstorm/vmconsole/internal/console"
	"github.com/javanstorm/vmconsole/internal/timing"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console <vm>",
	Short: "Attach to a VM's console",
	Long: `Attach the local terminal to the named VM's console.

Text consoles are preferred and attach in place; press Ctrl+] to detach.
Graphical consoles are bridged to a loopback TCP port and opened in the
configured external viewer. If nothing can be attached, the well-known
fallback console attacher is tried with the VM's domain id.`,
	Args: cobra.ExactArgs(1),
	RunE: runConsole,
}

var (
	consoleTextOnly      bool
	consoleGraphicalOnly bool
	consoleRetryCeiling  time.Duration
)

func init() {
	consoleCmd.Flags().BoolVar(&consoleTextOnly, "text-only", false, "only attempt text consoles")
	consoleCmd.Flags().BoolVar(&consoleGraphicalOnly, "graphical-only", false, "only attempt graphical consoles")
	consoleCmd.Flags().DurationVar(&consoleRetryCeiling, "retry-ceiling", 0, "give up reconnecting once the backoff delay would exceed this (default from config)")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	if consoleTextOnly && consoleGraphicalOnly {
		return fmt.Errorf("--text-only and --graphical-only are mutually exclusive")
	}

	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ceiling := cfg.RetryCeiling
	if consoleRetryCeiling > 0 {
		ceiling = consoleRetryCeiling
	}

	// Initialize timing if VMC_TIMING=1
	var timer *timing.Timer
	if os.Getenv("VMC_TIMING") == "1" {
		timer = timing.New()
	}

	sel := console.NewSelector(
		&console.RuntimeResolver{Dir: cfg.RuntimeDir},
		console.ExecViewer{Binary: cfg.Viewer},
		console.FallbackAttacher{Paths: cfg.FallbackPaths},
		ceiling,
	)
	switch {
	case consoleTextOnly:
		sel.SetFilter(console.Text)
	case consoleGraphicalOnly:
		sel.SetFilter(console.Graphical)
	}

	err := sel.Attach(args[0])

	if timer != nil {
		timer.Mark("attach")
		timer.Report(os.Stderr)
	}

	return err
}
