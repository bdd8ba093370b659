// Package cli provides the command-line interface for vmconsole.
package cli

import (
	"fmt"

	"github.com/javanstorm/vmconsole/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmconsole",
	Short: "vmconsole - attach to a VM's console",
	Long: `vmconsole attaches your terminal to a running VM's console.

Text consoles open an interactive session right here (press Ctrl+] to
detach). Graphical consoles are bridged to a loopback TCP port and handed
to an external viewer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "version", "completion", "bridge":
			return nil
		}
		return config.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}
