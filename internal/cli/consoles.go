package cli

import (
	"fmt"

	"github.com/javanstorm/vmconsole/internal/config"
	"github.com/javanstorm/vmconsole/internal/console"
	"github.com/spf13/cobra"
)

var consolesCmd = &cobra.Command{
	Use:   "consoles <vm>",
	Short: "List a VM's console endpoints",
	Long:  `Show the console endpoints the named VM exposes, in the order the console command would try them.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConsoles,
}

func init() {
	rootCmd.AddCommand(consolesCmd)
}

func runConsoles(cmd *cobra.Command, args []string) error {
	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	resolver := &console.RuntimeResolver{Dir: cfg.RuntimeDir}
	m, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("VM: %s (domain %d)\n", m.Name, m.DomainID)
	if len(m.Consoles) == 0 {
		fmt.Println("  no consoles")
		return nil
	}
	for _, d := range console.Ordered(m.Consoles) {
		switch {
		case d.Path != "":
			fmt.Printf("  %-10s %s\n", d.Kind, d.Path)
		case d.Port > 0:
			fmt.Printf("  %-10s port %d\n", d.Kind, d.Port)
		default:
			fmt.Printf("  %-10s (unavailable)\n", d.Kind)
		}
	}
	return nil
}
