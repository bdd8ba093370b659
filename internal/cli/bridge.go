package cli

import (
	"fmt"

	"github.com/javanstorm/vmconsole/internal/bridge"
	"github.com/spf13/cobra"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <unix-socket>",
	Short: "Expose a unix console socket on a loopback TCP port",
	Long: `Bridge a unix-domain console socket to an ephemeral loopback TCP port
for viewers that only speak TCP. The port is printed once; exactly one TCP
client is served, and the bridge exits when either side closes.`,
	Args: cobra.ExactArgs(1),
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	b, err := bridge.Open(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("127.0.0.1:%d\n", b.Port())
	return b.Wait()
}
