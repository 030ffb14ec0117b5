package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/apptraffic/internal/firewall"
	"github.com/blackwell-systems/apptraffic/internal/platform"
)

var blockCmd = &cobra.Command{
	Use:   "block <app>",
	Short: "Block an application from the network",
	Long: `Block an application from accessing the network using the OS firewall.

The argument is the process name of a running application, or a path to
its executable. Blocking usually requires root (or Administrator).

On macOS the Application Firewall is used; on Linux, iptables owner
matching; on Windows, Windows Firewall rules.`,
	Example: `  # Block a running app by name
  sudo apptraffic block Spotify

  # Block by executable path
  sudo apptraffic block /usr/bin/curl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := firewallManager()
		if err != nil {
			return err
		}
		name, err := mgr.Block(args[0])
		if err != nil {
			return fmt.Errorf("failed to block %s: %w", args[0], err)
		}
		fmt.Printf("✓ Blocked %s from the network\n", name)
		fmt.Println("The app may need to be restarted for the block to take effect.")
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <app>",
	Short: "Remove a network block from an application",
	Example: `  # Restore network access
  sudo apptraffic unblock Spotify`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := firewallManager()
		if err != nil {
			return err
		}
		name, err := mgr.Unblock(args[0])
		if err != nil {
			return fmt.Errorf("failed to unblock %s: %w", args[0], err)
		}
		fmt.Printf("✓ Unblocked %s\n", name)
		return nil
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List blocked applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := firewallManager()
		if err != nil {
			return err
		}
		apps, err := mgr.List()
		if err != nil {
			return err
		}
		if len(apps) == 0 {
			fmt.Println("No applications are blocked")
			return nil
		}
		fmt.Printf("Blocked applications (%d):\n", len(apps))
		for _, a := range apps {
			fmt.Printf("  %-20s %s\n", a.Name, a.Path)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(blockCmd)
	RootCmd.AddCommand(unblockCmd)
	RootCmd.AddCommand(blockedCmd)
}

func firewallManager() (*firewall.Manager, error) {
	paths, err := platform.Default()
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.DataDir()
	if err != nil {
		return nil, err
	}
	return firewall.New(dataDir), nil
}
