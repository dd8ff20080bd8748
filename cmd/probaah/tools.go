package main

import (
	"fmt"

	"github.com/probaah/probaah/internal/tools"
	"github.com/spf13/cobra"
)

func toolsCMD() *cobra.Command {
	var cfgPath string
	var cmd = &cobra.Command{
		Use:   "tools",
		Short: "Report external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, registry, err := buildOrchestrator(cfgPath)
			if err != nil {
				return err
			}
			printToolStatuses(registry.Statuses())
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}

func printToolStatuses(statuses []tools.Status) {
	for _, status := range statuses {
		if status.Available {
			fmt.Printf("  [ok]      %-20s %s\n", status.Name, status.Path)
			continue
		}
		fmt.Printf("  [missing] %-20s %s\n", status.Name, status.InstallHint)
	}
}
