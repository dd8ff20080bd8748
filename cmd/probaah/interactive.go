package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func interactiveCMD() *cobra.Command {
	var cfgPath string
	var interactive = &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive request session",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, registry, err := buildOrchestrator(cfgPath)
			if err != nil {
				return err
			}
			orch.SetProgressObserver(func(step, total, percent int, message string) {
				fmt.Printf("[%d/%d] %3d%% %s\n", step, total, percent, message)
			})

			fmt.Println("Probaah interactive session. Type a request, or 'tools', 'history', 'exit'.")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("probaah> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case line == "tools":
					printToolStatuses(registry.Statuses())
				case line == "history":
					history := orch.GetHistory()
					if len(history) == 0 {
						fmt.Println("No requests processed yet.")
						continue
					}
					for i, entry := range history {
						outcome := "ok"
						if !entry.Success {
							outcome = "failed"
						}
						fmt.Printf("  %d. [%s] %s\n", i+1, outcome, entry.Request.Text)
					}
				default:
					result := orch.ProcessRequest(context.Background(), line, nil)
					printResult(result)
				}
			}
		},
	}
	interactive.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return interactive
}
