package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/probaah/probaah/internal/orchestrator"
	"github.com/spf13/cobra"
)

func processCMD() *cobra.Command {
	var cfgPath string
	var process = &cobra.Command{
		Use:   "process <request>",
		Short: "Process a single natural-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, err := buildOrchestrator(cfgPath)
			if err != nil {
				return err
			}
			orch.SetProgressObserver(func(step, total, percent int, message string) {
				fmt.Printf("[%d/%d] %3d%% %s\n", step, total, percent, message)
			})

			result := orch.ProcessRequest(context.Background(), strings.Join(args, " "), nil)
			printResult(result)
			return nil
		},
	}
	process.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return process
}

func printResult(result orchestrator.WorkflowResult) {
	fmt.Println()
	fmt.Println(result.Summary)
	fmt.Printf("Intent: %s (%s), %d step(s), %v\n",
		result.Intent.Primary, result.Intent.Complexity, len(result.Plan.Steps), result.TotalDuration.Round(time.Millisecond))

	for i, step := range result.Steps {
		status := "ok"
		if !step.Success {
			status = "FAILED: " + step.Error
		}
		fmt.Printf("  %d. %s (%v) %s\n", i+1, step.Step.Action, step.Duration.Round(time.Millisecond), status)
	}
	if len(result.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	if len(result.NextSteps) > 0 {
		fmt.Println("Next steps:")
		for _, next := range result.NextSteps {
			fmt.Printf("  - %s\n", next)
		}
	}
}
