package main

import (
	"log"

	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/orchestrator"
	"github.com/probaah/probaah/internal/telemetry"
	"github.com/probaah/probaah/internal/tools"
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{
		Use:   "probaah",
		Short: "Natural-language workflow engine for computational chemistry",
	}

	root.AddCommand(processCMD(), interactiveCMD(), serveCMD(), toolsCMD())
	_ = root.Execute()
}

// buildOrchestrator wires the full toolset for the CLI commands.
func buildOrchestrator(cfgPath string) (*orchestrator.Orchestrator, *tools.Registry, error) {
	cfg := config.LoadConfig(cfgPath)
	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)

	packmol := tools.NewPackmol(cfg.Tools.Packmol, nil)
	viamd := tools.NewViamd(cfg.Tools.Viamd, nil)
	analyzer := tools.NewAnalyzer(cfg.Tools.Analysis, nil)
	slides := tools.NewSlideGenerator(cfg.Tools.Slides, nil)

	registry, err := tools.NewRegistry(packmol, viamd, analyzer, slides)
	if err != nil {
		return nil, nil, err
	}

	orch, err := orchestrator.NewOrchestrator(cfg, orchLogger, tele, registry, orchestrator.Toolset{
		Packer:    packmol,
		Validator: viamd,
		Analyzer:  analyzer,
		Presenter: slides,
	})
	if err != nil {
		return nil, nil, err
	}
	return orch, registry, nil
}
