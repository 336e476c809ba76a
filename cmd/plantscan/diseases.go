package main

import (
	"github.com/spf13/cobra"

	"plantscan-service/internal/repository"
	"plantscan-service/internal/service"
)

func newDiseasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diseases [key]",
		Short: "List knowledge base entries or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc := service.NewScanService(repository.NewMemoryScanRepository(), nil, newAnalyzer(cfg, log),
				service.Options{Threshold: cfg.Analysis.ConfidenceThreshold}, log)

			if len(args) == 0 {
				printDiseaseList(cmd.OutOrStdout(), svc.ListDiseases())
				return nil
			}

			d, err := svc.GetDisease(args[0])
			if err != nil {
				return err
			}
			printDisease(cmd.OutOrStdout(), *d)
			return nil
		},
	}
}
