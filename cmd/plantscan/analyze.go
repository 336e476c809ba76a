package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/repository"
	"plantscan-service/internal/service"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		file      string
		threshold float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Diagnose a JSON file of detector predictions",
		Long: `Reads predictions from --file (or stdin with "-") and prints the diagnosis.
The file is either an array of {"class","confidence"} objects or an object
with a "predictions" array, such as a saved detector response.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			req, err := parseAnalyzeRequest(data)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}

			svc := service.NewScanService(repository.NewMemoryScanRepository(), nil, newAnalyzer(cfg, log),
				service.Options{Threshold: cfg.Analysis.ConfidenceThreshold}, log)

			result, err := svc.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(out, *result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "predictions JSON file, - for stdin")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "confidence threshold (0-1), overrides config")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	return data, nil
}

func parseAnalyzeRequest(data []byte) (scan.AnalyzeRequest, error) {
	var req scan.AnalyzeRequest

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &req.Predictions); err != nil {
			return req, fmt.Errorf("failed to parse predictions: %w", err)
		}
		return req, nil
	}

	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, fmt.Errorf("failed to parse predictions: %w", err)
	}
	return req, nil
}
