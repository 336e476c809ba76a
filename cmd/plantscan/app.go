package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"plantscan-service/internal/analysis"
	"plantscan-service/internal/config"
	"plantscan-service/internal/detector"
	"plantscan-service/internal/knowledge"
	"plantscan-service/internal/logger"
	"plantscan-service/internal/matcher"
)

func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func matcherOptions(cfg config.AnalysisConfig) matcher.Options {
	opts := matcher.DefaultOptions()
	opts.PlantBonus = cfg.PlantBonus
	opts.MinMatchScore = cfg.MinMatchScore
	if len(cfg.PlantNames) > 0 {
		opts.PlantNames = cfg.PlantNames
	}
	return opts
}

func newAnalyzer(cfg *config.Config, log zerolog.Logger) *analysis.Analyzer {
	kb := knowledge.LoadOrEmpty(cfg.Knowledge.Path, log)
	return analysis.NewAnalyzer(matcher.New(kb, matcherOptions(cfg.Analysis)), log)
}

// newDetector builds the configured detector. The returned func releases
// its resources.
func newDetector(cfg config.DetectorConfig, log zerolog.Logger) (detector.Detector, func(), error) {
	noop := func() {}

	switch cfg.Kind {
	case config.DetectorRoboflow:
		if cfg.Roboflow.APIKey == "" {
			log.Warn().Msg("roboflow api key is empty, image scans will fail")
		}
		return detector.NewRoboflowDetector(detector.RoboflowOpts{
			APIKey:  cfg.Roboflow.APIKey,
			BaseURL: cfg.Roboflow.BaseURL,
			ModelID: cfg.Roboflow.ModelID,
			Timeout: cfg.Roboflow.Timeout,
		}), noop, nil

	case config.DetectorONNX:
		d, err := detector.NewONNXDetector(detector.ONNXOpts{
			ModelPath:         cfg.ONNX.ModelPath,
			MetadataPath:      cfg.ONNX.MetadataPath,
			SharedLibraryPath: cfg.ONNX.SharedLibraryPath,
			IOUThreshold:      cfg.ONNX.IOUThreshold,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load onnx model: %w", err)
		}
		log.Info().Int("classes", len(d.Metadata.Classes)).Str("model", cfg.ONNX.ModelPath).Msg("onnx model loaded")
		return d, d.Close, nil

	case config.DetectorSimulated:
		log.Warn().Msg("using simulated detector, predictions are guessed from file names")
		return detector.NewSimulatedDetector(), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown detector kind %q", cfg.Kind)
}
