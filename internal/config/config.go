package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	History   HistoryConfig   `mapstructure:"history"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type HistoryConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

type AnalysisConfig struct {
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	PlantBonus          int      `mapstructure:"plant_bonus"`
	MinMatchScore       int      `mapstructure:"min_match_score"`
	PlantNames          []string `mapstructure:"plant_names"`
}

type DetectorConfig struct {
	Kind     string         `mapstructure:"kind"`
	Roboflow RoboflowConfig `mapstructure:"roboflow"`
	ONNX     ONNXConfig     `mapstructure:"onnx"`
}

type RoboflowConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	ModelID string        `mapstructure:"model_id"`
	Overlap float64       `mapstructure:"overlap"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ONNXConfig struct {
	ModelPath         string  `mapstructure:"model_path"`
	MetadataPath      string  `mapstructure:"metadata_path"`
	SharedLibraryPath string  `mapstructure:"shared_library_path"`
	IOUThreshold      float64 `mapstructure:"iou_threshold"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

const (
	DetectorRoboflow  = "roboflow"
	DetectorONNX      = "onnx"
	DetectorSimulated = "simulated"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("history.retention_days", 30)
	v.SetDefault("history.cleanup_interval", 24*time.Hour)
	v.SetDefault("knowledge.path", "data/diseases.json")
	v.SetDefault("analysis.confidence_threshold", 0.5)
	v.SetDefault("analysis.plant_bonus", 10)
	v.SetDefault("analysis.min_match_score", 10)
	v.SetDefault("analysis.plant_names", []string{})
	v.SetDefault("detector.kind", DetectorSimulated)
	v.SetDefault("detector.roboflow.api_key", "")
	v.SetDefault("detector.roboflow.base_url", "https://detect.roboflow.com")
	v.SetDefault("detector.roboflow.model_id", "crop-disease-identification-dniia/2")
	v.SetDefault("detector.roboflow.overlap", 0.3)
	v.SetDefault("detector.roboflow.timeout", 30*time.Second)
	v.SetDefault("detector.onnx.model_path", "models/plant_disease.onnx")
	v.SetDefault("detector.onnx.metadata_path", "models/plant_disease.json")
	v.SetDefault("detector.onnx.shared_library_path", "")
	v.SetDefault("detector.onnx.iou_threshold", 0.45)
	v.SetDefault("telegram.token", "")
}

// Load reads .env, an optional config file and PLANTSCAN_* environment
// variables, in increasing priority. configFile may be empty.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLANTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if t := c.Analysis.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("analysis.confidence_threshold must be in [0,1], got %v", t))
	}
	if c.Analysis.PlantBonus < 0 {
		errs = append(errs, errors.New("analysis.plant_bonus cannot be negative"))
	}
	if c.Analysis.MinMatchScore < 0 {
		errs = append(errs, errors.New("analysis.min_match_score cannot be negative"))
	}
	if o := c.Detector.Roboflow.Overlap; o < 0 || o > 1 {
		errs = append(errs, fmt.Errorf("detector.roboflow.overlap must be in [0,1], got %v", o))
	}
	if iou := c.Detector.ONNX.IOUThreshold; iou <= 0 || iou > 1 {
		errs = append(errs, fmt.Errorf("detector.onnx.iou_threshold must be in (0,1], got %v", iou))
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, errors.New("history.retention_days cannot be negative"))
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required when database.enabled is set"))
	}

	switch c.Detector.Kind {
	case DetectorRoboflow, DetectorONNX, DetectorSimulated:
	default:
		errs = append(errs, fmt.Errorf("unknown detector.kind %q", c.Detector.Kind))
	}

	return errors.Join(errs...)
}
