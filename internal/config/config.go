package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Upload     UploadConfig     `mapstructure:"upload"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Actor       string `mapstructure:"actor"`
}

// StorageConfig describes the data root and cache behaviour. All case
// records, OSINT cache entries, batches, reports and the chain log live
// under DataRoot.
type StorageConfig struct {
	DataRoot string        `mapstructure:"data_root"`
	OSINTTTL time.Duration `mapstructure:"osint_ttl"`
}

func (c StorageConfig) UploadsDir() string  { return filepath.Join(c.DataRoot, "uploads") }
func (c StorageConfig) ReportsDir() string  { return filepath.Join(c.DataRoot, "reports") }
func (c StorageConfig) ChainLogPath() string { return filepath.Join(c.DataRoot, "chainlog.jsonl") }

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// SourcesConfig holds per-source OSINT settings
type SourcesConfig struct {
	VirusTotal SourceConfig `mapstructure:"virustotal"`
	Whois      SourceConfig `mapstructure:"whois"`
	OpenPhish  SourceConfig `mapstructure:"openphish"`
	AbuseIPDB  SourceConfig `mapstructure:"abuseipdb"`
}

type SourceConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ClassifierConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

// RiskConfig carries the base fusion weights. The defaults sum to 1.0;
// category-dependent bumps applied at scoring time are not renormalized.
type RiskConfig struct {
	ScamWeight      float64 `mapstructure:"scam_weight"`
	EntityWeight    float64 `mapstructure:"entity_weight"`
	KeywordWeight   float64 `mapstructure:"keyword_weight"`
	ToneWeight      float64 `mapstructure:"tone_weight"`
	SentimentWeight float64 `mapstructure:"sentiment_weight"`
	OSINTWeight     float64 `mapstructure:"osint_weight"`
}

type UploadConfig struct {
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/cyberlens")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CYBERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("storage.data_root", "CYBERLENS_STORAGE_DATA_ROOT")
	v.BindEnv("sources.virustotal.api_key", "CYBERLENS_SOURCES_VIRUSTOTAL_API_KEY")
	v.BindEnv("sources.whois.api_key", "CYBERLENS_SOURCES_WHOIS_API_KEY")
	v.BindEnv("sources.abuseipdb.api_key", "CYBERLENS_SOURCES_ABUSEIPDB_API_KEY")
	v.BindEnv("app.environment", "CYBERLENS_APP_ENVIRONMENT")

	// Read config file; a missing file falls back to defaults + env
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cyberlens")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.actor", "system")

	v.SetDefault("storage.data_root", "data")
	v.SetDefault("storage.osint_ttl", 24*time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("sources.virustotal.enabled", true)
	v.SetDefault("sources.virustotal.api_url", "https://www.virustotal.com/api/v3")
	v.SetDefault("sources.virustotal.timeout", 10*time.Second)
	v.SetDefault("sources.whois.enabled", true)
	v.SetDefault("sources.whois.api_url", "https://www.whoisxmlapi.com/whoisserver/WhoisService")
	v.SetDefault("sources.whois.timeout", 10*time.Second)
	v.SetDefault("sources.openphish.enabled", true)
	v.SetDefault("sources.openphish.api_url", "https://openphish.com/feed.txt")
	v.SetDefault("sources.openphish.timeout", 5*time.Second)
	v.SetDefault("sources.abuseipdb.enabled", true)
	v.SetDefault("sources.abuseipdb.api_url", "https://api.abuseipdb.com/api/v2/check")
	v.SetDefault("sources.abuseipdb.timeout", 10*time.Second)

	v.SetDefault("classifier.model_path", "models/scam_classifier.json")

	v.SetDefault("risk.scam_weight", 0.40)
	v.SetDefault("risk.entity_weight", 0.25)
	v.SetDefault("risk.keyword_weight", 0.15)
	v.SetDefault("risk.tone_weight", 0.05)
	v.SetDefault("risk.sentiment_weight", 0.05)
	v.SetDefault("risk.osint_weight", 0.10)

	v.SetDefault("upload.allowed_extensions", []string{".png", ".jpg", ".jpeg", ".pdf", ".txt"})
}
