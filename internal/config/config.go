package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string
	CitySummaryPath string
	Covariates      []domain.Covariate
	StrictCities    bool
	PeakMonths      int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Overlay results are cached per (city, covariate); 0 disables the cache.
	OverlayCacheSize int

	// Report publishing to Kafka.
	KafkaBrokers         []string
	KafkaReportTopic     string
	ReportPublishEnabled bool
	PublishTimeout       time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	publishTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("PUBLISH_TIMEOUT", "30s"))
	if err != nil || publishTimeout <= 0 {
		return nil, errors.New("invalid PUBLISH_TIMEOUT")
	}

	peakMonths, err := strconv.Atoi(sharedcfg.EnvOrDefault("PEAK_MONTHS", strconv.Itoa(domain.DefaultPeakMonths)))
	if err != nil || peakMonths < 1 || peakMonths > 12 {
		return nil, errors.New("invalid PEAK_MONTHS: must be between 1 and 12")
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("OVERLAY_CACHE_SIZE", "256"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid OVERLAY_CACHE_SIZE")
	}

	strictCities, err := parseBool("STRICT_CITIES", false)
	if err != nil {
		return nil, err
	}
	publishEnabled, err := parseBool("REPORT_PUBLISH_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataPath:        sharedcfg.EnvOrDefault("DATA_PATH", "data/lepto_cases.csv"),
		CitySummaryPath: os.Getenv("CITY_SUMMARY_PATH"),
		Covariates:      domain.ParseCovariates(sharedcfg.EnvOrDefault("COVARIATES", "heat_index,rh,pr,pop_count_total,pop_density")),
		StrictCities:    strictCities,
		PeakMonths:      peakMonths,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OverlayCacheSize: cacheSize,

		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:     sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "city-analytics-reports"),
		ReportPublishEnabled: publishEnabled,
		PublishTimeout:       publishTimeout,
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if len(cfg.Covariates) == 0 {
		return nil, errors.New("COVARIATES must name at least one column")
	}
	if cfg.ReportPublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("REPORT_PUBLISH_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.ReportPublishEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("REPORT_PUBLISH_ENABLED is true but KAFKA_REPORT_TOPIC is empty")
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("invalid " + key + ": must be true or false")
	}
	return b, nil
}
