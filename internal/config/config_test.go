package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/lepto_cases.csv", cfg.DataPath)
	assert.Empty(t, cfg.CitySummaryPath)
	assert.Equal(t, domain.DefaultCovariates, cfg.Covariates)
	assert.False(t, cfg.StrictCities)
	assert.Equal(t, 3, cfg.PeakMonths)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 256, cfg.OverlayCacheSize)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "city-analytics-reports", cfg.KafkaReportTopic)
	assert.False(t, cfg.ReportPublishEnabled)
	assert.Equal(t, 30*time.Second, cfg.PublishTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_PATH", "/srv/data/cases.xlsx")
	t.Setenv("CITY_SUMMARY_PATH", "/srv/data/cities.csv")
	t.Setenv("COVARIATES", "heat_index, pr")
	t.Setenv("STRICT_CITIES", "true")
	t.Setenv("PEAK_MONTHS", "5")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OVERLAY_CACHE_SIZE", "0")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("REPORT_PUBLISH_ENABLED", "true")
	t.Setenv("PUBLISH_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/data/cases.xlsx", cfg.DataPath)
	assert.Equal(t, "/srv/data/cities.csv", cfg.CitySummaryPath)
	assert.Equal(t, []domain.Covariate{domain.CovariateHeatIndex, domain.CovariatePrecipitation}, cfg.Covariates)
	assert.True(t, cfg.StrictCities)
	assert.Equal(t, 5, cfg.PeakMonths)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0, cfg.OverlayCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.True(t, cfg.ReportPublishEnabled)
	assert.Equal(t, time.Minute, cfg.PublishTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PEAK_MONTHS", "0"},
		{"PEAK_MONTHS", "13"},
		{"PEAK_MONTHS", "three"},
		{"OVERLAY_CACHE_SIZE", "-1"},
		{"PUBLISH_TIMEOUT", "bad"},
		{"PUBLISH_TIMEOUT", "-5s"},
		{"STRICT_CITIES", "maybe"},
		{"REPORT_PUBLISH_ENABLED", "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_EmptyCovariateList(t *testing.T) {
	t.Setenv("COVARIATES", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COVARIATES")
}
