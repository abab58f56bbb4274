package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithConfigurationFilePathRoundTrips(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithConfigurationFilePath(base, "/tmp/config.yaml")

	configurationFilePath, exists := accessor.ConfigurationFilePath(enriched)
	require.True(t, exists)
	require.Equal(t, "/tmp/config.yaml", configurationFilePath)
}

func TestConfigurationFilePathAbsentFromBaseContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.ConfigurationFilePath(context.Background())
	require.False(t, exists)
}

func TestWithPlanFilePathStoresTrimmedValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithPlanFilePath(base, "  plan.yaml ")

	planFilePath, exists := accessor.PlanFilePath(enriched)
	require.True(t, exists)
	require.Equal(t, "plan.yaml", planFilePath)
}

func TestWithPlanFilePathSkipsEmptyValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithPlanFilePath(base, "   ")

	_, exists := accessor.PlanFilePath(enriched)
	require.False(t, exists)
}

func TestWithLogLevelStoresTrimmedValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithLogLevel(base, " debug ")

	logLevel, exists := accessor.LogLevel(enriched)
	require.True(t, exists)
	require.Equal(t, "debug", logLevel)
}

func TestWithLogLevelSkipsEmptyValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithLogLevel(base, "   ")

	_, exists := accessor.LogLevel(enriched)
	require.False(t, exists)
}

func TestAccessorsTolerateNilContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, configurationExists := accessor.ConfigurationFilePath(nil)
	require.False(t, configurationExists)

	_, planExists := accessor.PlanFilePath(nil)
	require.False(t, planExists)

	_, logLevelExists := accessor.LogLevel(nil)
	require.False(t, logLevelExists)
}
