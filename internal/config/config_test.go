package config

import (
	"testing"

	"buildmarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.True(t, cfg.AutoMigrateUp)
	assert.False(t, cfg.AutoMigrateDown)
	assert.Empty(t, cfg.MigrationsURL)
	assert.Equal(t, 40.0, cfg.WeightPrice)
	assert.Equal(t, 30.0, cfg.WeightTimeline)
	assert.Equal(t, 15.0, cfg.WeightRating)
	assert.Equal(t, 15.0, cfg.WeightExperience)
	assert.Equal(t, models.DefaultWeighting(), cfg.ScoringConfig.Weighting())
	assert.Equal(t, "legacy", cfg.QualificationMode)
	assert.Equal(t, 8, cfg.LookupConcurrency)
}

func TestNewScoringConfigFromEnv(t *testing.T) {
	t.Setenv("WEIGHT_PRICE", "55.5")
	t.Setenv("SCORING_QUALIFICATION_MODE", "weighted")
	t.Setenv("LOOKUP_CONCURRENCY", "2")

	cfg, err := NewScoringConfig()
	require.NoError(t, err)
	assert.Equal(t, 55.5, cfg.WeightPrice)
	// unset weights keep their defaults
	assert.Equal(t, models.Weighting{Price: 55.5, Timeline: 30, Rating: 15, Experience: 15}, cfg.Weighting())
	assert.Equal(t, "weighted", cfg.QualificationMode)
	assert.Equal(t, 2, cfg.LookupConcurrency)
}

func TestNewScoringConfigInvalid(t *testing.T) {
	t.Setenv("WEIGHT_RATING", "a lot")

	_, err := NewScoringConfig()
	assert.Error(t, err)
}
