package config

import (
	"fmt"

	"buildmarket/internal/models"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"DEBUG"`
	PostgresConfig
	ScoringConfig
}

func NewConfig() (*Config, error) {
	config := &Config{ScoringConfig: defaultScoringConfig()}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewConfig: %w", err)
	}
	return config, err
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://test:test@db:5432/test?sslmode=disable"`
	AutoMigrateUp   bool   `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown bool   `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
	// Empty means the migrations embedded into the binary.
	MigrationsURL string `env:"MIGRATIONS_URL"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

// ScoringConfig holds the default bid weighting, used when a ranking request
// does not supply its own. Unset WEIGHT_* variables keep the values of
// models.DefaultWeighting.
type ScoringConfig struct {
	WeightPrice       float64 `env:"WEIGHT_PRICE"`
	WeightTimeline    float64 `env:"WEIGHT_TIMELINE"`
	WeightRating      float64 `env:"WEIGHT_RATING"`
	WeightExperience  float64 `env:"WEIGHT_EXPERIENCE"`
	QualificationMode string  `env:"SCORING_QUALIFICATION_MODE" envDefault:"legacy"`
	// Max number of contractors whose reviews and qualifications are fetched at once.
	LookupConcurrency int `env:"LOOKUP_CONCURRENCY" envDefault:"8"`
}

func NewScoringConfig() (*ScoringConfig, error) {
	cfg := defaultScoringConfig()
	config := &cfg

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewScoringConfig: %w", err)
	}
	return config, err
}

func defaultScoringConfig() ScoringConfig {
	w := models.DefaultWeighting()
	return ScoringConfig{
		WeightPrice:      w.Price,
		WeightTimeline:   w.Timeline,
		WeightRating:     w.Rating,
		WeightExperience: w.Experience,
	}
}

// Weighting returns the configured default weighting.
func (c *ScoringConfig) Weighting() models.Weighting {
	return models.Weighting{
		Price:      c.WeightPrice,
		Timeline:   c.WeightTimeline,
		Rating:     c.WeightRating,
		Experience: c.WeightExperience,
	}
}
