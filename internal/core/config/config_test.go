package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultDerivation(t *testing.T) {
	cfg := DefaultDerivation()

	assert.True(t, cfg.CompletionThreshold.Equal(decimal.NewFromFloat(0.90)))
	assert.True(t, cfg.PendingShortagePct.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.CompletedShortagePct.Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.DefaultKnittingRate.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.DefaultDyeingRate.Equal(decimal.NewFromInt(10)))
}

func TestDerivationFromEnv_Overrides(t *testing.T) {
	t.Setenv("COMPLETION_THRESHOLD", "0.85")
	t.Setenv("KNITTING_RATE_PER_KG", "7.25")

	cfg := DerivationFromEnv()

	assert.True(t, cfg.CompletionThreshold.Equal(decimal.NewFromFloat(0.85)))
	assert.True(t, cfg.DefaultKnittingRate.Equal(decimal.NewFromFloat(7.25)))
	// Untouched values keep their defaults.
	assert.True(t, cfg.DefaultDyeingRate.Equal(decimal.NewFromInt(10)))
}

func TestDerivationFromEnv_UnparsableFallsBack(t *testing.T) {
	t.Setenv("COMPLETION_THRESHOLD", "ninety percent")

	cfg := DerivationFromEnv()

	assert.True(t, cfg.CompletionThreshold.Equal(decimal.NewFromFloat(0.90)))
}
