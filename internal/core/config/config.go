// Package config holds the tunable business constants of the derivation core.
// Every threshold and rate in the derivation logic lives here so deployments
// can adjust them without code changes.
package config

import (
	"os"

	"github.com/shopspring/decimal"

	"loomledger/internal/core/types"
)

// Derivation holds the thresholds and default rates used by the status
// engine, the shortage classifier, and the cost calculator.
type Derivation struct {
	// CompletionThreshold is the fraction of a lot's weight that must come
	// back from dyeing before the lot counts as fully received.
	CompletionThreshold decimal.Decimal

	// PendingShortagePct flags a still-pending dyeing job whose shortage
	// percentage exceeds it.
	PendingShortagePct decimal.Decimal

	// CompletedShortagePct flags a completed dyeing job whose shortage
	// percentage exceeds it. Distinct from PendingShortagePct: a shortage
	// discovered after the job is done is the more serious signal, so this
	// threshold is typically higher.
	CompletedShortagePct decimal.Decimal

	// DefaultKnittingRate is the per-kg knitting charge used when a knitting
	// unit has no rate of its own.
	DefaultKnittingRate types.Money

	// DefaultDyeingRate is the per-kg dyeing charge used when a dyeing unit
	// has no rate of its own.
	DefaultDyeingRate types.Money
}

// DefaultDerivation returns the historically used values.
func DefaultDerivation() Derivation {
	return Derivation{
		CompletionThreshold:  decimal.NewFromFloat(0.90),
		PendingShortagePct:   decimal.NewFromInt(5),
		CompletedShortagePct: decimal.NewFromInt(10),
		DefaultKnittingRate:  decimal.NewFromInt(5),
		DefaultDyeingRate:    decimal.NewFromInt(10),
	}
}

// DerivationFromEnv returns the defaults overridden by environment variables
// where set. Unparsable values fall back to the default silently; the server
// logs the effective configuration at startup.
func DerivationFromEnv() Derivation {
	cfg := DefaultDerivation()
	cfg.CompletionThreshold = envDecimal("COMPLETION_THRESHOLD", cfg.CompletionThreshold)
	cfg.PendingShortagePct = envDecimal("PENDING_SHORTAGE_PCT", cfg.PendingShortagePct)
	cfg.CompletedShortagePct = envDecimal("COMPLETED_SHORTAGE_PCT", cfg.CompletedShortagePct)
	cfg.DefaultKnittingRate = envDecimal("KNITTING_RATE_PER_KG", cfg.DefaultKnittingRate)
	cfg.DefaultDyeingRate = envDecimal("DYEING_RATE_PER_KG", cfg.DefaultDyeingRate)
	return cfg
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fallback
	}
	return d
}
