// Package stock computes net on-hand balances per (holder, yarn type) from
// the full purchase ledger: everything delivered to the holder minus
// everything the holder sent elsewhere.
package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"loomledger/internal/core/types"
	"loomledger/internal/domain/ledger"
	"loomledger/pkg/logger"
)

// UnknownBucket groups ledger rows whose holder or yarn type field is blank.
// Such rows indicate sloppy data entry but must never be dropped silently.
const UnknownBucket = "(unknown)"

// Balance is the net position of one holder in one yarn type.
type Balance struct {
	Holder   string `json:"holder"`
	YarnType string `json:"yarnType"`

	// Kg and Rolls are clamped at zero for presentation as physical stock.
	Kg    types.Kg `json:"kg"`
	Rolls int      `json:"rolls"`

	// RawKg and RawRolls keep the unclamped values. A negative raw balance
	// means the ledger records more going out than ever came in, which is a
	// data-entry inconsistency worth surfacing, not a valid stock level.
	RawKg    types.Kg `json:"rawKg"`
	RawRolls int      `json:"rawRolls"`
}

// Negative reports whether the computed balance was below zero on either
// measure before clamping.
func (b Balance) Negative() bool {
	return b.RawKg.IsNegative() || b.RawRolls < 0
}

// LedgerReader is the slice of the ledger repository the aggregator scans.
type LedgerReader interface {
	ListPurchasesByHolder(ctx context.Context, holder string) ([]ledger.PurchaseEntry, error)
}

// Service computes stock balances over committed ledger state. It holds no
// state of its own; every call is a fresh pass over the snapshot.
type Service struct {
	entries LedgerReader
}

// NewService creates a stock balance aggregator.
func NewService(entries LedgerReader) *Service {
	return &Service{entries: entries}
}

// Balance returns the holder's net position in one yarn type.
func (s *Service) Balance(ctx context.Context, holder, yarnType string) (Balance, error) {
	rows, err := s.entries.ListPurchasesByHolder(ctx, holder)
	if err != nil {
		return Balance{}, fmt.Errorf("list purchases for %q: %w", holder, err)
	}

	b := Net(rows, holder, yarnType)
	if b.Negative() {
		logger.Warn(ctx, "negative stock balance indicates inconsistent ledger data",
			"holder", b.Holder,
			"yarn_type", b.YarnType,
			"raw_kg", b.RawKg.String(),
			"raw_rolls", b.RawRolls,
		)
	}
	return b, nil
}

// Summary returns the holder's net position across every yarn type that
// appears in its ledger rows, sorted by yarn type.
func (s *Service) Summary(ctx context.Context, holder string) ([]Balance, error) {
	rows, err := s.entries.ListPurchasesByHolder(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("list purchases for %q: %w", holder, err)
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		seen[bucket(r.YarnType)] = true
	}

	yarnTypes := make([]string, 0, len(seen))
	for yt := range seen {
		yarnTypes = append(yarnTypes, yt)
	}
	sort.Strings(yarnTypes)

	out := make([]Balance, 0, len(yarnTypes))
	for _, yt := range yarnTypes {
		b := Net(rows, holder, yt)
		if b.Negative() {
			logger.Warn(ctx, "negative stock balance indicates inconsistent ledger data",
				"holder", b.Holder,
				"yarn_type", b.YarnType,
				"raw_kg", b.RawKg.String(),
				"raw_rolls", b.RawRolls,
			)
		}
		out = append(out, b)
	}
	return out, nil
}

// Net is the pure aggregation: inflow (delivered to the holder) minus outflow
// (supplied by the holder to someone else), kg and rolls independently.
// Deterministic for a given snapshot; blank holder or yarn fields group under
// UnknownBucket rather than being dropped.
func Net(rows []ledger.PurchaseEntry, holder, yarnType string) Balance {
	holder = bucket(holder)
	yarnType = bucket(yarnType)

	kg := decimal.Zero
	rolls := 0

	for _, r := range rows {
		if bucket(r.YarnType) != yarnType {
			continue
		}
		deliveredTo := bucket(r.DeliveredTo)
		supplier := bucket(r.Supplier)

		if deliveredTo == holder {
			kg = kg.Add(r.QtyKg)
			rolls += r.QtyRolls
		}
		if supplier == holder && deliveredTo != holder {
			kg = kg.Sub(r.QtyKg)
			rolls -= r.QtyRolls
		}
	}

	return Balance{
		Holder:   holder,
		YarnType: yarnType,
		Kg:       types.ClampZero(kg),
		Rolls:    clampInt(rolls),
		RawKg:    kg,
		RawRolls: rolls,
	}
}

func bucket(s string) string {
	if s == "" {
		return UnknownBucket
	}
	return s
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
