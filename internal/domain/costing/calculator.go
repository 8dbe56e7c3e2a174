// Package costing computes the net price of a batch from its purchase ledger
// and dyeing returns: yarn cost plus per-kg processing charges for each
// knitting and dyeing party involved.
package costing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/config"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/pkg/logger"
)

// ProcessingLine is one party's charge within a cost breakdown.
type ProcessingLine struct {
	Party     string      `json:"party"`
	RatePerKg types.Money `json:"ratePerKg"`
	Kg        types.Kg    `json:"kg"`
	Cost      types.Money `json:"cost"`
}

// Breakdown is the full cost composition of a batch. All amounts carry full
// decimal precision; rounding happens only at the presentation boundary.
type Breakdown struct {
	BatchRef string `json:"batchRef"`

	YarnCost     types.Money `json:"yarnCost"`
	KnittingCost types.Money `json:"knittingCost"`
	DyeingCost   types.Money `json:"dyeingCost"`
	Total        types.Money `json:"total"`

	Knitting []ProcessingLine `json:"knitting,omitempty"`
	Dyeing   []ProcessingLine `json:"dyeing,omitempty"`
}

// LedgerReader is the slice of the ledger repository the calculator reads.
type LedgerReader interface {
	ListPurchasesByBatchRef(ctx context.Context, batchRef string) ([]ledger.PurchaseEntry, error)
	ListReturnsByLots(ctx context.Context, lotIDs []id.ID) ([]ledger.DyeingReturnEntry, error)
}

// RegistryAccess resolves a batch and its lots.
type RegistryAccess interface {
	GetBatchByRef(ctx context.Context, batchRef string) (*registry.Batch, error)
	ListLotsByBatch(ctx context.Context, batchID id.ID) ([]registry.Lot, error)
}

// PartyDirectory resolves parties for rate lookup.
type PartyDirectory interface {
	GetByID(ctx context.Context, partyID id.ID) (*party.Party, error)
	GetByName(ctx context.Context, name string) (*party.Party, error)
}

// Service is the cost calculator.
type Service struct {
	entries  LedgerReader
	registry RegistryAccess
	parties  PartyDirectory
	cfg      config.Derivation
}

// NewService creates a cost calculator with the given default rates.
func NewService(entries LedgerReader, reg RegistryAccess, parties PartyDirectory, cfg config.Derivation) *Service {
	return &Service{entries: entries, registry: reg, parties: parties, cfg: cfg}
}

// NetPrice computes the cost breakdown of one batch:
//
//	yarn cost     = Σ unit_price × qty_kg over the batch's purchase rows
//	knitting cost = per knitting party, rate × Σ kg delivered to it
//	dyeing cost   = per dyeing party, rate × Σ kg it returned for the batch's lots
//
// A party's own per-kg rate wins over the configured default for its role.
func (s *Service) NetPrice(ctx context.Context, batchRef string) (*Breakdown, error) {
	batch, err := s.registry.GetBatchByRef(ctx, batchRef)
	if err != nil {
		return nil, err
	}

	purchases, err := s.entries.ListPurchasesByBatchRef(ctx, batchRef)
	if err != nil {
		return nil, fmt.Errorf("list purchases for batch %q: %w", batchRef, err)
	}

	b := &Breakdown{BatchRef: batchRef}

	// Yarn cost and per-knitting-party delivered weight in one pass.
	knitKg := make(map[id.ID]decimal.Decimal)
	knitParty := make(map[id.ID]*party.Party)
	for _, p := range purchases {
		b.YarnCost = b.YarnCost.Add(p.UnitPrice.Mul(p.QtyKg))

		if p.DeliveredTo == "" {
			continue
		}
		pt, err := s.parties.GetByName(ctx, p.DeliveredTo)
		if err != nil {
			if apperror.IsNotFound(err) {
				logger.Warn(ctx, "purchase references unknown party, excluded from processing cost",
					"batch_ref", batchRef, "party", p.DeliveredTo)
				continue
			}
			return nil, err
		}
		if pt.Role != party.RoleKnittingUnit {
			continue
		}
		knitKg[pt.ID] = knitKg[pt.ID].Add(p.QtyKg)
		knitParty[pt.ID] = pt
	}

	for pid, kg := range knitKg {
		pt := knitParty[pid]
		rate := s.rateFor(pt)
		line := ProcessingLine{Party: pt.Name, RatePerKg: rate, Kg: kg, Cost: rate.Mul(kg)}
		b.Knitting = append(b.Knitting, line)
		b.KnittingCost = b.KnittingCost.Add(line.Cost)
	}

	// Dyeing cost over the returns recorded against the batch's lots.
	dyeKg, dyeParty, err := s.dyeingWeights(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	for pid, kg := range dyeKg {
		pt := dyeParty[pid]
		rate := s.rateFor(pt)
		line := ProcessingLine{Party: pt.Name, RatePerKg: rate, Kg: kg, Cost: rate.Mul(kg)}
		b.Dyeing = append(b.Dyeing, line)
		b.DyeingCost = b.DyeingCost.Add(line.Cost)
	}

	sortLines(b.Knitting)
	sortLines(b.Dyeing)

	b.Total = b.YarnCost.Add(b.KnittingCost).Add(b.DyeingCost)
	return b, nil
}

func (s *Service) dyeingWeights(ctx context.Context, batchID id.ID) (map[id.ID]decimal.Decimal, map[id.ID]*party.Party, error) {
	lots, err := s.registry.ListLotsByBatch(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("list lots: %w", err)
	}
	if len(lots) == 0 {
		return nil, nil, nil
	}

	lotIDs := make([]id.ID, len(lots))
	for i, l := range lots {
		lotIDs[i] = l.ID
	}
	returns, err := s.entries.ListReturnsByLots(ctx, lotIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("list returns: %w", err)
	}

	kgByUnit := make(map[id.ID]decimal.Decimal)
	units := make(map[id.ID]*party.Party)
	for _, r := range returns {
		if _, ok := units[r.DyeingUnitID]; !ok {
			pt, err := s.parties.GetByID(ctx, r.DyeingUnitID)
			if err != nil {
				return nil, nil, err
			}
			units[r.DyeingUnitID] = pt
		}
		kgByUnit[r.DyeingUnitID] = kgByUnit[r.DyeingUnitID].Add(r.ReturnedKg)
	}
	return kgByUnit, units, nil
}

// rateFor resolves a processor's per-kg rate: its own rate when set, else the
// configured default for its role.
func (s *Service) rateFor(pt *party.Party) types.Money {
	if pt.RatePerKg != nil {
		return *pt.RatePerKg
	}
	switch pt.Role {
	case party.RoleKnittingUnit:
		return s.cfg.DefaultKnittingRate
	case party.RoleDyeingUnit:
		return s.cfg.DefaultDyeingRate
	default:
		return decimal.Zero
	}
}

func sortLines(lines []ProcessingLine) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Party < lines[j].Party })
}
