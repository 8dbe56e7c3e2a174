// Package shortage classifies dyeing jobs as pending or completed and flags
// the ones whose weight loss exceeds the configured tolerance.
package shortage

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
)

// Classification of a dyeing job.
type Classification string

const (
	Pending   Classification = "pending"
	Completed Classification = "completed"
)

// Row is one dyeing job: everything a dyeing unit received for one lot of one
// yarn type, against everything it sent back.
type Row struct {
	BatchRef string `json:"batchRef"`
	LotNo    string `json:"lotNo"`
	YarnType string `json:"yarnType"`

	OrigKg    types.Kg `json:"origKg"`
	OrigRolls int      `json:"origRolls"`

	ReturnedKg    types.Kg `json:"returnedKg"`
	ReturnedRolls int      `json:"returnedRolls"`

	// ShortKg may be negative when the unit returned more than it received;
	// that is reported as-is, not clamped.
	ShortKg  types.Kg        `json:"shortKg"`
	ShortPct decimal.Decimal `json:"shortPct"`

	Classification Classification `json:"classification"`
	Flagged        bool           `json:"flagged"`
}

// LedgerReader is the slice of the ledger repository the classifier reads.
type LedgerReader interface {
	ListPurchasesDeliveredTo(ctx context.Context, deliveredTo string) ([]ledger.PurchaseEntry, error)
	ListReturnsByLotAndUnit(ctx context.Context, lotID, dyeingUnitID id.ID) ([]ledger.DyeingReturnEntry, error)
}

// LotResolver resolves lot numbers from ledger rows to registry lots.
type LotResolver interface {
	GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error)
}

// PartyDirectory resolves dyeing unit names.
type PartyDirectory interface {
	GetByName(ctx context.Context, name string) (*party.Party, error)
}

// Service is the shortage and completion classifier.
type Service struct {
	entries LedgerReader
	lots    LotResolver
	parties PartyDirectory
	cfg     config.Derivation
}

// NewService creates a classifier with the given thresholds.
func NewService(entries LedgerReader, lots LotResolver, parties PartyDirectory, cfg config.Derivation) *Service {
	return &Service{entries: entries, lots: lots, parties: parties, cfg: cfg}
}

// Report classifies every dyeing job at the named unit. Jobs are grouped by
// (batch ref, lot no, yarn type) over the purchases delivered to the unit;
// rows come back sorted by batch ref, then lot no, then yarn type.
func (s *Service) Report(ctx context.Context, dyeingUnit string) ([]Row, error) {
	unit, err := s.parties.GetByName(ctx, dyeingUnit)
	if err != nil {
		return nil, err
	}
	if unit.Role != party.RoleDyeingUnit {
		return nil, apperror.NewValidation(fmt.Sprintf("party %q is not a dyeing unit", dyeingUnit))
	}

	purchases, err := s.entries.ListPurchasesDeliveredTo(ctx, dyeingUnit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries to %q: %w", dyeingUnit, err)
	}

	type jobKey struct {
		batchRef string
		lotNo    string
		yarnType string
	}
	jobs := make(map[jobKey]*Row)
	order := make([]jobKey, 0)

	for _, p := range purchases {
		k := jobKey{batchRef: p.BatchRef, lotNo: p.LotNo, yarnType: p.YarnType}
		r, ok := jobs[k]
		if !ok {
			r = &Row{BatchRef: k.batchRef, LotNo: k.lotNo, YarnType: k.yarnType}
			jobs[k] = r
			order = append(order, k)
		}
		r.OrigKg = r.OrigKg.Add(p.QtyKg)
		r.OrigRolls += p.QtyRolls
	}

	// Returns are keyed by lot, not by yarn type; a lot that splits into
	// multiple yarn-type rows shares its returns across them only when the
	// lot resolves. An unresolvable lot number simply has no returns yet.
	kgByLot := make(map[string]decimal.Decimal)
	rollsByLot := make(map[string]int)
	for _, k := range order {
		if _, done := rollsByLot[k.lotNo]; done {
			continue
		}
		lot, err := s.lots.GetLotByNo(ctx, k.lotNo)
		if err != nil {
			if apperror.IsNotFound(err) {
				rollsByLot[k.lotNo] = 0
				continue
			}
			return nil, err
		}
		rets, err := s.entries.ListReturnsByLotAndUnit(ctx, lot.ID, unit.ID)
		if err != nil {
			return nil, fmt.Errorf("list returns for lot %q: %w", k.lotNo, err)
		}
		kg := decimal.Zero
		rolls := 0
		for _, ret := range rets {
			kg = kg.Add(ret.ReturnedKg)
			rolls += ret.ReturnedRolls
		}
		kgByLot[k.lotNo] = kg
		rollsByLot[k.lotNo] = rolls
	}

	out := make([]Row, 0, len(order))
	for _, k := range order {
		r := jobs[k]
		if kg, ok := kgByLot[k.lotNo]; ok {
			r.ReturnedKg = kg
		}
		r.ReturnedRolls = rollsByLot[k.lotNo]
		s.classify(r)
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BatchRef != out[j].BatchRef {
			return out[i].BatchRef < out[j].BatchRef
		}
		if out[i].LotNo != out[j].LotNo {
			return out[i].LotNo < out[j].LotNo
		}
		return out[i].YarnType < out[j].YarnType
	})
	return out, nil
}

// Classify fills the derived fields of a row whose orig and returned
// quantities are already set. Exported for callers that assemble rows from
// their own queries.
func Classify(r *Row, cfg config.Derivation) {
	(&Service{cfg: cfg}).classify(r)
}

func (s *Service) classify(r *Row) {
	r.ShortKg = r.OrigKg.Sub(r.ReturnedKg)

	if r.OrigKg.IsPositive() {
		r.ShortPct = r.ShortKg.Div(r.OrigKg).Mul(decimal.NewFromInt(100))
	} else {
		r.ShortPct = decimal.Zero
	}

	if s.isPending(r) {
		r.Classification = Pending
		r.Flagged = r.ShortPct.GreaterThan(s.cfg.PendingShortagePct)
	} else {
		r.Classification = Completed
		r.Flagged = r.ShortPct.GreaterThan(s.cfg.CompletedShortagePct)
	}
}

// isPending: the job is still open while fewer rolls came back than went out.
// When rolls were never recorded, weight decides against the completion
// threshold instead.
func (s *Service) isPending(r *Row) bool {
	if r.OrigRolls > 0 {
		return r.ReturnedRolls < r.OrigRolls
	}
	return r.ReturnedKg.LessThan(r.OrigKg.Mul(s.cfg.CompletionThreshold))
}
