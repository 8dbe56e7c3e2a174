package dto

import (
	"github.com/shopspring/decimal"

	"loomledger/internal/core/types"
	"loomledger/internal/domain/costing"
	"loomledger/internal/domain/reports"
	"loomledger/internal/domain/shortage"
	"loomledger/internal/domain/status"
	"loomledger/internal/domain/stock"
)

// DiagnosticResponse is the API shape of a derivation diagnostic.
type DiagnosticResponse struct {
	Code    string `json:"code"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// FromDiagnostics maps derivation diagnostics.
func FromDiagnostics(diags []status.Diagnostic) []DiagnosticResponse {
	if len(diags) == 0 {
		return nil
	}
	out := make([]DiagnosticResponse, len(diags))
	for i, d := range diags {
		out[i] = DiagnosticResponse{Code: d.Code, Ref: d.Ref, Message: d.Message}
	}
	return out
}

// StatusResponse is a derived status with its diagnostics.
type StatusResponse struct {
	Ref         string               `json:"ref"`
	Status      string               `json:"status"`
	Diagnostics []DiagnosticResponse `json:"diagnostics,omitempty"`
}

// BalanceResponse is the API shape of a stock balance.
type BalanceResponse struct {
	Holder   string          `json:"holder"`
	YarnType string          `json:"yarnType"`
	Kg       decimal.Decimal `json:"kg"`
	Rolls    int             `json:"rolls"`
	RawKg    decimal.Decimal `json:"rawKg"`
	RawRolls int             `json:"rawRolls"`
	Negative bool            `json:"negative"`
}

// FromBalance creates BalanceResponse from a computed balance.
func FromBalance(b stock.Balance) BalanceResponse {
	return BalanceResponse{
		Holder:   b.Holder,
		YarnType: b.YarnType,
		Kg:       types.Round2(b.Kg),
		Rolls:    b.Rolls,
		RawKg:    types.Round2(b.RawKg),
		RawRolls: b.RawRolls,
		Negative: b.Negative(),
	}
}

// ShortageRowResponse is the API shape of a classified dyeing job.
type ShortageRowResponse struct {
	BatchRef       string          `json:"batchRef"`
	LotNo          string          `json:"lotNo"`
	YarnType       string          `json:"yarnType,omitempty"`
	OrigKg         decimal.Decimal `json:"origKg"`
	OrigRolls      int             `json:"origRolls"`
	ReturnedKg     decimal.Decimal `json:"returnedKg"`
	ReturnedRolls  int             `json:"returnedRolls"`
	ShortKg        decimal.Decimal `json:"shortKg"`
	ShortPct       decimal.Decimal `json:"shortPct"`
	Classification string          `json:"classification"`
	Flagged        bool            `json:"flagged"`
}

// FromShortageRow creates ShortageRowResponse from a classified row.
func FromShortageRow(r shortage.Row) ShortageRowResponse {
	return ShortageRowResponse{
		BatchRef:       r.BatchRef,
		LotNo:          r.LotNo,
		YarnType:       r.YarnType,
		OrigKg:         types.Round2(r.OrigKg),
		OrigRolls:      r.OrigRolls,
		ReturnedKg:     types.Round2(r.ReturnedKg),
		ReturnedRolls:  r.ReturnedRolls,
		ShortKg:        types.Round2(r.ShortKg),
		ShortPct:       types.Round2(r.ShortPct),
		Classification: string(r.Classification),
		Flagged:        r.Flagged,
	}
}

// ProcessingLineResponse is one party's charge in a cost breakdown.
type ProcessingLineResponse struct {
	Party     string          `json:"party"`
	RatePerKg decimal.Decimal `json:"ratePerKg"`
	Kg        decimal.Decimal `json:"kg"`
	Cost      decimal.Decimal `json:"cost"`
}

// BreakdownResponse is the API shape of a batch cost breakdown.
type BreakdownResponse struct {
	BatchRef     string                   `json:"batchRef"`
	YarnCost     decimal.Decimal          `json:"yarnCost"`
	KnittingCost decimal.Decimal          `json:"knittingCost"`
	DyeingCost   decimal.Decimal          `json:"dyeingCost"`
	Total        decimal.Decimal          `json:"total"`
	Knitting     []ProcessingLineResponse `json:"knitting,omitempty"`
	Dyeing       []ProcessingLineResponse `json:"dyeing,omitempty"`
}

// FromBreakdown creates BreakdownResponse from a computed breakdown.
// Rounding to 2dp happens here, never inside the calculator.
func FromBreakdown(b *costing.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		BatchRef:     b.BatchRef,
		YarnCost:     types.Round2(b.YarnCost),
		KnittingCost: types.Round2(b.KnittingCost),
		DyeingCost:   types.Round2(b.DyeingCost),
		Total:        types.Round2(b.Total),
		Knitting:     fromLines(b.Knitting),
		Dyeing:       fromLines(b.Dyeing),
	}
}

func fromLines(lines []costing.ProcessingLine) []ProcessingLineResponse {
	if len(lines) == 0 {
		return nil
	}
	out := make([]ProcessingLineResponse, len(lines))
	for i, l := range lines {
		out[i] = ProcessingLineResponse{
			Party:     l.Party,
			RatePerKg: l.RatePerKg,
			Kg:        types.Round2(l.Kg),
			Cost:      types.Round2(l.Cost),
		}
	}
	return out
}

// JournalResponse is the API shape of a purchase journal.
type JournalResponse struct {
	From       string             `json:"from"`
	To         string             `json:"to"`
	Entries    []PurchaseResponse `json:"entries"`
	TotalKg    decimal.Decimal    `json:"totalKg"`
	TotalRolls int                `json:"totalRolls"`
	TotalValue decimal.Decimal    `json:"totalValue"`
}

// FromJournal creates JournalResponse from a computed journal.
func FromJournal(j *reports.Journal) JournalResponse {
	return JournalResponse{
		From:       j.From.Format(dateLayout),
		To:         j.To.Format(dateLayout),
		Entries:    FromPurchases(j.Entries),
		TotalKg:    types.Round2(j.TotalKg),
		TotalRolls: j.TotalRolls,
		TotalValue: types.Round2(j.TotalValue),
	}
}
