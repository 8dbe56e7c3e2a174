package status

import (
	"fmt"

	"loomledger/internal/core/apperror"
	"loomledger/internal/domain/registry"
)

// Resolution is the outcome of looking a soft lot reference up in the
// registry. Ledger rows reference lots by string, so a row may point at a lot
// that does not exist yet; resolution makes that case explicit instead of
// letting a nil leak into aggregation code.
type Resolution struct {
	// Lot is set when the reference resolved.
	Lot *registry.Lot

	// RawRef is the original reference, kept for diagnostics when the lookup
	// failed.
	RawRef string
}

// Resolved reports whether the reference found its registry row.
func (r Resolution) Resolved() bool {
	return r.Lot != nil
}

// Resolved wraps a found lot.
func Resolved(lot *registry.Lot) Resolution {
	return Resolution{Lot: lot, RawRef: lot.LotNo}
}

// Unresolved marks a dangling reference.
func Unresolved(rawRef string) Resolution {
	return Resolution{RawRef: rawRef}
}

// Diagnostic is a non-fatal finding surfaced by a derivation pass: dangling
// references, unknown weights, unresolvable parties. Derivation absorbs these
// instead of aborting; callers decide how loudly to report them.
type Diagnostic struct {
	Code    string `json:"code"`
	Ref     string `json:"ref"`
	Message string `json:"message"`
}

func danglingLot(lotNo string) Diagnostic {
	return Diagnostic{
		Code:    apperror.CodeDanglingReference,
		Ref:     lotNo,
		Message: fmt.Sprintf("lot %q is referenced by the ledger but missing from the registry", lotNo),
	}
}

func danglingBatch(batchRef string) Diagnostic {
	return Diagnostic{
		Code:    apperror.CodeDanglingReference,
		Ref:     batchRef,
		Message: fmt.Sprintf("batch %q is referenced by the ledger but missing from the registry", batchRef),
	}
}

func weightUnknown(lotNo string) Diagnostic {
	return Diagnostic{
		Code:    "WEIGHT_UNKNOWN",
		Ref:     lotNo,
		Message: fmt.Sprintf("lot %q has dyeing returns but no recorded weight; completion cannot be judged", lotNo),
	}
}

func unknownParty(name string) Diagnostic {
	return Diagnostic{
		Code:    apperror.CodeDanglingReference,
		Ref:     name,
		Message: fmt.Sprintf("party %q is referenced by the ledger but missing from the masters", name),
	}
}
