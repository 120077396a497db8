// Package walleterr groups the sentinel errors surfaced by the wallet
// engine, following the error taxonomy of spec §7.
package walleterr

import "errors"

// Scan errors. NotAddressedToUs is never fatal: the scanner logs it at
// debug and moves to the next leaf. MissingData means an expected leaf
// or node was absent and was treated as a zero value.
var (
	ErrNotAddressedToUs = errors.New("scan: leaf could not be decrypted with this wallet's viewing key")
	ErrMissingData       = errors.New("scan: expected leaf or node is absent, treated as zero value")
)

// Planner errors, surfaced to the caller verbatim per spec §6.
var (
	ErrPlannerInfeasible = errors.New("Please consolidate balances before multi-sending. This is due to limited circuit flexibility requiring multi-sending circuits to have the same number of inputs as outputs.")
	ErrPlannerUnsupported = errors.New("This transaction requires a complex circuit for multi-sending, which is not supported by this wallet version.")
	ErrInvariantViolation = errors.New("planner: invalid nullifier count, solution batch cardinality is not in the allowed set")
)

// Storage errors wrap the underlying KV failure.
var ErrStorage = errors.New("storage: key-value operation failed")

// IsNotAddressedToUs reports whether err represents a decryption miss,
// which callers should swallow rather than treat as a hard failure.
func IsNotAddressedToUs(err error) bool {
	return errors.Is(err, ErrNotAddressedToUs)
}
