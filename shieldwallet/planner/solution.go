// Package planner implements the spending-solution planner: coin
// selection constrained to input-set cardinalities the zk circuit
// accepts. Grounded in spirit on the teacher's
// builder/orchard/wallet.OrchardWallet.SelectNotesForAmount (a
// largest-first greedy selector), generalized to spec §4.5's
// valid-cardinality search and multi-output orchestration.
package planner

import (
	"math/big"
	"sort"

	"github.com/shielded-pool/engine/log"
	"github.com/shielded-pool/engine/shieldwallet/note"
	"github.com/shielded-pool/engine/shieldwallet/txo"
	"github.com/shielded-pool/engine/shieldwallet/walleterr"
)

// ValidNullifierCounts is V = {1, 2, 8}: the only input-set
// cardinalities the zk circuit accepts for a single spending group.
var ValidNullifierCounts = []int{1, 2, 8}

func isValidCount(n int) bool {
	for _, v := range ValidNullifierCounts {
		if v == n {
			return true
		}
	}
	return false
}

// SortUTXOsBySize sorts utxos descending by value, stable on ties. A
// zero-value UTXO sorts last regardless of tie-breaking, since a
// descending sort on value already places zero last among non-negative
// values.
func SortUTXOsBySize(utxos []*txo.TXO) []*txo.TXO {
	sorted := make([]*txo.TXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Note.Value.Cmp(sorted[j].Note.Value) > 0
	})
	return sorted
}

// NextNullifierTarget is min{v in V : v > n}, or nil if n >= max(V).
func NextNullifierTarget(n int) *int {
	for _, v := range ValidNullifierCounts {
		if v > n {
			return &v
		}
	}
	return nil
}

// ShouldAddMoreUTXOsForSolutionBatch decides whether the accumulation
// loop in FindNextSolutionBatch should keep adding UTXOs. Once the sum
// covers the required value, it keeps growing only to reach a valid
// cardinality. If no further valid cardinality is reachable at all
// (the next target exceeds the available UTXO count, or none exists),
// it stops — there is nothing to gain by continuing to grow.
func ShouldAddMoreUTXOsForSolutionBatch(spending []*txo.TXO, all []*txo.TXO, required *big.Int) bool {
	s := sumValues(spending)
	k := len(spending)
	n := len(all)

	if s.Cmp(required) >= 0 {
		return !isValidCount(k)
	}

	target := NextNullifierTarget(k)
	if target == nil || *target > n {
		return false
	}
	return true
}

// FindNextSolutionBatch filters excluded txids out of treeUTXOs,
// accumulates the largest remaining UTXOs while
// ShouldAddMoreUTXOsForSolutionBatch says to continue, and returns the
// batch once its cardinality is valid.
func FindNextSolutionBatch(treeUTXOs []*txo.TXO, required *big.Int, excluded map[string]bool) ([]*txo.TXO, error) {
	var candidates []*txo.TXO
	for _, u := range treeUTXOs {
		if !excluded[u.Txid] {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sorted := SortUTXOsBySize(candidates)

	var batch []*txo.TXO
	for _, u := range sorted {
		if !ShouldAddMoreUTXOsForSolutionBatch(batch, sorted, required) {
			break
		}
		batch = append(batch, u)
	}

	if len(batch) == 1 && batch[0].Note.IsZeroValue() {
		// A zero-value TXO is never the sole entry in a solution group.
		return nil, nil
	}

	if !isValidCount(len(batch)) {
		return nil, walleterr.ErrInvariantViolation
	}
	return batch, nil
}

func sumValues(utxos []*txo.TXO) *big.Int {
	sum := big.NewInt(0)
	for _, u := range utxos {
		sum.Add(sum, u.Note.Value)
	}
	return sum
}

// CreateSpendingSolutionGroupsForOutput satisfies a single output from
// treeBalances in tree order, consuming remainingOutputs and extending
// excluded in place, per spec §4.5.
func CreateSpendingSolutionGroupsForOutput(
	treeBalances []*txo.TreeBalance,
	output *note.Note,
	remainingOutputs *[]*note.Note,
	excluded map[string]bool,
) ([]*txo.SpendingSolutionGroup, error) {
	left := new(big.Int).Set(output.Value)
	removeNote(remainingOutputs, output)

	var groups []*txo.SpendingSolutionGroup

	for _, tb := range treeBalances {
		for left.Sign() > 0 {
			batch, err := FindNextSolutionBatch(tb.UTXOs, left, excluded)
			if err != nil {
				return nil, err
			}
			if batch == nil {
				break
			}

			for _, u := range batch {
				excluded[u.Txid] = true
			}

			totalSpend := sumValues(batch)
			solutionValue := new(big.Int).Set(totalSpend)
			if solutionValue.Cmp(left) > 0 {
				solutionValue = new(big.Int).Set(left)
			}

			groups = append(groups, &txo.SpendingSolutionGroup{
				SpendingTree:  tb.Tree,
				UTXOs:         batch,
				Outputs:       []*note.Note{output.Clone(solutionValue)},
				WithdrawValue: big.NewInt(0),
			})

			left.Sub(left, totalSpend)
		}
		if left.Sign() <= 0 {
			break
		}
	}

	if left.Sign() > 0 {
		return nil, walleterr.ErrPlannerInfeasible
	}
	return groups, nil
}

// CreateSimpleSpendingSolutionGroup satisfies output with a single
// spending group drawn from a single tree, the structurally simplest
// circuit shape. If no single tree's balance covers output.value in
// one valid-cardinality batch, but the multi-tree/multi-group path
// could satisfy it, PlannerUnsupported is raised: a true single-output
// send is not the complex multi-group circuit the request actually
// needs. If no combination of trees can cover it at all,
// PlannerInfeasible propagates from the multi-group attempt.
func CreateSimpleSpendingSolutionGroup(treeBalances []*txo.TreeBalance, output *note.Note) (*txo.SpendingSolutionGroup, error) {
	excluded := make(map[string]bool)
	for _, tb := range treeBalances {
		batch, err := FindNextSolutionBatch(tb.UTXOs, output.Value, excluded)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			continue
		}
		totalSpend := sumValues(batch)
		if totalSpend.Cmp(output.Value) >= 0 {
			return &txo.SpendingSolutionGroup{
				SpendingTree:  tb.Tree,
				UTXOs:         batch,
				Outputs:       []*note.Note{output.Clone(new(big.Int).Set(output.Value))},
				WithdrawValue: big.NewInt(0),
			}, nil
		}
	}

	remaining := []*note.Note{output}
	groups, err := CreateSpendingSolutionGroupsForOutput(treeBalances, output, &remaining, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	if len(groups) > 1 {
		return nil, walleterr.ErrPlannerUnsupported
	}
	if len(groups) == 0 {
		return nil, walleterr.ErrInvariantViolation
	}
	return groups[0], nil
}

// CreateComplexSatisfyingSpendingSolutionGroups processes outputs in
// order, sharing one excluded set across all of them. It is not
// globally optimal across many destination addresses — this is the
// explicit limitation described in spec §4.5.
func CreateComplexSatisfyingSpendingSolutionGroups(
	treeBalances []*txo.TreeBalance,
	outputs []*note.Note,
) ([]*txo.SpendingSolutionGroup, error) {
	remaining := make([]*note.Note, len(outputs))
	copy(remaining, outputs)
	excluded := make(map[string]bool)

	var all []*txo.SpendingSolutionGroup
	for len(remaining) > 0 {
		current := remaining[0]
		groups, err := CreateSpendingSolutionGroupsForOutput(treeBalances, current, &remaining, excluded)
		if err != nil {
			log.Debug(log.Planner, "output unsatisfiable", "value", current.Value)
			return nil, err
		}
		all = append(all, groups...)
	}
	return all, nil
}

func removeNote(notes *[]*note.Note, target *note.Note) {
	for i, n := range *notes {
		if n == target {
			*notes = append((*notes)[:i], (*notes)[i+1:]...)
			return
		}
	}
}
