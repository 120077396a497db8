package planner

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shielded-pool/engine/shieldwallet/note"
	"github.com/shielded-pool/engine/shieldwallet/txo"
	"github.com/shielded-pool/engine/shieldwallet/walleterr"
)

func utxo(txid string, value int64) *txo.TXO {
	return &txo.TXO{
		Txid: txid,
		Note: &note.Note{Value: big.NewInt(value)},
	}
}

func outputNote(value int64) *note.Note {
	return &note.Note{
		MasterPublicKey: big.NewInt(1),
		Value:           big.NewInt(value),
	}
}

func TestNextNullifierTargetTable(t *testing.T) {
	cases := map[int]*int{0: ptr(1), 1: ptr(2), 2: ptr(8), 7: ptr(8), 8: nil, 9: nil}
	for n, want := range cases {
		got := NextNullifierTarget(n)
		if want == nil {
			require.Nil(t, got, "n=%d", n)
		} else {
			require.NotNil(t, got, "n=%d", n)
			require.Equal(t, *want, *got, "n=%d", n)
		}
	}
}

func TestShouldAddMoreUTXOsForSolutionBatchTable(t *testing.T) {
	required := big.NewInt(1000)

	cases := []struct {
		k, n int
		sum  int64
		want bool
	}{
		{1, 5, 1000, false},
		{3, 5, 1001, true},
		{3, 8, 999, true},
		{3, 5, 999, false},
		{8, 10, 999, false},
	}

	for _, c := range cases {
		spending := make([]*txo.TXO, c.k)
		for i := range spending {
			spending[i] = utxo("x", 0)
		}
		spending[0].Note.Value = big.NewInt(c.sum)
		for i := 1; i < c.k; i++ {
			spending[i].Note.Value = big.NewInt(0)
		}
		all := make([]*txo.TXO, c.n)
		for i := range all {
			all[i] = utxo("y", 0)
		}

		got := ShouldAddMoreUTXOsForSolutionBatch(spending, all, required)
		require.Equal(t, c.want, got, "case k=%d n=%d sum=%d", c.k, c.n, c.sum)
	}
}

func sixUTXOTree() []*txo.TXO {
	return []*txo.TXO{
		utxo("a", 30),
		utxo("b", 40),
		utxo("c", 50),
		utxo("d", 10),
		utxo("e", 20),
		utxo("f", 0),
	}
}

func txids(utxos []*txo.TXO) []string {
	out := make([]string, len(utxos))
	for i, u := range utxos {
		out[i] = u.Txid
	}
	return out
}

func TestFindNextSolutionBatchScenarios(t *testing.T) {
	tree := sixUTXOTree()

	batch, err := FindNextSolutionBatch(tree, big.NewInt(180), map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, txids(batch))

	batch, err = FindNextSolutionBatch(tree, big.NewInt(180), map[string]bool{"a": true, "b": true})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "e"}, txids(batch))

	batch, err = FindNextSolutionBatch(tree, big.NewInt(10), map[string]bool{"a": true, "b": true})
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, txids(batch))

	batch, err = FindNextSolutionBatch(tree, big.NewInt(120), map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, txids(batch))

	batch, err = FindNextSolutionBatch(tree, big.NewInt(180), map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true, "f": true})
	require.NoError(t, err)
	require.Nil(t, batch)

	batch, err = FindNextSolutionBatch(tree, big.NewInt(180), map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true})
	require.NoError(t, err)
	require.Nil(t, batch)
}

func TestMultiOutputComplexSatisfyingScenario(t *testing.T) {
	t0 := &txo.TreeBalance{
		Tree:    0,
		Balance: big.NewInt(20),
		UTXOs:   []*txo.TXO{utxo("aa", 20), utxo("ab", 0), utxo("ac", 0)},
	}
	t1 := &txo.TreeBalance{
		Tree:    1,
		Balance: big.NewInt(450),
		UTXOs: []*txo.TXO{
			utxo("a", 30), utxo("b", 40), utxo("c", 50), utxo("d", 10),
			utxo("e", 20), utxo("f", 60), utxo("g", 70), utxo("h", 80), utxo("i", 90),
		},
	}

	addr1 := outputNote(80)
	addr2 := outputNote(70)
	addr3 := outputNote(60)

	groups, err := CreateComplexSatisfyingSpendingSolutionGroups([]*txo.TreeBalance{t0, t1}, []*note.Note{addr1, addr2, addr3})
	require.NoError(t, err)
	require.Len(t, groups, 4)

	require.Equal(t, []string{"aa", "ab"}, txids(groups[0].UTXOs))
	require.Equal(t, big.NewInt(20), groups[0].Outputs[0].Value)

	require.Equal(t, []string{"i"}, txids(groups[1].UTXOs))
	require.Equal(t, big.NewInt(60), groups[1].Outputs[0].Value)

	require.Equal(t, []string{"h"}, txids(groups[2].UTXOs))
	require.Equal(t, big.NewInt(70), groups[2].Outputs[0].Value)

	require.Equal(t, []string{"g"}, txids(groups[3].UTXOs))
	require.Equal(t, big.NewInt(60), groups[3].Outputs[0].Value)
}

func TestSingleOutputExceedingAvailableBalanceRaisesInfeasible(t *testing.T) {
	t0 := &txo.TreeBalance{
		Tree:  0,
		UTXOs: []*txo.TXO{utxo("aa", 20), utxo("ab", 0), utxo("ac", 0)},
	}
	t1 := &txo.TreeBalance{
		Tree: 1,
		UTXOs: []*txo.TXO{
			utxo("a", 30), utxo("b", 40), utxo("c", 50), utxo("d", 10),
			utxo("e", 20), utxo("f", 60), utxo("g", 70), utxo("h", 80), utxo("i", 90),
		},
	}

	out := outputNote(500)
	_, err := CreateComplexSatisfyingSpendingSolutionGroups([]*txo.TreeBalance{t0, t1}, []*note.Note{out})
	require.ErrorIs(t, err, walleterr.ErrPlannerInfeasible)
}

func TestSimpleSpendCoveredByOneTreeSucceeds(t *testing.T) {
	t0 := &txo.TreeBalance{
		Tree:  0,
		UTXOs: []*txo.TXO{utxo("a", 100), utxo("b", 50)},
	}
	group, err := CreateSimpleSpendingSolutionGroup([]*txo.TreeBalance{t0}, outputNote(100))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, txids(group.UTXOs))
}

func TestSimpleSpendRequiringMultipleGroupsIsUnsupported(t *testing.T) {
	t0 := &txo.TreeBalance{
		Tree:  0,
		UTXOs: []*txo.TXO{utxo("a", 30), utxo("b", 40)},
	}
	t1 := &txo.TreeBalance{
		Tree:  1,
		UTXOs: []*txo.TXO{utxo("c", 30), utxo("d", 20)},
	}
	_, err := CreateSimpleSpendingSolutionGroup([]*txo.TreeBalance{t0, t1}, outputNote(90))
	require.ErrorIs(t, err, walleterr.ErrPlannerUnsupported)
}

func ptr(v int) *int { return &v }
