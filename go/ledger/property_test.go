// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Nabucco/go/host/memory"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/ethereum/go-ethereum/common"
	"pgregory.net/rand"
)

// ledgerModel is a trivial reference implementation the real ledger is
// compared against. Amounts are kept far below 64 bits, so plain integer
// arithmetic is sufficient.
type ledgerModel struct {
	balances   map[nabucco.Address]uint64
	allowances map[[2]nabucco.Address]uint64
	supply     uint64
}

func (m *ledgerModel) transfer(from, to nabucco.Address, amount uint64) bool {
	if m.balances[from] < amount {
		return false
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return true
}

func (m *ledgerModel) transferFrom(spender, from, to nabucco.Address, amount uint64) bool {
	key := [2]nabucco.Address{from, spender}
	if m.allowances[key] < amount || m.balances[from] < amount {
		return false
	}
	m.allowances[key] -= amount
	return m.transfer(from, to, amount)
}

func TestLedger_RandomOperationsMatchReferenceModel(t *testing.T) {
	const numSteps = 2000

	accounts := []nabucco.Address{{1}, {2}, {3}, {}}

	rnd := rand.New(0)
	pick := func() nabucco.Address {
		return accounts[rnd.Intn(len(accounts))]
	}

	context := memory.NewContext()
	context.SetCaller(accounts[0])
	if _, err := call(t, context, "init", "Fuzz", "FZ", uint8(2), big.NewInt(10_000)); err != nil {
		t.Fatalf("failed to initialize ledger: %v", err)
	}

	model := &ledgerModel{
		balances:   map[nabucco.Address]uint64{accounts[0]: 10_000},
		allowances: map[[2]nabucco.Address]uint64{},
		supply:     10_000,
	}

	for step := 0; step < numSteps; step++ {
		caller := pick()
		context.SetCaller(caller)
		amount := rnd.Uint64n(500)

		var wantOk bool
		var err error
		switch rnd.Intn(4) {
		case 0:
			to := pick()
			wantOk = model.transfer(caller, to, amount)
			_, err = call(t, context, "transfer", common.Address(to), big.NewInt(int64(amount)))
		case 1:
			spender := pick()
			model.allowances[[2]nabucco.Address{caller, spender}] = amount
			wantOk = true
			_, err = call(t, context, "approve", common.Address(spender), big.NewInt(int64(amount)))
		case 2:
			from, to := pick(), pick()
			wantOk = model.transferFrom(caller, from, to, amount)
			_, err = call(t, context, "transferFrom", common.Address(from), common.Address(to), big.NewInt(int64(amount)))
		case 3:
			to := pick()
			model.balances[to] += amount
			model.supply += amount
			wantOk = true
			_, err = call(t, context, "mint", common.Address(to), big.NewInt(int64(amount)))
		}

		if wantOk && err != nil {
			t.Fatalf("step %d: operation failed unexpectedly: %v", step, err)
		}
		if !wantOk && err == nil {
			t.Fatalf("step %d: operation succeeded although the model rejects it", step)
		}
		if !wantOk && !errors.Is(err, ErrInsufficientBalance) && !errors.Is(err, ErrInsufficientAllowance) {
			t.Fatalf("step %d: unexpected error: %v", step, err)
		}
	}

	token := New(context)
	if want, got := nabucco.NewValue(model.supply), token.TotalSupply(); want != got {
		t.Errorf("diverged total supply, want %v, got %v", want, got)
	}
	sum := uint64(0)
	for _, account := range accounts {
		want := nabucco.NewValue(model.balances[account])
		if got := token.BalanceOf(account); want != got {
			t.Errorf("diverged balance of %v, want %v, got %v", account, want, got)
		}
		sum += model.balances[account]
	}
	if sum != model.supply {
		t.Errorf("reference model leaks supply, balances sum to %d of %d", sum, model.supply)
	}
	for _, owner := range accounts {
		for _, spender := range accounts {
			want := nabucco.NewValue(model.allowances[[2]nabucco.Address{owner, spender}])
			if got := token.Allowance(owner, spender); want != got {
				t.Errorf("diverged allowance %v -> %v, want %v, got %v", owner, spender, want, got)
			}
		}
	}
}
