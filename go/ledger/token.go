// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ledger implements a fungible-token ledger following the ERC-20
// interface. The ledger tracks per-account balances, third-party spending
// allowances, and the total supply in host-provided storage, and emits
// Transfer and Approval events whenever state changes. It holds the
// conservation invariant that the sum of all balances equals the total
// supply after every operation.
package ledger

import (
	"github.com/Fantom-foundation/Nabucco/go/nabucco"
)

// Token binds the ledger operations to a host call context. Instances are
// cheap and live for a single call; all state resides in the context's
// storage.
//
// Mutating operations report failures as errors and may have performed
// partial writes by then. Run calls through Execute, which snapshots the
// context and rolls back on error, or manage snapshots explicitly when
// invoking operations directly.
type Token struct {
	ctx nabucco.CallContext
}

func New(ctx nabucco.CallContext) *Token {
	return &Token{ctx: ctx}
}

// Init writes the token metadata, sets the total supply, and credits the
// full initial supply to the caller, emitting a Transfer from the zero
// address. A second call fails, leaving the first initialization intact.
func (t *Token) Init(name, symbol string, decimals uint8, initialSupply nabucco.Value) error {
	if _, initialized := readMetadata(t.ctx); initialized {
		return ErrAlreadyInitialized
	}
	sender := t.ctx.Caller()

	writeString(t.ctx, nameSlot, name)
	writeString(t.ctx, symbolSlot, symbol)
	writeMetadata(t.ctx, decimals, true)
	writeValue(t.ctx, slotKey(totalSupplySlot), initialSupply)
	writeValue(t.ctx, balanceSlot(sender), initialSupply)

	emitTransfer(t.ctx, nabucco.Address{}, sender, initialSupply)
	return nil
}

// Name returns the name of the token.
func (t *Token) Name() string {
	return readString(t.ctx, nameSlot)
}

// Symbol returns the symbol of the token.
func (t *Token) Symbol() string {
	return readString(t.ctx, symbolSlot)
}

// Decimals returns the number of decimals used for display purposes.
func (t *Token) Decimals() uint8 {
	decimals, _ := readMetadata(t.ctx)
	return decimals
}

// TotalSupply returns the total amount of tokens in circulation.
func (t *Token) TotalSupply() nabucco.Value {
	return readValue(t.ctx, slotKey(totalSupplySlot))
}

// BalanceOf returns the balance of an account. Accounts never credited
// read as zero.
func (t *Token) BalanceOf(account nabucco.Address) nabucco.Value {
	return readValue(t.ctx, balanceSlot(account))
}

// Allowance returns the amount a spender may still move out of the
// owner's balance.
func (t *Token) Allowance(owner, spender nabucco.Address) nabucco.Value {
	return readValue(t.ctx, allowanceSlot(owner, spender))
}

// Transfer moves tokens from the caller to another account. The returned
// flag is always true on success; failures are reported as errors.
func (t *Token) Transfer(to nabucco.Address, amount nabucco.Value) (bool, error) {
	if err := t.transfer(t.ctx.Caller(), to, amount); err != nil {
		return false, err
	}
	return true, nil
}

// Approve sets the allowance of a spender over the caller's tokens to the
// given amount, overwriting any previous allowance.
func (t *Token) Approve(spender nabucco.Address, amount nabucco.Value) (bool, error) {
	owner := t.ctx.Caller()
	writeValue(t.ctx, allowanceSlot(owner, spender), amount)
	emitApproval(t.ctx, owner, spender, amount)
	return true, nil
}

// TransferFrom moves tokens between two accounts, spending the caller's
// allowance granted by the source account. The allowance is decremented
// and its Approval event emitted before the balances move; a maximal
// allowance is decremented like any other.
func (t *Token) TransferFrom(from, to nabucco.Address, amount nabucco.Value) (bool, error) {
	spender := t.ctx.Caller()

	key := allowanceSlot(from, spender)
	allowance := readValue(t.ctx, key)
	if allowance.Cmp(amount) < 0 {
		return false, ErrInsufficientAllowance
	}
	remaining := nabucco.Sub(allowance, amount)
	writeValue(t.ctx, key, remaining)
	emitApproval(t.ctx, from, spender, remaining)

	if err := t.transfer(from, to, amount); err != nil {
		return false, err
	}
	return true, nil
}

// Mint credits freshly created tokens to an account, growing the total
// supply by the same amount. There is no access control; any caller may
// mint. Overflow of the supply or the destination balance fails the call.
func (t *Token) Mint(to nabucco.Address, amount nabucco.Value) (bool, error) {
	supply, overflow := nabucco.Add(t.TotalSupply(), amount)
	if overflow {
		return false, ErrArithmeticOverflow
	}
	key := balanceSlot(to)
	balance, overflow := nabucco.Add(readValue(t.ctx, key), amount)
	if overflow {
		return false, ErrArithmeticOverflow
	}

	writeValue(t.ctx, slotKey(totalSupplySlot), supply)
	writeValue(t.ctx, key, balance)

	emitTransfer(t.ctx, nabucco.Address{}, to, amount)
	return true, nil
}

// transfer debits the source, credits the destination, and emits the
// Transfer event. The destination balance is read after the debit is
// written, so self-transfers net out to no change without underflowing.
func (t *Token) transfer(from, to nabucco.Address, amount nabucco.Value) error {
	fromKey := balanceSlot(from)
	fromBalance := readValue(t.ctx, fromKey)
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	writeValue(t.ctx, fromKey, nabucco.Sub(fromBalance, amount))

	toKey := balanceSlot(to)
	toBalance, overflow := nabucco.Add(readValue(t.ctx, toKey), amount)
	if overflow {
		return ErrArithmeticOverflow
	}
	writeValue(t.ctx, toKey, toBalance)

	emitTransfer(t.ctx, from, to, amount)
	return nil
}
