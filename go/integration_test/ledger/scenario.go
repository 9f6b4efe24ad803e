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
	"bytes"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/Fantom-foundation/Nabucco/go/ledger"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"
)

// Context is the host environment a scenario runs against. Both the
// in-memory and the SQLite-backed contexts satisfy it.
type Context interface {
	nabucco.CallContext
	SetCaller(nabucco.Address)
}

// Call is one external call of a scenario: who calls what, and what the
// call must produce. A nil Error expects success; Result and Logs are
// only checked when set.
type Call struct {
	Caller nabucco.Address
	Method string
	Args   []any
	Error  error
	Result []any
	Logs   []nabucco.Log
}

// Scenario is a sequence of calls followed by assertions on the resulting
// ledger state. Balances and Allowances list the accounts to be checked;
// accounts not listed are expected to be empty only if listed as such.
type Scenario struct {
	Calls      []Call
	Supply     nabucco.Value
	Balances   map[nabucco.Address]nabucco.Value
	Allowances map[[2]nabucco.Address]nabucco.Value
}

func (s *Scenario) Run(t *testing.T, context Context) {
	for i, call := range s.Calls {
		context.SetCaller(call.Caller)
		input, err := ledger.EncodeCall(call.Method, call.Args...)
		if err != nil {
			t.Fatalf("call %d: failed to encode %s: %v", i, call.Method, err)
		}

		logsBefore := len(context.GetLogs())
		output, err := ledger.Execute(context, input)

		if call.Error != nil {
			if !errors.Is(err, call.Error) {
				t.Fatalf("call %d: expected error %v, got %v", i, call.Error, err)
			}
			if got := len(context.GetLogs()); got != logsBefore {
				t.Errorf("call %d: failed call emitted %d logs", i, got-logsBefore)
			}
			continue
		}
		if err != nil {
			t.Fatalf("call %d: %s failed: %v", i, call.Method, err)
		}

		if call.Result != nil {
			results, err := ledger.DecodeResult(call.Method, output)
			if err != nil {
				t.Fatalf("call %d: failed to decode result: %v", i, err)
			}
			if want, got := call.Result, results; !reflect.DeepEqual(want, got) {
				t.Errorf("call %d: unexpected result, want %v, got %v", i, want, got)
			}
		}

		if call.Logs != nil {
			emitted := context.GetLogs()[logsBefore:]
			if want, got := len(call.Logs), len(emitted); want != got {
				t.Fatalf("call %d: unexpected number of logs, want %d, got %d", i, want, got)
			}
			for j, want := range call.Logs {
				got := emitted[j]
				if want.Address != got.Address {
					t.Errorf("call %d log %d: unexpected address, want %v, got %v", i, j, want.Address, got.Address)
				}
				if !slices.Equal(want.Topics, got.Topics) {
					t.Errorf("call %d log %d: unexpected topics, want %v, got %v", i, j, want.Topics, got.Topics)
				}
				if !bytes.Equal(want.Data, got.Data) {
					t.Errorf("call %d log %d: unexpected data, want %x, got %x", i, j, want.Data, got.Data)
				}
			}
		}
	}

	s.checkState(t, context)
}

func (s *Scenario) checkState(t *testing.T, context Context) {
	token := ledger.New(context)
	if want, got := s.Supply, token.TotalSupply(); want != got {
		t.Errorf("unexpected total supply, want %v, got %v", want, got)
	}
	for account, want := range s.Balances {
		if got := token.BalanceOf(account); want != got {
			t.Errorf("unexpected balance of %v, want %v, got %v", account, want, got)
		}
	}
	for pair, want := range s.Allowances {
		if got := token.Allowance(pair[0], pair[1]); want != got {
			t.Errorf("unexpected allowance %v -> %v, want %v, got %v", pair[0], pair[1], want, got)
		}
	}
}

// transferLog is the Transfer event the ledger emits for a movement of
// the given amount, including the mint case with a zero sender.
func transferLog(from, to nabucco.Address, amount nabucco.Value) nabucco.Log {
	return nabucco.Log{
		Topics: []nabucco.Hash{ledger.TransferTopic(), addressTopic(from), addressTopic(to)},
		Data:   amount[:],
	}
}

func approvalLog(owner, spender nabucco.Address, amount nabucco.Value) nabucco.Log {
	return nabucco.Log{
		Topics: []nabucco.Hash{ledger.ApprovalTopic(), addressTopic(owner), addressTopic(spender)},
		Data:   amount[:],
	}
}

func addressTopic(address nabucco.Address) nabucco.Hash {
	var topic nabucco.Hash
	copy(topic[12:], address[:])
	return topic
}
