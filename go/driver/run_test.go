//
// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use
// of this software will be governed by the GNU Lesser General Public Licence v3
//

package main

import (
	"math/big"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Nabucco/go/ledger"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/ethereum/go-ethereum/common"
)

func TestConvertArgs_AcceptsTheFullMethodSurface(t *testing.T) {
	tests := map[string]struct {
		method string
		raw    []string
		want   []any
	}{
		"init": {
			method: "init",
			raw:    []string{"Token", "TOK", "18", "1000"},
			want:   []any{"Token", "TOK", uint8(18), big.NewInt(1000)},
		},
		"transfer with hex amount": {
			method: "transfer",
			raw:    []string{"0x000000000000000000000000000000000000000b", "0x10"},
			want:   []any{common.Address{19: 0x0b}, big.NewInt(16)},
		},
		"allowance": {
			method: "allowance",
			raw: []string{
				"0x000000000000000000000000000000000000000a",
				"0x000000000000000000000000000000000000000b",
			},
			want: []any{common.Address{19: 0x0a}, common.Address{19: 0x0b}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inputs, exist := ledger.MethodInputs(test.method)
			if !exist {
				t.Fatalf("unknown method %q", test.method)
			}
			got, err := convertArgs(inputs, test.raw)
			if err != nil {
				t.Fatalf("conversion failed: %v", err)
			}
			if want, got := len(test.want), len(got); want != got {
				t.Fatalf("unexpected number of arguments, want %d, got %d", want, got)
			}
			for i, want := range test.want {
				if wantInt, ok := want.(*big.Int); ok {
					if gotInt := got[i].(*big.Int); wantInt.Cmp(gotInt) != 0 {
						t.Errorf("argument %d: want %v, got %v", i, wantInt, gotInt)
					}
					continue
				}
				if want != got[i] {
					t.Errorf("argument %d: want %v, got %v", i, want, got[i])
				}
			}
		})
	}
}

func TestConvertArgs_RejectsMalformedInput(t *testing.T) {
	tests := map[string]struct {
		method string
		raw    []string
	}{
		"wrong argument count": {"transfer", []string{"0x000000000000000000000000000000000000000b"}},
		"invalid address":      {"transfer", []string{"not-an-address", "10"}},
		"negative amount":      {"transfer", []string{"0x000000000000000000000000000000000000000b", "-5"}},
		"oversized decimals":   {"init", []string{"Token", "TOK", "300", "1000"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inputs, exist := ledger.MethodInputs(test.method)
			if !exist {
				t.Fatalf("unknown method %q", test.method)
			}
			if _, err := convertArgs(inputs, test.raw); err == nil {
				t.Errorf("expected conversion of %v to fail", test.raw)
			}
		})
	}
}

func TestFormatLog_RendersKnownEvents(t *testing.T) {
	from := nabucco.Address{19: 0x0a}
	to := nabucco.Address{19: 0x0b}
	log := nabucco.Log{
		Topics: []nabucco.Hash{ledger.TransferTopic(), addressTopic(from), addressTopic(to)},
		Data:   make([]byte, 32),
	}
	log.Data[31] = 42

	rendered := formatLog(log)
	for _, part := range []string{"Transfer", "42"} {
		if !strings.Contains(rendered, part) {
			t.Errorf("rendered log %q misses %q", rendered, part)
		}
	}
}

func TestReplayTransfers_TracksMintsAndMovements(t *testing.T) {
	a := nabucco.Address{19: 0x0a}
	b := nabucco.Address{19: 0x0b}
	logs := []nabucco.Log{
		makeTransferLog(nabucco.Address{}, a, 1000),
		makeTransferLog(a, b, 300),
		makeTransferLog(nabucco.Address{}, b, 500),
		{Topics: []nabucco.Hash{ledger.ApprovalTopic(), addressTopic(a), addressTopic(b)}}, // ignored
	}

	balances, minted := replayTransfers(logs)
	if want, got := int64(1500), minted.Int64(); want != got {
		t.Errorf("unexpected minted amount, want %d, got %d", want, got)
	}
	if want, got := int64(700), balances[a].Int64(); want != got {
		t.Errorf("unexpected balance of %v, want %d, got %d", a, want, got)
	}
	if want, got := int64(800), balances[b].Int64(); want != got {
		t.Errorf("unexpected balance of %v, want %d, got %d", b, want, got)
	}
}

func makeTransferLog(from, to nabucco.Address, amount uint64) nabucco.Log {
	value := nabucco.NewValue(amount)
	return nabucco.Log{
		Topics: []nabucco.Hash{ledger.TransferTopic(), addressTopic(from), addressTopic(to)},
		Data:   value[:],
	}
}

func addressTopic(address nabucco.Address) nabucco.Hash {
	var topic nabucco.Hash
	copy(topic[12:], address[:])
	return topic
}
