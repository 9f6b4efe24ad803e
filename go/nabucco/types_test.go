// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package nabucco

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
)

func TestNewValue_ArgumentsAreOrderedFromMostToLeastSignificant(t *testing.T) {
	tests := map[string]struct {
		args []uint64
		want *uint256.Int
	}{
		"empty":     {nil, uint256.NewInt(0)},
		"one":       {[]uint64{12}, uint256.NewInt(12)},
		"two":       {[]uint64{1, 0}, new(uint256.Int).Lsh(uint256.NewInt(1), 64)},
		"max64":     {[]uint64{math.MaxUint64}, uint256.NewInt(math.MaxUint64)},
		"high word": {[]uint64{1, 0, 0, 0}, new(uint256.Int).Lsh(uint256.NewInt(1), 192)},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if want, got := test.want, NewValue(test.args...).ToUint256(); want.Cmp(got) != 0 {
				t.Errorf("unexpected value, want %v, got %v", want, got)
			}
		})
	}
}

func TestValue_AddReportsOverflow(t *testing.T) {
	maxValue := ValueFromUint256(new(uint256.Int).Not(uint256.NewInt(0)))

	tests := map[string]struct {
		a, b     Value
		want     Value
		overflow bool
	}{
		"zero":          {NewValue(), NewValue(), NewValue(), false},
		"no carry":      {NewValue(1), NewValue(2), NewValue(3), false},
		"word carry":    {NewValue(math.MaxUint64), NewValue(1), NewValue(1, 0), false},
		"max plus zero": {maxValue, NewValue(), maxValue, false},
		"max plus one":  {maxValue, NewValue(1), NewValue(), true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sum, overflow := Add(test.a, test.b)
			if sum != test.want {
				t.Errorf("unexpected sum, want %v, got %v", test.want, sum)
			}
			if overflow != test.overflow {
				t.Errorf("unexpected overflow flag, want %v, got %v", test.overflow, overflow)
			}
		})
	}
}

func TestValue_SubComputesDifference(t *testing.T) {
	if want, got := NewValue(5), Sub(NewValue(12), NewValue(7)); want != got {
		t.Errorf("unexpected difference, want %v, got %v", want, got)
	}
	if want, got := NewValue(1, 0), Sub(NewValue(1, 5), NewValue(5)); want != got {
		t.Errorf("unexpected difference, want %v, got %v", want, got)
	}
}

func TestValue_CmpOrdersBigEndian(t *testing.T) {
	small := NewValue(1)
	large := NewValue(1, 0)
	if small.Cmp(large) >= 0 {
		t.Errorf("expected %v < %v", small, large)
	}
	if large.Cmp(small) <= 0 {
		t.Errorf("expected %v > %v", large, small)
	}
	if small.Cmp(small) != 0 {
		t.Errorf("expected %v == %v", small, small)
	}
}

func TestAddress_MarshalingRoundTrip(t *testing.T) {
	addr := Address{0x01, 0x02, 0xfe}
	text, err := addr.MarshalText()
	if err != nil {
		t.Fatalf("failed to marshal address: %v", err)
	}
	var restored Address
	if err := restored.UnmarshalText(text); err != nil {
		t.Fatalf("failed to unmarshal address: %v", err)
	}
	if addr != restored {
		t.Errorf("round trip changed address, want %v, got %v", addr, restored)
	}
}

func TestValue_UnmarshalRejectsInvalidText(t *testing.T) {
	tests := map[string]string{
		"missing prefix": "ff00000000000000000000000000000000000000000000000000000000000000",
		"wrong length":   "0xff00",
		"not hex":        "0xzz00000000000000000000000000000000000000000000000000000000000000",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			var value Value
			if err := value.UnmarshalText([]byte(input)); err == nil {
				t.Errorf("expected unmarshaling of %q to fail", input)
			}
		})
	}
}
