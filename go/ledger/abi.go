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
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// tokenABI is the canonical external interface of the ledger. Hosts
// dispatch calls via the 4-byte selectors derived from it, and index
// emitted events by the hashes of the event signatures.
var tokenABI string = "[" +
	"{\"type\":\"function\",\"name\":\"init\",\"stateMutability\":\"nonpayable\",\"inputs\":[{\"name\":\"name\",\"type\":\"string\"},{\"name\":\"symbol\",\"type\":\"string\"},{\"name\":\"decimals\",\"type\":\"uint8\"},{\"name\":\"initialSupply\",\"type\":\"uint256\"}],\"outputs\":[]}," +
	"{\"type\":\"function\",\"name\":\"name\",\"stateMutability\":\"view\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"string\"}]}," +
	"{\"type\":\"function\",\"name\":\"symbol\",\"stateMutability\":\"view\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"string\"}]}," +
	"{\"type\":\"function\",\"name\":\"decimals\",\"stateMutability\":\"view\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"uint8\"}]}," +
	"{\"type\":\"function\",\"name\":\"totalSupply\",\"stateMutability\":\"view\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"uint256\"}]}," +
	"{\"type\":\"function\",\"name\":\"balanceOf\",\"stateMutability\":\"view\",\"inputs\":[{\"name\":\"account\",\"type\":\"address\"}],\"outputs\":[{\"name\":\"\",\"type\":\"uint256\"}]}," +
	"{\"type\":\"function\",\"name\":\"transfer\",\"stateMutability\":\"nonpayable\",\"inputs\":[{\"name\":\"to\",\"type\":\"address\"},{\"name\":\"amount\",\"type\":\"uint256\"}],\"outputs\":[{\"name\":\"\",\"type\":\"bool\"}]}," +
	"{\"type\":\"function\",\"name\":\"approve\",\"stateMutability\":\"nonpayable\",\"inputs\":[{\"name\":\"spender\",\"type\":\"address\"},{\"name\":\"amount\",\"type\":\"uint256\"}],\"outputs\":[{\"name\":\"\",\"type\":\"bool\"}]}," +
	"{\"type\":\"function\",\"name\":\"allowance\",\"stateMutability\":\"view\",\"inputs\":[{\"name\":\"owner\",\"type\":\"address\"},{\"name\":\"spender\",\"type\":\"address\"}],\"outputs\":[{\"name\":\"\",\"type\":\"uint256\"}]}," +
	"{\"type\":\"function\",\"name\":\"transferFrom\",\"stateMutability\":\"nonpayable\",\"inputs\":[{\"name\":\"from\",\"type\":\"address\"},{\"name\":\"to\",\"type\":\"address\"},{\"name\":\"amount\",\"type\":\"uint256\"}],\"outputs\":[{\"name\":\"\",\"type\":\"bool\"}]}," +
	"{\"type\":\"function\",\"name\":\"mint\",\"stateMutability\":\"nonpayable\",\"inputs\":[{\"name\":\"to\",\"type\":\"address\"},{\"name\":\"amount\",\"type\":\"uint256\"}],\"outputs\":[{\"name\":\"\",\"type\":\"bool\"}]}," +
	"{\"type\":\"event\",\"name\":\"Transfer\",\"anonymous\":false,\"inputs\":[{\"indexed\":true,\"name\":\"from\",\"type\":\"address\"},{\"indexed\":true,\"name\":\"to\",\"type\":\"address\"},{\"indexed\":false,\"name\":\"value\",\"type\":\"uint256\"}]}," +
	"{\"type\":\"event\",\"name\":\"Approval\",\"anonymous\":false,\"inputs\":[{\"indexed\":true,\"name\":\"owner\",\"type\":\"address\"},{\"indexed\":true,\"name\":\"spender\",\"type\":\"address\"},{\"indexed\":false,\"name\":\"value\",\"type\":\"uint256\"}]}" +
	"]"

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		panic(fmt.Errorf("failed to parse token ABI: %w", err))
	}
	return parsed
}()

var (
	initID         = methodID("init")
	nameID         = methodID("name")
	symbolID       = methodID("symbol")
	decimalsID     = methodID("decimals")
	totalSupplyID  = methodID("totalSupply")
	balanceOfID    = methodID("balanceOf")
	transferID     = methodID("transfer")
	approveID      = methodID("approve")
	allowanceID    = methodID("allowance")
	transferFromID = methodID("transferFrom")
	mintID         = methodID("mint")
)

func methodID(name string) []byte {
	method, exist := parsedABI.Methods[name]
	if !exist {
		panic("unknown ledger method: " + name)
	}
	return method.ID
}

// Execute runs a single external call against the ledger. The input is a
// 4-byte method selector followed by the ABI-encoded arguments; the result
// is the ABI-encoded return value. On a non-nil error all storage writes
// and log emissions of the call have been rolled back, and the host is
// expected to surface the error message to the caller.
func Execute(ctx nabucco.CallContext, input []byte) ([]byte, error) {
	snapshot := ctx.CreateSnapshot()
	output, err := dispatch(ctx, input)
	if err != nil {
		ctx.RestoreSnapshot(snapshot)
		return nil, err
	}
	return output, nil
}

func dispatch(ctx nabucco.CallContext, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ErrInvalidMethodID
	}
	selector := input[:4]
	args, err := unpackArgs(selector, input[4:])
	if err != nil {
		return nil, err
	}
	token := New(ctx)

	switch {
	case bytes.Equal(selector, initID):
		return nil, token.Init(
			args[0].(string),
			args[1].(string),
			args[2].(uint8),
			valueArg(args[3]),
		)
	case bytes.Equal(selector, nameID):
		return packResult("name", token.Name())
	case bytes.Equal(selector, symbolID):
		return packResult("symbol", token.Symbol())
	case bytes.Equal(selector, decimalsID):
		return packResult("decimals", token.Decimals())
	case bytes.Equal(selector, totalSupplyID):
		return packResult("totalSupply", token.TotalSupply().ToBig())
	case bytes.Equal(selector, balanceOfID):
		return packResult("balanceOf", token.BalanceOf(addressArg(args[0])).ToBig())
	case bytes.Equal(selector, transferID):
		ok, err := token.Transfer(addressArg(args[0]), valueArg(args[1]))
		if err != nil {
			return nil, err
		}
		return packResult("transfer", ok)
	case bytes.Equal(selector, approveID):
		ok, err := token.Approve(addressArg(args[0]), valueArg(args[1]))
		if err != nil {
			return nil, err
		}
		return packResult("approve", ok)
	case bytes.Equal(selector, allowanceID):
		return packResult("allowance", token.Allowance(addressArg(args[0]), addressArg(args[1])).ToBig())
	case bytes.Equal(selector, transferFromID):
		ok, err := token.TransferFrom(addressArg(args[0]), addressArg(args[1]), valueArg(args[2]))
		if err != nil {
			return nil, err
		}
		return packResult("transferFrom", ok)
	case bytes.Equal(selector, mintID):
		ok, err := token.Mint(addressArg(args[0]), valueArg(args[1]))
		if err != nil {
			return nil, err
		}
		return packResult("mint", ok)
	}
	return nil, ErrInvalidMethodID
}

func unpackArgs(selector, data []byte) ([]any, error) {
	method, err := parsedABI.MethodById(selector)
	if err != nil {
		return nil, ErrInvalidMethodID
	}
	args, err := method.Inputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("malformed call data for %s: %w", method.Name, err)
	}
	return args, nil
}

func packResult(method string, results ...any) ([]byte, error) {
	return parsedABI.Methods[method].Outputs.Pack(results...)
}

func addressArg(arg any) nabucco.Address {
	return nabucco.Address(arg.(common.Address))
}

func valueArg(arg any) nabucco.Value {
	return nabucco.ValueFromUint256(uint256.MustFromBig(arg.(*big.Int)))
}

// EncodeCall ABI-encodes a call to the named ledger method. Address and
// amount arguments are passed as common.Address and *big.Int respectively,
// matching the go-ethereum ABI binding conventions.
func EncodeCall(method string, args ...any) ([]byte, error) {
	m, exist := parsedABI.Methods[method]
	if !exist {
		return nil, fmt.Errorf("unknown ledger method: %s", method)
	}
	packed, err := m.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments of %s: %w", method, err)
	}
	return append(bytes.Clone(m.ID), packed...), nil
}

// DecodeResult decodes the ABI-encoded return value of the named method.
func DecodeResult(method string, output []byte) ([]any, error) {
	m, exist := parsedABI.Methods[method]
	if !exist {
		return nil, fmt.Errorf("unknown ledger method: %s", method)
	}
	return m.Outputs.Unpack(output)
}

// Methods lists the names of the ledger's external methods.
func Methods() []string {
	names := make([]string, 0, len(parsedABI.Methods))
	for name := range parsedABI.Methods {
		names = append(names, name)
	}
	return names
}

// MethodInputs returns the ABI argument definitions of the named method.
func MethodInputs(method string) (abi.Arguments, bool) {
	m, exist := parsedABI.Methods[method]
	if !exist {
		return nil, false
	}
	return m.Inputs, true
}
