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
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/Fantom-foundation/Nabucco/go/host/memory"
	"github.com/Fantom-foundation/Nabucco/go/host/sqlite"
	"github.com/Fantom-foundation/Nabucco/go/ledger"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Run a sequence of ledger calls from a scenario file",
	ArgsUsage: "<scenario.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Usage: "SQLite database to run against; omitted runs in memory",
		},
	},
}

// scenarioFile is the on-disk format of a call sequence. Arguments are
// strings converted according to the ABI of the addressed method.
type scenarioFile struct {
	Calls []scenarioCall `json:"calls"`
}

type scenarioCall struct {
	Caller string   `json:"caller"`
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

// hostContext joins the call context with the caller assignment both host
// implementations provide.
type hostContext interface {
	nabucco.CallContext
	SetCaller(nabucco.Address)
}

func doRun(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected a scenario file as the single argument")
	}

	data, err := os.ReadFile(context.Args().Get(0))
	if err != nil {
		return fmt.Errorf("failed to read scenario: %w", err)
	}
	var scenario scenarioFile
	if err := json.Unmarshal(data, &scenario); err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}

	host, finish, err := openHost(context.String("db"))
	if err != nil {
		return err
	}

	for i, call := range scenario.Calls {
		if err := runCall(host, i, call); err != nil {
			return err
		}
	}
	return finish()
}

// openHost selects the host backing the run. The returned finish function
// commits and closes persistent hosts and is a no-op for the in-memory one.
func openHost(path string) (hostContext, func() error, error) {
	if path == "" {
		return memory.NewContext(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	host := store.NewContext()
	finish := func() error {
		if err := host.Err(); err != nil {
			store.Close()
			return err
		}
		if err := host.Commit(); err != nil {
			store.Close()
			return err
		}
		return store.Close()
	}
	return host, finish, nil
}

func runCall(host hostContext, index int, call scenarioCall) error {
	inputs, exist := ledger.MethodInputs(call.Method)
	if !exist {
		return fmt.Errorf("call %d: unknown method %q, use one of: %v",
			index, call.Method, maps.Keys(methodSet()))
	}
	args, err := convertArgs(inputs, call.Args)
	if err != nil {
		return fmt.Errorf("call %d: %w", index, err)
	}
	input, err := ledger.EncodeCall(call.Method, args...)
	if err != nil {
		return fmt.Errorf("call %d: %w", index, err)
	}

	host.SetCaller(nabucco.Address(common.HexToAddress(call.Caller)))
	logsBefore := len(host.GetLogs())
	output, err := ledger.Execute(host, input)
	if err != nil {
		fmt.Printf("call %d: %s reverted: %v\n", index, call.Method, err)
		return nil
	}

	fmt.Printf("call %d: %s", index, call.Method)
	if results, err := ledger.DecodeResult(call.Method, output); err == nil && len(results) > 0 {
		fmt.Printf(" -> %v", results)
	}
	fmt.Println()
	for _, log := range host.GetLogs()[logsBefore:] {
		fmt.Printf("\t%s\n", formatLog(log))
	}
	return nil
}

// convertArgs turns the string arguments of a scenario call into the Go
// values the ABI encoder expects for the method's input types.
func convertArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(raw))
	}
	args := make([]any, len(raw))
	for i, input := range inputs {
		switch {
		case input.Type.T == abi.StringTy:
			args[i] = raw[i]
		case input.Type.T == abi.AddressTy:
			if !common.IsHexAddress(raw[i]) {
				return nil, fmt.Errorf("argument %d: %q is not an address", i, raw[i])
			}
			args[i] = common.HexToAddress(raw[i])
		case input.Type.T == abi.UintTy && input.Type.Size == 8:
			value, err := strconv.ParseUint(raw[i], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %q is not an 8-bit integer", i, raw[i])
			}
			args[i] = uint8(value)
		case input.Type.T == abi.UintTy:
			value, ok := new(big.Int).SetString(raw[i], 0)
			if !ok || value.Sign() < 0 || value.BitLen() > 256 {
				return nil, fmt.Errorf("argument %d: %q is not a 256-bit integer", i, raw[i])
			}
			args[i] = value
		default:
			return nil, fmt.Errorf("argument %d: unsupported ABI type %v", i, input.Type)
		}
	}
	return args, nil
}

// formatLog renders the known ledger events in a readable form and falls
// back to a raw dump for anything else.
func formatLog(log nabucco.Log) string {
	if len(log.Topics) == 3 {
		from := topicAddress(log.Topics[1])
		to := topicAddress(log.Topics[2])
		amount := new(big.Int).SetBytes(log.Data)
		switch log.Topics[0] {
		case ledger.TransferTopic():
			return fmt.Sprintf("Transfer %v -> %v: %v", from, to, amount)
		case ledger.ApprovalTopic():
			return fmt.Sprintf("Approval %v -> %v: %v", from, to, amount)
		}
	}
	return fmt.Sprintf("log %v %x", log.Topics, log.Data)
}

func topicAddress(topic nabucco.Hash) nabucco.Address {
	return nabucco.Address(topic[12:])
}

func methodSet() map[string]struct{} {
	set := map[string]struct{}{}
	for _, name := range ledger.Methods() {
		set[name] = struct{}{}
	}
	return set
}
