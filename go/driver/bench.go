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
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Fantom-foundation/Nabucco/go/host/memory"
	"github.com/Fantom-foundation/Nabucco/go/ledger"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"pgregory.net/rand"
)

var BenchCmd = cli.Command{
	Action: doBench,
	Name:   "bench",
	Usage:  "Measure the call throughput of the in-memory ledger",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "calls",
			Usage: "number of transfer calls to execute",
			Value: 1_000_000,
		},
		&cli.IntFlag{
			Name:  "accounts",
			Usage: "number of accounts moving tokens",
			Value: 64,
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "seed for the random number generator",
		},
	},
}

func doBench(context *cli.Context) error {
	numCalls := context.Int("calls")
	numAccounts := context.Int("accounts")
	if numAccounts < 2 {
		return fmt.Errorf("need at least two accounts, got %d", numAccounts)
	}
	rnd := rand.New(context.Uint64("seed"))

	accounts := make([]nabucco.Address, numAccounts)
	for i := range accounts {
		accounts[i] = nabucco.Address{byte(i >> 8), byte(i), 0x01}
	}

	host := memory.NewContext()
	host.SetCaller(accounts[0])
	input, err := ledger.EncodeCall("init", "Bench", "BNC", uint8(0), big.NewInt(int64(numCalls)))
	if err != nil {
		return err
	}
	if _, err := ledger.Execute(host, input); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	fmt.Printf("Running %s transfers between %d accounts ...\n",
		unitconv.FormatPrefix(float64(numCalls), unitconv.SI, 0), numAccounts)

	reverted := 0
	start := time.Now()
	for i := 0; i < numCalls; i++ {
		from := accounts[rnd.Intn(numAccounts)]
		to := accounts[rnd.Intn(numAccounts)]
		amount := big.NewInt(int64(rnd.Intn(100)))

		input, err := ledger.EncodeCall("transfer", common.Address(to), amount)
		if err != nil {
			return err
		}
		host.SetCaller(from)
		if _, err := ledger.Execute(host, input); err != nil {
			if !errors.Is(err, ledger.ErrInsufficientBalance) {
				return fmt.Errorf("transfer %d failed: %w", i, err)
			}
			reverted++
		}
	}
	duration := time.Since(start)

	rate := float64(numCalls) / duration.Seconds()
	fmt.Printf("Completed %d calls in %v, %d reverted\n", numCalls, duration.Round(time.Millisecond), reverted)
	fmt.Printf("Throughput: ~%s calls per second\n", unitconv.FormatPrefix(rate, unitconv.SI, 1))
	return nil
}
