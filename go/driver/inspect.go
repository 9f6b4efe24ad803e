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
	"fmt"
	"math/big"
	"sort"

	"github.com/Fantom-foundation/Nabucco/go/host/sqlite"
	"github.com/Fantom-foundation/Nabucco/go/ledger"
	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

var InspectCmd = cli.Command{
	Action: doInspect,
	Name:   "inspect",
	Usage:  "Summarize a persisted ledger by replaying its event history",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Usage:    "SQLite database holding the ledger",
			Required: true,
		},
	},
}

func doInspect(context *cli.Context) error {
	store, err := sqlite.Open(context.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	host := store.NewContext()
	token := ledger.New(host)
	name := token.Name()
	symbol := token.Symbol()
	decimals := token.Decimals()
	supply := token.TotalSupply()
	if err := host.Err(); err != nil {
		return fmt.Errorf("failed to read token state: %w", err)
	}

	fmt.Printf("Token: %s (%s), %d decimals\n", name, symbol, decimals)
	fmt.Printf("Total supply: %s %s\n", formatAmount(supply.ToBig(), decimals), symbol)

	logs, err := store.Logs()
	if err != nil {
		return err
	}

	balances, minted := replayTransfers(logs)
	if minted.Cmp(supply.ToBig()) != 0 {
		fmt.Printf("WARNING: event history accounts for %s minted units, state reports %s\n",
			formatAmount(minted, decimals), formatAmount(supply.ToBig(), decimals))
	}

	accounts := maps.Keys(balances)
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].String() < accounts[j].String()
	})
	fmt.Printf("Accounts with event activity: %d\n", len(accounts))
	for _, account := range accounts {
		fmt.Printf("\t%v: %s %s\n", account, formatAmount(balances[account], decimals), symbol)
	}
	return nil
}

// replayTransfers folds all Transfer events into per-account balances.
// Transfers from the zero address are mints and counted towards the total
// minted amount without debiting it; amounts sent to the zero address
// remain parked on its balance.
func replayTransfers(logs []nabucco.Log) (map[nabucco.Address]*big.Int, *big.Int) {
	balances := map[nabucco.Address]*big.Int{}
	minted := new(big.Int)
	balanceOf := func(account nabucco.Address) *big.Int {
		balance, exists := balances[account]
		if !exists {
			balance = new(big.Int)
			balances[account] = balance
		}
		return balance
	}

	for _, log := range logs {
		if len(log.Topics) != 3 || log.Topics[0] != ledger.TransferTopic() {
			continue
		}
		from := topicAddress(log.Topics[1])
		to := topicAddress(log.Topics[2])
		amount := new(big.Int).SetBytes(log.Data)

		if from == (nabucco.Address{}) {
			minted.Add(minted, amount)
		} else {
			balanceOf(from).Sub(balanceOf(from), amount)
		}
		balanceOf(to).Add(balanceOf(to), amount)
	}
	return balances, minted
}

// formatAmount scales a raw token amount by the token's decimals and
// renders it with an SI prefix.
func formatAmount(amount *big.Int, decimals uint8) string {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), scale).Float64()
	return unitconv.FormatPrefix(value, unitconv.SI, 3)
}
