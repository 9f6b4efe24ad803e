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
	"github.com/Fantom-foundation/Nabucco/go/nabucco"
)

var (
	transferTopic = nabucco.Hash(parsedABI.Events["Transfer"].ID)
	approvalTopic = nabucco.Hash(parsedABI.Events["Approval"].ID)
)

// TransferTopic is the topic-zero hash of the Transfer event signature.
// It is wrapped in a function to be immutable.
func TransferTopic() nabucco.Hash {
	return transferTopic
}

// ApprovalTopic is the topic-zero hash of the Approval event signature.
// It is wrapped in a function to be immutable.
func ApprovalTopic() nabucco.Hash {
	return approvalTopic
}

// emitTransfer logs a token movement. Mints use the zero address as the
// sender, marking supply entering circulation.
func emitTransfer(ctx nabucco.CallContext, from, to nabucco.Address, value nabucco.Value) {
	ctx.EmitLog(nabucco.Log{
		Topics: []nabucco.Hash{transferTopic, nabucco.Hash(addressWord(from)), nabucco.Hash(addressWord(to))},
		Data:   value[:],
	})
}

// emitApproval logs the allowance now in effect for the owner/spender
// pair, regardless of its previous value.
func emitApproval(ctx nabucco.CallContext, owner, spender nabucco.Address, value nabucco.Value) {
	ctx.EmitLog(nabucco.Log{
		Topics: []nabucco.Hash{approvalTopic, nabucco.Hash(addressWord(owner)), nabucco.Hash(addressWord(spender))},
		Data:   value[:],
	})
}
