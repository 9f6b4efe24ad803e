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

import "fmt"

// Errors reported by ledger operations. A non-nil error aborts the current
// call; the dispatcher rolls back all storage writes and log emissions of
// the call before handing the error to the host. The capitalized balance
// and allowance messages are part of the external interface and are
// surfaced to callers verbatim.
var (
	ErrInsufficientBalance   = fmt.Errorf("Insufficient balance")
	ErrInsufficientAllowance = fmt.Errorf("Insufficient allowance")
	ErrArithmeticOverflow    = fmt.Errorf("arithmetic overflow")
	ErrAlreadyInitialized    = fmt.Errorf("already initialized")
	ErrInvalidMethodID       = fmt.Errorf("invalid method ID")
)
