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

//go:generate mockgen -source host.go -destination host_mock.go -package nabucco

// Storage is the persistent key-value store backing a contract instance.
// Keys identify 32-byte storage slots; slots that were never written read
// as the zero word. The store is owned by a single contract instance, so
// keys are not qualified by an account address.
type Storage interface {
	GetStorage(Key) Word
	SetStorage(Key, Word)
}

// CallContext is the interface a host provides to contract code for the
// duration of a single call. Besides storage access it identifies the
// caller, collects emitted logs, and supports snapshotting of all state
// modifications performed so far.
//
// All modifications made through a call context become visible to later
// calls only if the host commits them; restoring a snapshot discards the
// storage writes and log emissions performed since the snapshot was taken.
// Hosts serialize calls, so implementations do not need to be thread-safe.
type CallContext interface {
	Storage

	// Caller returns the address the host identified as the initiator of
	// the current call.
	Caller() Address

	CreateSnapshot() Snapshot
	RestoreSnapshot(Snapshot)

	EmitLog(Log)
	GetLogs() []Log
}
