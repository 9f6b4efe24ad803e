// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"testing"

	"github.com/Fantom-foundation/Nabucco/go/nabucco"
)

func TestContext_UnsetSlotsReadAsZero(t *testing.T) {
	context := NewContext()
	if want, got := (nabucco.Word{}), context.GetStorage(nabucco.Key{1}); want != got {
		t.Errorf("unexpected value for unset slot, want %v, got %v", want, got)
	}
}

func TestContext_StorageWritesAreVisible(t *testing.T) {
	context := NewContext()
	key := nabucco.Key{1}
	value := nabucco.Word{2}
	context.SetStorage(key, value)
	if want, got := value, context.GetStorage(key); want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
}

func TestContext_RestoreSnapshotDiscardsWritesAndLogs(t *testing.T) {
	context := NewContext()
	key := nabucco.Key{1}
	context.SetStorage(key, nabucco.Word{1})
	context.EmitLog(nabucco.Log{Topics: []nabucco.Hash{{1}}})

	snapshot := context.CreateSnapshot()
	context.SetStorage(key, nabucco.Word{2})
	context.SetStorage(nabucco.Key{2}, nabucco.Word{3})
	context.EmitLog(nabucco.Log{Topics: []nabucco.Hash{{2}}})
	context.RestoreSnapshot(snapshot)

	if want, got := (nabucco.Word{1}), context.GetStorage(key); want != got {
		t.Errorf("restore did not revert overwritten slot, want %v, got %v", want, got)
	}
	if want, got := (nabucco.Word{}), context.GetStorage(nabucco.Key{2}); want != got {
		t.Errorf("restore did not revert added slot, want %v, got %v", want, got)
	}
	if want, got := 1, len(context.GetLogs()); want != got {
		t.Errorf("restore did not revert logs, want %d entries, got %d", want, got)
	}
}

func TestContext_NestedSnapshotsRestoreInOrder(t *testing.T) {
	context := NewContext()
	key := nabucco.Key{1}
	context.SetStorage(key, nabucco.Word{1})

	outer := context.CreateSnapshot()
	context.SetStorage(key, nabucco.Word{2})
	inner := context.CreateSnapshot()
	context.SetStorage(key, nabucco.Word{3})

	context.RestoreSnapshot(inner)
	if want, got := (nabucco.Word{2}), context.GetStorage(key); want != got {
		t.Errorf("unexpected value after inner restore, want %v, got %v", want, got)
	}
	context.RestoreSnapshot(outer)
	if want, got := (nabucco.Word{1}), context.GetStorage(key); want != got {
		t.Errorf("unexpected value after outer restore, want %v, got %v", want, got)
	}
}

func TestContext_GetLogsReturnsACopy(t *testing.T) {
	context := NewContext()
	context.EmitLog(nabucco.Log{Topics: []nabucco.Hash{{1}}})
	logs := context.GetLogs()
	logs[0] = nabucco.Log{}
	restored := context.GetLogs()
	if want, got := 1, len(restored); want != got {
		t.Fatalf("unexpected number of logs, want %d, got %d", want, got)
	}
	if want, got := (nabucco.Hash{1}), restored[0].Topics[0]; want != got {
		t.Errorf("caller mutated internal log list, want topic %v, got %v", want, got)
	}
}

func TestContext_CallerIsAssignable(t *testing.T) {
	context := NewContext()
	caller := nabucco.Address{0x42}
	context.SetCaller(caller)
	if want, got := caller, context.Caller(); want != got {
		t.Errorf("unexpected caller, want %v, got %v", want, got)
	}
}
