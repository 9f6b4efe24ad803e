// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package memory provides a volatile, in-memory implementation of the host
// call context. It backs the command line driver's default mode and most
// of the test infrastructure.
package memory

import (
	"slices"

	"github.com/Fantom-foundation/Nabucco/go/nabucco"
)

// Context keeps contract storage and emitted logs in memory. Snapshots are
// implemented with an undo log: every mutation appends its inverse, and
// restoring a snapshot unwinds the tail.
type Context struct {
	caller  nabucco.Address
	storage map[nabucco.Key]nabucco.Word
	logs    []nabucco.Log
	undo    []func()
}

func NewContext() *Context {
	return &Context{
		storage: map[nabucco.Key]nabucco.Word{},
	}
}

// SetCaller assigns the sender identity reported to contract code for
// subsequent calls.
func (c *Context) SetCaller(caller nabucco.Address) {
	c.caller = caller
}

func (c *Context) Caller() nabucco.Address {
	return c.caller
}

func (c *Context) GetStorage(key nabucco.Key) nabucco.Word {
	return c.storage[key]
}

func (c *Context) SetStorage(key nabucco.Key, value nabucco.Word) {
	original, existed := c.storage[key]
	c.storage[key] = value
	c.undo = append(c.undo, func() {
		if existed {
			c.storage[key] = original
		} else {
			delete(c.storage, key)
		}
	})
}

func (c *Context) EmitLog(log nabucco.Log) {
	length := len(c.logs)
	c.logs = append(c.logs, log)
	c.undo = append(c.undo, func() { c.logs = c.logs[:length] })
}

func (c *Context) GetLogs() []nabucco.Log {
	return slices.Clone(c.logs)
}

func (c *Context) CreateSnapshot() nabucco.Snapshot {
	return nabucco.Snapshot(len(c.undo))
}

func (c *Context) RestoreSnapshot(snapshot nabucco.Snapshot) {
	for len(c.undo) > int(snapshot) {
		c.undo[len(c.undo)-1]()
		c.undo = c.undo[:len(c.undo)-1]
	}
}
