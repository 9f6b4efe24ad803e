// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package sqlite provides a persistent implementation of the host call
// context backed by a SQLite database. Storage slots and emitted logs
// survive process restarts, allowing the driver to resume a ledger and to
// inspect its event history offline.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS logs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	address BLOB NOT NULL,
	topics  BLOB NOT NULL,
	data    BLOB
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_logs_session ON logs(session);
`

// Store owns the database connection of one ledger instance. Each opened
// store registers a session; logs are attributed to the session that
// produced them.
type Store struct {
	db      *sql.DB
	session string
}

// Open opens or creates the database at the given path and registers a
// new session.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	session := uuid.NewString()
	if _, err := db.Exec("INSERT INTO sessions(id) VALUES(?)", session); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register session: %w", err)
	}
	return &Store{db: db, session: session}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Session returns the identifier assigned to this store instance.
func (s *Store) Session() string {
	return s.session
}

// NewContext creates a call context reading through to the database.
// Writes and logs are buffered in memory until Commit is called.
func (s *Store) NewContext() *Context {
	return &Context{
		store: s,
		cache: map[nabucco.Key]nabucco.Word{},
		dirty: map[nabucco.Key]struct{}{},
	}
}

// Logs returns all logs persisted in the database, in emission order
// across all sessions.
func (s *Store) Logs() ([]nabucco.Log, error) {
	rows, err := s.db.Query("SELECT address, topics, data FROM logs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var logs []nabucco.Log
	for rows.Next() {
		var address, topics, data []byte
		if err := rows.Scan(&address, &topics, &data); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		log, err := decodeLog(address, topics, data)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func decodeLog(address, topics, data []byte) (nabucco.Log, error) {
	var log nabucco.Log
	if len(address) != len(log.Address) {
		return log, fmt.Errorf("corrupted log address of %d bytes", len(address))
	}
	if len(topics)%32 != 0 {
		return log, fmt.Errorf("corrupted topic list of %d bytes", len(topics))
	}
	copy(log.Address[:], address)
	for i := 0; i < len(topics); i += 32 {
		log.Topics = append(log.Topics, nabucco.Hash(topics[i:i+32]))
	}
	log.Data = data
	return log, nil
}

// Context buffers the storage writes and log emissions of ongoing calls on
// top of the persistent slot table. Reads fall through to the database and
// are cached. Snapshots only cover the uncommitted buffer, matching the
// host model in which committed transactions are never rolled back.
type Context struct {
	store  *Store
	caller nabucco.Address
	cache  map[nabucco.Key]nabucco.Word
	dirty  map[nabucco.Key]struct{}
	logs   []nabucco.Log
	undo   []func()
	err    error
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
	if value, exists := c.cache[key]; exists {
		return value
	}
	var raw []byte
	err := c.store.db.QueryRow("SELECT value FROM slots WHERE key = ?", key[:]).Scan(&raw)
	var value nabucco.Word
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// unset slots read as zero
	case err != nil:
		c.fail(fmt.Errorf("failed to load slot %v: %w", key, err))
	case len(raw) != len(value):
		c.fail(fmt.Errorf("corrupted slot %v of %d bytes", key, len(raw)))
	default:
		copy(value[:], raw)
	}
	c.cache[key] = value
	return value
}

func (c *Context) SetStorage(key nabucco.Key, value nabucco.Word) {
	original, cached := c.cache[key]
	_, wasDirty := c.dirty[key]
	c.cache[key] = value
	c.dirty[key] = struct{}{}
	c.undo = append(c.undo, func() {
		if cached {
			c.cache[key] = original
		} else {
			delete(c.cache, key)
		}
		if !wasDirty {
			delete(c.dirty, key)
		}
	})
}

func (c *Context) EmitLog(log nabucco.Log) {
	length := len(c.logs)
	c.logs = append(c.logs, log)
	c.undo = append(c.undo, func() { c.logs = c.logs[:length] })
}

// GetLogs returns the logs emitted since the last commit.
func (c *Context) GetLogs() []nabucco.Log {
	return append([]nabucco.Log(nil), c.logs...)
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

// Err reports the first database failure encountered by storage reads.
// The nabucco.Storage interface has no error channel, so read failures
// surface here; hosts must check it after every call and discard the
// context on failure.
func (c *Context) Err() error {
	return c.err
}

func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Commit persists all buffered writes and logs in a single database
// transaction and resets the buffer. The context remains usable for
// further calls.
func (c *Context) Commit() error {
	if c.err != nil {
		return c.err
	}
	tx, err := c.store.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key := range c.dirty {
		value := c.cache[key]
		_, err := tx.Exec(
			"INSERT INTO slots(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key[:], value[:])
		if err != nil {
			return fmt.Errorf("failed to persist slot %v: %w", key, err)
		}
	}
	for _, log := range c.logs {
		topics := make([]byte, 0, len(log.Topics)*32)
		for _, topic := range log.Topics {
			topics = append(topics, topic[:]...)
		}
		_, err := tx.Exec(
			"INSERT INTO logs(session, address, topics, data) VALUES(?, ?, ?, ?)",
			c.store.session, log.Address[:], topics, log.Data)
		if err != nil {
			return fmt.Errorf("failed to persist log: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.dirty = map[nabucco.Key]struct{}{}
	c.logs = nil
	c.undo = nil
	return nil
}
