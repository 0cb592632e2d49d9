// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// KV key prefixes for persisted state.
var (
	storagePrefix = []byte("stor")
	balancePrefix = []byte("baln")
	accountPrefix = []byte("acct")
)

// makeKey derives a fixed KV key from a prefix and identifier.
func makeKey(prefix []byte, id []byte) []byte {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	key := make([]byte, 32)
	h.Digest().Read(key)
	return key
}

// journalEntry undoes one state mutation.
type journalEntry func()

// Ledger implements StateDB over an optional KV database. All mutations
// stay in memory until Commit; reads fall through to the database on a
// cache miss. A nil database gives a purely in-memory ledger.
type Ledger struct {
	kv database.Database

	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	accounts map[common.Address]bool
	block    uint64

	journal []journalEntry
}

var _ StateDB = (*Ledger)(nil)

// New creates a ledger backed by kv. kv may be nil.
func New(kv database.Database) *Ledger {
	return &Ledger{
		kv:       kv,
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		accounts: make(map[common.Address]bool),
	}
}

// SetBlockNumber sets the block height reported to the engine.
func (l *Ledger) SetBlockNumber(n uint64) { l.block = n }

// GetBlockNumber returns the current block height.
func (l *Ledger) GetBlockNumber() uint64 { return l.block }

func (l *Ledger) slot(addr common.Address) map[common.Hash]common.Hash {
	s, ok := l.storage[addr]
	if !ok {
		s = make(map[common.Hash]common.Hash)
		l.storage[addr] = s
	}
	return s
}

// GetState reads a storage slot, falling back to the KV database.
func (l *Ledger) GetState(addr common.Address, key common.Hash) common.Hash {
	s := l.slot(addr)
	if v, ok := s[key]; ok {
		return v
	}
	var v common.Hash
	if l.kv != nil {
		if raw, err := l.kv.Get(makeKey(storagePrefix, append(addr.Bytes(), key.Bytes()...))); err == nil {
			v = common.BytesToHash(raw)
		}
	}
	s[key] = v
	return v
}

// SetState writes a storage slot.
func (l *Ledger) SetState(addr common.Address, key common.Hash, value common.Hash) {
	prev := l.GetState(addr, key)
	l.slot(addr)[key] = value
	l.journal = append(l.journal, func() { l.slot(addr)[key] = prev })
}

// GetBalance returns a copy of addr's native balance.
func (l *Ledger) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	b := new(uint256.Int)
	if l.kv != nil {
		if raw, err := l.kv.Get(makeKey(balancePrefix, addr.Bytes())); err == nil {
			b.SetBytes(raw)
		}
	}
	l.balances[addr] = b
	return new(uint256.Int).Set(b)
}

func (l *Ledger) setBalance(addr common.Address, b *uint256.Int) {
	prev := l.GetBalance(addr)
	l.balances[addr] = b
	l.journal = append(l.journal, func() { l.balances[addr] = prev })
}

// AddBalance credits addr's native balance.
func (l *Ledger) AddBalance(addr common.Address, amount *uint256.Int) {
	l.setBalance(addr, new(uint256.Int).Add(l.GetBalance(addr), amount))
}

// SubBalance debits addr's native balance, clamping at zero.
func (l *Ledger) SubBalance(addr common.Address, amount *uint256.Int) {
	cur := l.GetBalance(addr)
	if amount.Gt(cur) {
		l.setBalance(addr, new(uint256.Int))
		return
	}
	l.setBalance(addr, new(uint256.Int).Sub(cur, amount))
}

// Exist reports whether addr has been created.
func (l *Ledger) Exist(addr common.Address) bool {
	if l.accounts[addr] {
		return true
	}
	if l.kv != nil {
		if ok, err := l.kv.Has(makeKey(accountPrefix, addr.Bytes())); err == nil && ok {
			l.accounts[addr] = true
			return true
		}
	}
	return false
}

// CreateAccount marks addr as created.
func (l *Ledger) CreateAccount(addr common.Address) {
	if l.accounts[addr] {
		return
	}
	l.accounts[addr] = true
	l.journal = append(l.journal, func() { delete(l.accounts, addr) })
}

// Snapshot returns the current journal position.
func (l *Ledger) Snapshot() int { return len(l.journal) }

// RevertToSnapshot unwinds every mutation made after the snapshot.
func (l *Ledger) RevertToSnapshot(id int) {
	if id < 0 || id > len(l.journal) {
		return
	}
	for i := len(l.journal) - 1; i >= id; i-- {
		l.journal[i]()
	}
	l.journal = l.journal[:id]
}

// Commit flushes the in-memory state to the KV database and clears the
// journal. No-op without a database.
func (l *Ledger) Commit() error {
	l.journal = l.journal[:0]
	if l.kv == nil {
		return nil
	}
	batch := l.kv.NewBatch()
	for addr, slots := range l.storage {
		for key, val := range slots {
			k := makeKey(storagePrefix, append(addr.Bytes(), key.Bytes()...))
			if err := batch.Put(k, val.Bytes()); err != nil {
				return err
			}
		}
	}
	for addr, bal := range l.balances {
		if err := batch.Put(makeKey(balancePrefix, addr.Bytes()), bal.Bytes()); err != nil {
			return err
		}
	}
	for addr := range l.accounts {
		if err := batch.Put(makeKey(accountPrefix, addr.Bytes()), []byte{1}); err != nil {
			return err
		}
	}
	return batch.Write()
}
