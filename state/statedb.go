// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides the ledger state surface the swap engine runs
// against: per-account key/value storage plus native balances, with
// snapshot/revert so a failing route leaves no trace.
package state

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// StateDB is the state access surface shared by the router and the
// liquidity sources. It mirrors the EVM state interface: 32-byte
// storage slots per account and native balances.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
	Exist(addr common.Address) bool
	CreateAccount(addr common.Address)
	GetBlockNumber() uint64

	// Snapshot returns an identifier for the current state; passing it
	// to RevertToSnapshot undoes every mutation made since. This is the
	// host-ledger atomicity the engine relies on.
	Snapshot() int
	RevertToSnapshot(id int)
}
