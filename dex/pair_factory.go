// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
)

// PairFactory creates and indexes constant-product pairs at
// deterministic addresses.
type PairFactory struct {
	addr    common.Address
	byAddr  map[common.Address]*Pair
	byPairs map[[40]byte]*Pair
}

// NewPairFactory creates a factory deployed at addr.
func NewPairFactory(addr common.Address) *PairFactory {
	return &PairFactory{
		addr:    addr,
		byAddr:  make(map[common.Address]*Pair),
		byPairs: make(map[[40]byte]*Pair),
	}
}

// Address returns the factory's own address.
func (f *PairFactory) Address() common.Address { return f.addr }

func pairIndex(t0, t1 common.Address) [40]byte {
	var k [40]byte
	copy(k[:20], t0.Bytes())
	copy(k[20:], t1.Bytes())
	return k
}

// CreatePair deploys the pair for (tokenA, tokenB) at its deterministic
// address.
func (f *PairFactory) CreatePair(db state.StateDB, tokenA, tokenB common.Address) (*Pair, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalTokens
	}
	t0, t1 := SortTokens(tokenA, tokenB)
	idx := pairIndex(t0, t1)
	if _, ok := f.byPairs[idx]; ok {
		return nil, ErrPairExists
	}
	p := &Pair{
		Address: PairAddress(f.addr, t0, t1),
		Token0:  t0,
		Token1:  t1,
	}
	db.CreateAccount(p.Address)
	f.byAddr[p.Address] = p
	f.byPairs[idx] = p
	return p, nil
}

// Pair returns the pair for (tokenA, tokenB) in either order.
func (f *PairFactory) Pair(tokenA, tokenB common.Address) (*Pair, bool) {
	t0, t1 := SortTokens(tokenA, tokenB)
	p, ok := f.byPairs[pairIndex(t0, t1)]
	return p, ok
}

// PairByAddress returns the pair deployed at addr.
func (f *PairFactory) PairByAddress(addr common.Address) (*Pair, bool) {
	p, ok := f.byAddr[addr]
	return p, ok
}
