// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
)

// PoolFactory creates and indexes concentrated-liquidity pools, one per
// (token0, token1, fee) tuple, at deterministic addresses.
type PoolFactory struct {
	addr   common.Address
	byAddr map[common.Address]*Pool
	byKey  map[PoolKey]*Pool
}

// NewPoolFactory creates a factory deployed at addr.
func NewPoolFactory(addr common.Address) *PoolFactory {
	return &PoolFactory{
		addr:   addr,
		byAddr: make(map[common.Address]*Pool),
		byKey:  make(map[PoolKey]*Pool),
	}
}

// Address returns the factory's own address.
func (f *PoolFactory) Address() common.Address { return f.addr }

// CreatePool deploys the pool for (tokenA, tokenB, fee) at its
// deterministic address.
func (f *PoolFactory) CreatePool(db state.StateDB, tokenA, tokenB common.Address, fee uint24) (*Pool, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalTokens
	}
	if fee == 0 || fee > FeeMax {
		return nil, ErrInvalidFee
	}
	t0, t1 := SortTokens(tokenA, tokenB)
	key := PoolKey{Token0: t0, Token1: t1, Fee: fee}
	if _, ok := f.byKey[key]; ok {
		return nil, ErrPoolExists
	}
	p := &Pool{
		Address: PoolAddress(f.addr, t0, t1, fee),
		Token0:  t0,
		Token1:  t1,
		Fee:     fee,
	}
	db.CreateAccount(p.Address)
	f.byAddr[p.Address] = p
	f.byKey[key] = p
	return p, nil
}

// Pool returns the pool for (tokenA, tokenB, fee) in either order.
func (f *PoolFactory) Pool(tokenA, tokenB common.Address, fee uint24) (*Pool, bool) {
	t0, t1 := SortTokens(tokenA, tokenB)
	p, ok := f.byKey[PoolKey{Token0: t0, Token1: t1, Fee: fee}]
	return p, ok
}

// PoolByAddress returns the pool deployed at addr.
func (f *PoolFactory) PoolByAddress(addr common.Address) (*Pool, bool) {
	p, ok := f.byAddr[addr]
	return p, ok
}
