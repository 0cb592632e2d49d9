// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/dex"
)

// expectedPair recomputes the counter-party address for a
// constant-product hop from its defining parameters alone.
func (r *Router) expectedPair(tokenA, tokenB common.Address) common.Address {
	return dex.PairAddress(r.pairFactory.Address(), tokenA, tokenB)
}

// expectedPool recomputes the counter-party address for a concentrated
// hop. Callback verification hinges on this being derivable without a
// lookup table.
func (r *Router) expectedPool(tokenA, tokenB common.Address, fee uint32) common.Address {
	return dex.PoolAddress(r.poolFactory.Address(), tokenA, tokenB, fee)
}

// verifyPoolCallback authenticates a concentrated pool's settlement
// callback: the actual caller must equal the address derived from the
// claimed (tokenIn, tokenOut, fee) tuple and the trusted factory.
func (r *Router) verifyPoolCallback(caller common.Address, sc *SettlementContext) error {
	if caller != r.expectedPool(sc.TokenIn, sc.TokenOut, sc.Fee) {
		sc.Status = StatusAborted
		return ErrUntrustedCallback
	}
	sc.Status = StatusVerified
	return nil
}

// verifyManagerCallback authenticates an unlock callback: only the
// configured singleton pool manager may deliver it.
func (r *Router) verifyManagerCallback(caller common.Address, sc *SettlementContext) error {
	if caller != r.poolManager.Address() {
		sc.Status = StatusAborted
		return ErrUntrustedCallback
	}
	sc.Status = StatusVerified
	return nil
}
