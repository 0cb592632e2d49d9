// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/dex"
	"github.com/luxfi/router/state"
)

// execConcentrated runs one hop against a callback-settled concentrated
// pool. The pool releases output first, then calls SwapCallback to
// collect the input; the settlement context carries everything the
// callback needs to verify and pay.
func (r *Router) execConcentrated(
	db state.StateDB,
	hop Hop,
	payer, origin common.Address,
	amountIn *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	pool, ok := r.poolFactory.Pool(hop.TokenIn, hop.TokenOut, hop.Fee)
	if !ok {
		return nil, dex.ErrPoolNotFound
	}

	sc := &SettlementContext{
		TokenIn:   hop.TokenIn,
		TokenOut:  hop.TokenOut,
		Fee:       hop.Fee,
		Payer:     payer,
		Origin:    origin,
		AmountIn:  new(big.Int).Set(amountIn),
		Recipient: recipient,
		Status:    StatusInitiated,
	}
	payload := sc.Encode()
	sc.Status = StatusAwaitingCallback
	r.inflight = sc
	defer func() { r.inflight = nil }()

	zeroForOne := hop.TokenIn == pool.Token0
	out, err := pool.Swap(db, recipient, zeroForOne, amountIn, hop.SqrtPriceLimitX96, payload, r.SwapCallback)
	if err != nil {
		return nil, err
	}
	if sc.Status != StatusSettled {
		return nil, ErrNoPendingSettlement
	}

	if err := r.sweep(db, hop.TokenIn, origin); err != nil {
		return nil, err
	}
	return out, nil
}

// SwapCallback is the settlement hook a concentrated pool invokes
// mid-swap. It authenticates the caller against the address derived
// from the claimed pool parameters, then pays the owed input. Funds
// move only after verification succeeds.
func (r *Router) SwapCallback(db state.StateDB, caller, tokenOwed common.Address, amountOwed *big.Int, data []byte) error {
	sc := r.inflight
	if sc == nil {
		return ErrNoPendingSettlement
	}

	decoded, err := DecodeSettlementContext(data)
	if err != nil {
		sc.Status = StatusAborted
		return err
	}
	if decoded.TokenIn != sc.TokenIn || decoded.TokenOut != sc.TokenOut ||
		decoded.Fee != sc.Fee || decoded.Payer != sc.Payer || decoded.Origin != sc.Origin {
		sc.Status = StatusAborted
		return ErrUntrustedCallback
	}
	if err := r.verifyPoolCallback(caller, sc); err != nil {
		return err
	}
	if tokenOwed != sc.TokenIn || amountOwed.Cmp(sc.AmountIn) > 0 {
		sc.Status = StatusAborted
		return ErrUntrustedCallback
	}

	if err := r.pay(db, tokenOwed, sc.Payer, caller, amountOwed); err != nil {
		sc.Status = StatusAborted
		return err
	}
	sc.Status = StatusSettled
	return nil
}
