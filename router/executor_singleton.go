// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/dex"
	"github.com/luxfi/router/state"
)

// execSingleton runs one hop against the singleton pool manager. The
// hop payload is forwarded verbatim inside the unlock data; settlement
// happens in UnlockCallback under the manager's flash accounting, so
// the unlock itself fails unless every delta nets to zero.
func (r *Router) execSingleton(
	db state.StateDB,
	hop Hop,
	payer, origin common.Address,
	amountIn *big.Int,
	recipient common.Address,
) (*big.Int, error) {
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

	result, err := r.poolManager.Unlock(db, r.addr, payload, r.UnlockCallback)
	if err != nil {
		return nil, err
	}
	if sc.Status != StatusSettled || len(result) != 32 {
		return nil, ErrNoPendingSettlement
	}
	out := new(big.Int).SetBytes(result)

	if err := r.sweep(db, hop.TokenIn, origin); err != nil {
		return nil, err
	}
	return out, nil
}

// UnlockCallback runs inside the pool manager's unlock context: swap,
// settle the owed input, take the output to the recipient, and echo the
// output amount back as a 32-byte buffer.
func (r *Router) UnlockCallback(db state.StateDB, caller common.Address, data []byte) ([]byte, error) {
	sc := r.inflight
	if sc == nil {
		return nil, ErrNoPendingSettlement
	}

	decoded, err := DecodeSettlementContext(data)
	if err != nil {
		sc.Status = StatusAborted
		return nil, err
	}
	if decoded.TokenIn != sc.TokenIn || decoded.TokenOut != sc.TokenOut ||
		decoded.Fee != sc.Fee || decoded.Payer != sc.Payer || decoded.Origin != sc.Origin {
		sc.Status = StatusAborted
		return nil, ErrUntrustedCallback
	}
	if err := r.verifyManagerCallback(caller, sc); err != nil {
		return nil, err
	}

	t0, t1 := dex.SortTokens(sc.TokenIn, sc.TokenOut)
	key := dex.PoolKey{Token0: t0, Token1: t1, Fee: sc.Fee}
	zeroForOne := sc.TokenIn == t0

	out, err := r.poolManager.Swap(db, key, zeroForOne, sc.AmountIn)
	if err != nil {
		sc.Status = StatusAborted
		return nil, err
	}

	if err := r.pay(db, sc.TokenIn, sc.Payer, caller, sc.AmountIn); err != nil {
		sc.Status = StatusAborted
		return nil, err
	}
	if _, err := r.poolManager.Settle(db, sc.TokenIn); err != nil {
		sc.Status = StatusAborted
		return nil, err
	}
	if err := r.poolManager.Take(db, sc.TokenOut, sc.Recipient, out); err != nil {
		sc.Status = StatusAborted
		return nil, err
	}
	sc.Status = StatusSettled

	buf := make([]byte, 32)
	out.FillBytes(buf)
	return buf, nil
}
