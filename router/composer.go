// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// ============================================================
// Route composition
// ============================================================

// SwapRoute executes an exact-input trade across an ordered sequence of
// hops. feeToken selects which end of the route pays the protocol fee
// and must equal the first input or the last output asset; when it
// matches both, the input side pays. The whole route is atomic: any
// failure, including a net output below minOut, reverts every balance
// change.
func (r *Router) SwapRoute(
	db state.StateDB,
	caller common.Address,
	route Route,
	feeToken common.Address,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	if err := r.pause.RequireNotPaused(); err != nil {
		return nil, err
	}
	if err := r.lock.Enter(); err != nil {
		return nil, err
	}
	defer r.lock.Exit()
	return r.swapRoute(db, caller, route, feeToken, amountIn, minOut, recipient)
}

func (r *Router) swapRoute(
	db state.StateDB,
	caller common.Address,
	route Route,
	feeToken common.Address,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	if err := route.Validate(); err != nil {
		return nil, err
	}
	if feeToken != route.TokenIn() && feeToken != route.TokenOut() {
		return nil, ErrInvalidRoute
	}
	if recipient == (common.Address{}) || amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidRoute
	}
	if minOut == nil {
		minOut = new(big.Int)
	}

	snap := db.Snapshot()
	received, err := r.runRoute(db, caller, route, feeToken, amountIn, minOut, recipient)
	if err != nil {
		db.RevertToSnapshot(snap)
		return nil, err
	}
	return received, nil
}

func (r *Router) runRoute(
	db state.StateDB,
	caller common.Address,
	route Route,
	feeToken common.Address,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	inputSideFee := feeToken == route.TokenIn()
	tokenOut := route.TokenOut()

	// With an output-side fee the router receives the whole route so
	// the fee can be carved out of the proceeds afterwards.
	finalRecipient := recipient
	if !inputSideFee {
		finalRecipient = r.addr
	}

	receiverBefore := token.BalanceOf(db, tokenOut, recipient)

	amount := new(big.Int).Set(amountIn)
	if inputSideFee {
		if fee := r.fees.feeFor(caller, amount); fee.Sign() > 0 {
			if err := r.pay(db, feeToken, caller, r.fees.FeeCollector, fee); err != nil {
				return nil, err
			}
			amount.Sub(amount, fee)
		}
	}

	n := len(route)
	prefunded := false
	for i, hop := range route {
		payer := caller
		if i > 0 {
			payer = r.addr
		}

		hopRecipient := finalRecipient
		nextPrefunded := false
		if i < n-1 {
			// Intermediate output lands in router custody, except in
			// the mixed two-leg case where a trailing constant-product
			// pair can accept pre-funding directly. Callback-settled
			// hops pull their input, so they are never pre-funded.
			hopRecipient = r.addr
			if n == 2 && route[0].Kind != route[1].Kind && route[1].Kind == ConstantProduct {
				hopRecipient = r.expectedPair(route[1].TokenIn, route[1].TokenOut)
				nextPrefunded = true
			}
		}

		var out *big.Int
		var err error
		switch hop.Kind {
		case ConstantProduct:
			out, err = r.execConstantProduct(db, hop, payer, amount, hopRecipient, prefunded)
		case ConcentratedLiquidity:
			out, err = r.execConcentrated(db, hop, payer, caller, amount, hopRecipient)
		case SingletonPool:
			out, err = r.execSingleton(db, hop, payer, caller, amount, hopRecipient)
		default:
			return nil, ErrInvalidRoute
		}
		if err != nil {
			return nil, err
		}
		amount = out
		prefunded = nextPrefunded
	}

	if !inputSideFee {
		fee := r.fees.feeFor(caller, amount)
		net := new(big.Int).Sub(amount, fee)
		if fee.Sign() > 0 {
			if err := token.Transfer(db, feeToken, r.addr, r.fees.FeeCollector, fee); err != nil {
				return nil, err
			}
		}
		if err := token.Transfer(db, tokenOut, r.addr, recipient, net); err != nil {
			return nil, err
		}
	}

	received := new(big.Int).Sub(token.BalanceOf(db, tokenOut, recipient), receiverBefore)
	if received.Cmp(minOut) < 0 {
		return nil, ErrSlippageExceeded
	}

	r.log.Info("route settled",
		"payer", caller,
		"receiver", recipient,
		"feeAsset", feeToken,
		"hops", len(route),
		"amountIn", amountIn,
		"amountOut", received,
		"feeVersion", r.fees.Version,
	)
	return received, nil
}

// SwapSingleHop executes one hop with input-side fee semantics after a
// deadline check against the current block number.
func (r *Router) SwapSingleHop(
	db state.StateDB,
	caller common.Address,
	hop Hop,
	amountIn, minOut *big.Int,
	recipient common.Address,
	deadline uint64,
) (*big.Int, error) {
	if db.GetBlockNumber() > deadline {
		return nil, ErrDeadlineExceeded
	}
	return r.SwapRoute(db, caller, Route{hop}, hop.TokenIn, amountIn, minOut, recipient)
}

// ============================================================
// Protocol-specific convenience entries
// ============================================================

// ExactInputPair trades tokenIn for tokenOut through their
// constant-product pair.
func (r *Router) ExactInputPair(
	db state.StateDB,
	caller common.Address,
	tokenIn, tokenOut common.Address,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	route := Route{{TokenIn: tokenIn, TokenOut: tokenOut, Kind: ConstantProduct}}
	return r.SwapRoute(db, caller, route, tokenIn, amountIn, minOut, recipient)
}

// ExactInputPairRoute trades along a token path through consecutive
// constant-product pairs.
func (r *Router) ExactInputPairRoute(
	db state.StateDB,
	caller common.Address,
	path []common.Address,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidRoute
	}
	route := make(Route, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		route = append(route, Hop{TokenIn: path[i], TokenOut: path[i+1], Kind: ConstantProduct})
	}
	return r.SwapRoute(db, caller, route, path[0], amountIn, minOut, recipient)
}

// ExactInputSingle trades through one concentrated pool at the given
// fee tier, optionally bounded by sqrtPriceLimitX96.
func (r *Router) ExactInputSingle(
	db state.StateDB,
	caller common.Address,
	tokenIn, tokenOut common.Address,
	fee uint32,
	sqrtPriceLimitX96 *big.Int,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	route := Route{{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Kind:              ConcentratedLiquidity,
		Fee:               fee,
		SqrtPriceLimitX96: sqrtPriceLimitX96,
	}}
	return r.SwapRoute(db, caller, route, tokenIn, amountIn, minOut, recipient)
}

// ExactInput trades along a token path through consecutive concentrated
// pools; fees[i] is the tier for the pool between path[i] and path[i+1].
func (r *Router) ExactInput(
	db state.StateDB,
	caller common.Address,
	path []common.Address,
	fees []uint32,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	if len(path) < 2 || len(fees) != len(path)-1 {
		return nil, ErrInvalidRoute
	}
	route := make(Route, 0, len(fees))
	for i := 0; i < len(fees); i++ {
		route = append(route, Hop{
			TokenIn:  path[i],
			TokenOut: path[i+1],
			Kind:     ConcentratedLiquidity,
			Fee:      fees[i],
		})
	}
	return r.SwapRoute(db, caller, route, path[0], amountIn, minOut, recipient)
}

// ExactInputMixed trades exactly two legs of differing protocol kinds.
func (r *Router) ExactInputMixed(
	db state.StateDB,
	caller common.Address,
	first, second Hop,
	amountIn, minOut *big.Int,
	recipient common.Address,
) (*big.Int, error) {
	if first.Kind == second.Kind {
		return nil, ErrMixedRouteLegs
	}
	route := Route{first, second}
	return r.SwapRoute(db, caller, route, first.TokenIn, amountIn, minOut, recipient)
}
