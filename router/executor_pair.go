// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/dex"
	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// execConstantProduct runs one hop against a constant-product pair.
// The output quote uses the amount the pair actually received, not the
// nominal transfer amount, so fee-on-transfer inputs stay correct.
// prefunded means the input already sits on the pair because the
// previous hop delivered there directly.
func (r *Router) execConstantProduct(
	db state.StateDB,
	hop Hop,
	payer common.Address,
	amountIn *big.Int,
	recipient common.Address,
	prefunded bool,
) (*big.Int, error) {
	pair, ok := r.pairFactory.Pair(hop.TokenIn, hop.TokenOut)
	if !ok {
		return nil, dex.ErrPairNotFound
	}

	r0, r1 := pair.Reserves(db)
	zeroIn := hop.TokenIn == pair.Token0
	reserveIn, reserveOut := r0, r1
	if !zeroIn {
		reserveIn, reserveOut = r1, r0
	}

	if !prefunded {
		if err := r.pay(db, hop.TokenIn, payer, pair.Address, amountIn); err != nil {
			return nil, err
		}
	}

	actual := new(big.Int).Sub(token.BalanceOf(db, hop.TokenIn, pair.Address), reserveIn)
	out, err := dex.GetAmountOut(actual, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	amount0Out, amount1Out := new(big.Int), out
	if !zeroIn {
		amount0Out, amount1Out = out, new(big.Int)
	}
	if err := pair.Swap(db, amount0Out, amount1Out, recipient); err != nil {
		return nil, err
	}
	return out, nil
}
