// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// SettleFunc is the settlement callback a concentrated pool invokes
// mid-swap. caller is the pool's own address; the callee must deliver
// amountOwed of tokenOwed to the pool before returning. data is the
// opaque payload supplied by the swap initiator.
type SettleFunc func(db state.StateDB, caller common.Address, tokenOwed common.Address, amountOwed *big.Int, data []byte) error

// Pool is a concentrated-liquidity pool that settles swaps through a
// callback: output is paid to the recipient first, then the callback
// must deliver the owed input before the swap completes.
type Pool struct {
	Address common.Address
	Token0  common.Address
	Token1  common.Address
	Fee     uint24 // ppm
}

// SqrtPriceX96 reports the pool's current sqrt price in Q64.96,
// derived from its token balances.
func (p *Pool) SqrtPriceX96(db state.StateDB) *big.Int {
	bal0 := token.BalanceOf(db, p.Token0, p.Address)
	bal1 := token.BalanceOf(db, p.Token1, p.Address)
	return sqrtPriceFromBalances(bal0, bal1)
}

// Swap trades an exact input against the pool. The output is released
// to the recipient, then settle is invoked to collect amountIn of the
// input token, then the pool verifies it was actually paid. A nil
// sqrtPriceLimitX96 means one past the extreme ratio for the trade
// direction.
func (p *Pool) Swap(
	db state.StateDB,
	recipient common.Address,
	zeroForOne bool,
	amountIn *big.Int,
	sqrtPriceLimitX96 *big.Int,
	data []byte,
	settle SettleFunc,
) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if sqrtPriceLimitX96 == nil {
		if zeroForOne {
			sqrtPriceLimitX96 = new(big.Int).Add(MinSqrtRatio, big.NewInt(1))
		} else {
			sqrtPriceLimitX96 = new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
		}
	}

	tokenIn, tokenOut := p.Token0, p.Token1
	if !zeroForOne {
		tokenIn, tokenOut = p.Token1, p.Token0
	}

	balIn := token.BalanceOf(db, tokenIn, p.Address)
	balOut := token.BalanceOf(db, tokenOut, p.Address)
	if balIn.Sign() == 0 || balOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Constant-product over current balances with the ppm fee on input.
	effIn := new(big.Int).Mul(amountIn, big.NewInt(int64(FeePpmDenominator-p.Fee)))
	effIn.Div(effIn, big.NewInt(FeePpmDenominator))
	amountOut := new(big.Int).Mul(effIn, balOut)
	amountOut.Div(amountOut, new(big.Int).Add(balIn, effIn))
	if amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutput
	}
	if amountOut.Cmp(balOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Reject trades that would push the price past the caller's bound.
	var post0, post1 *big.Int
	if zeroForOne {
		post0 = new(big.Int).Add(balIn, amountIn)
		post1 = new(big.Int).Sub(balOut, amountOut)
	} else {
		post0 = new(big.Int).Sub(balOut, amountOut)
		post1 = new(big.Int).Add(balIn, amountIn)
	}
	postPrice := sqrtPriceFromBalances(post0, post1)
	if zeroForOne {
		if postPrice.Cmp(sqrtPriceLimitX96) < 0 {
			return nil, ErrPriceLimitReached
		}
	} else if postPrice.Cmp(sqrtPriceLimitX96) > 0 {
		return nil, ErrPriceLimitReached
	}

	if err := token.Transfer(db, tokenOut, p.Address, recipient, amountOut); err != nil {
		return nil, err
	}

	owedBefore := token.BalanceOf(db, tokenIn, p.Address)
	if err := settle(db, p.Address, tokenIn, amountIn, data); err != nil {
		return nil, err
	}
	paid := new(big.Int).Sub(token.BalanceOf(db, tokenIn, p.Address), owedBefore)
	if paid.Cmp(amountIn) < 0 {
		return nil, ErrCallbackNotPaid
	}

	return amountOut, nil
}

// sqrtPriceFromBalances computes sqrt(bal1/bal0) * 2^96 as
// sqrt(bal1 << 192 / bal0).
func sqrtPriceFromBalances(bal0, bal1 *big.Int) *big.Int {
	if bal0.Sign() == 0 {
		return new(big.Int).Set(MaxSqrtRatio)
	}
	ratio := new(big.Int).Lsh(bal1, 192)
	ratio.Div(ratio, bal0)
	return ratio.Sqrt(ratio)
}
