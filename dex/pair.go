// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// Storage keys under a pair's account.
var (
	reserve0Key = pairStorageKey("rsv0")
	reserve1Key = pairStorageKey("rsv1")
)

func pairStorageKey(tag string) common.Hash {
	h := blake3.New()
	h.Write([]byte(tag))
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// Pair is a two-token constant-product pool. Reserves are recorded in
// state at the pair's address; anyone may Sync them to the pair's
// actual token balances.
type Pair struct {
	Address common.Address
	Token0  common.Address
	Token1  common.Address
}

func readAmount(db state.StateDB, addr common.Address, key common.Hash) *big.Int {
	return new(big.Int).SetBytes(db.GetState(addr, key).Bytes())
}

func writeAmount(db state.StateDB, addr common.Address, key common.Hash, v *big.Int) {
	var h common.Hash
	v.FillBytes(h[:])
	db.SetState(addr, key, h)
}

// Reserves returns the recorded reserves in canonical token order.
func (p *Pair) Reserves(db state.StateDB) (*big.Int, *big.Int) {
	return readAmount(db, p.Address, reserve0Key), readAmount(db, p.Address, reserve1Key)
}

// Sync records the pair's actual token balances as its reserves. Called
// after tokens are transferred in outside a swap (liquidity seeding).
func (p *Pair) Sync(db state.StateDB) {
	writeAmount(db, p.Address, reserve0Key, token.BalanceOf(db, p.Token0, p.Address))
	writeAmount(db, p.Address, reserve1Key, token.BalanceOf(db, p.Token1, p.Address))
}

// Swap releases amount0Out/amount1Out to the recipient and then checks
// the constant-product invariant against the pair's actual balances,
// charging 0.3% on whatever input the balances show was received. The
// received input is measured from balances, so fee-on-transfer inputs
// are priced at what was actually delivered.
func (p *Pair) Swap(db state.StateDB, amount0Out, amount1Out *big.Int, recipient common.Address) error {
	if amount0Out.Sign() < 0 || amount1Out.Sign() < 0 || amount0Out.Sign()+amount1Out.Sign() == 0 {
		return ErrInsufficientOutput
	}
	r0, r1 := p.Reserves(db)
	if amount0Out.Cmp(r0) >= 0 || amount1Out.Cmp(r1) >= 0 {
		return ErrInsufficientLiquidity
	}

	if amount0Out.Sign() > 0 {
		if err := token.Transfer(db, p.Token0, p.Address, recipient, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := token.Transfer(db, p.Token1, p.Address, recipient, amount1Out); err != nil {
			return err
		}
	}

	bal0 := token.BalanceOf(db, p.Token0, p.Address)
	bal1 := token.BalanceOf(db, p.Token1, p.Address)

	amount0In := amountIn(bal0, r0, amount0Out)
	amount1In := amountIn(bal1, r1, amount1Out)
	if amount0In.Sign() == 0 && amount1In.Sign() == 0 {
		return ErrInsufficientInput
	}

	// balance*1000 - in*3 on both sides must preserve K.
	adj0 := new(big.Int).Sub(new(big.Int).Mul(bal0, big.NewInt(1000)), new(big.Int).Mul(amount0In, big.NewInt(3)))
	adj1 := new(big.Int).Sub(new(big.Int).Mul(bal1, big.NewInt(1000)), new(big.Int).Mul(amount1In, big.NewInt(3)))
	k := new(big.Int).Mul(new(big.Int).Mul(r0, r1), big.NewInt(1_000_000))
	if new(big.Int).Mul(adj0, adj1).Cmp(k) < 0 {
		return ErrInsufficientInput
	}

	writeAmount(db, p.Address, reserve0Key, bal0)
	writeAmount(db, p.Address, reserve1Key, bal1)
	return nil
}

// amountIn recovers the input received for one side: whatever the
// balance grew beyond reserve minus what was sent out.
func amountIn(balance, reserve, out *big.Int) *big.Int {
	floor := new(big.Int).Sub(reserve, out)
	if balance.Cmp(floor) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(balance, floor)
}

// GetAmountOut quotes the constant-product output for an exact input
// after the 0.3% pair fee.
func GetAmountOut(in, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if in == nil || in.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	inWithFee := new(big.Int).Mul(in, big.NewInt(997))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(1000)), inWithFee)
	return numerator.Div(numerator, denominator), nil
}
