// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dex implements the liquidity sources the swap router settles
// against: constant-product pairs, concentrated-liquidity pools that
// collect payment through a settlement callback, and a singleton pool
// manager using unlock/callback flash accounting.
package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Pool fee tiers, in millionths of the input (ppm).
const (
	Fee001 uint24 = 100    // 0.01% - stablecoins
	Fee005 uint24 = 500    // 0.05% - stable pairs
	Fee030 uint24 = 3000   // 0.30% - standard
	Fee100 uint24 = 10000  // 1.00% - exotic pairs
	FeeMax uint24 = 100000 // 10% cap
)

// FeePpmDenominator is the ppm fee denominator shared by the
// concentrated pools and the singleton manager.
const FeePpmDenominator = 1_000_000

var (
	ErrIdenticalTokens        = errors.New("dex: identical tokens")
	ErrTokensNotSorted        = errors.New("dex: tokens not sorted")
	ErrInvalidFee             = errors.New("dex: invalid fee")
	ErrPairExists             = errors.New("dex: pair already exists")
	ErrPairNotFound           = errors.New("dex: pair not found")
	ErrPoolExists             = errors.New("dex: pool already exists")
	ErrPoolNotFound           = errors.New("dex: pool not found")
	ErrPoolNotInitialized     = errors.New("dex: pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("dex: pool already initialized")
	ErrInsufficientInput      = errors.New("dex: insufficient input amount")
	ErrInsufficientOutput     = errors.New("dex: insufficient output amount")
	ErrInsufficientLiquidity  = errors.New("dex: insufficient liquidity")
	ErrPriceLimitReached      = errors.New("dex: price limit reached")
	ErrCallbackNotPaid        = errors.New("dex: settlement callback did not pay")
	ErrReentrant              = errors.New("dex: reentrancy detected")
	ErrNotUnlocked            = errors.New("dex: not in an unlock context")
	ErrNonZeroDelta           = errors.New("dex: non-zero balance delta after unlock")
)

// Extreme sqrt price ratios (Q64.96). Swaps default to one past these
// bounds when the caller supplies no limit.
var (
	MinSqrtRatio    = new(big.Int).SetUint64(4295128739)
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)
)

// uint24 type alias for fees
type uint24 = uint32

// SortTokens returns a and b in canonical order (ascending bytes).
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// tokensSorted reports whether t0 sorts strictly before t1.
func tokensSorted(t0, t1 common.Address) bool {
	return bytes.Compare(t0.Bytes(), t1.Bytes()) < 0
}

// PoolKey uniquely identifies a pool hosted by the singleton manager.
// Token0 must sort before Token1.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint24
}

// ID computes the unique pool identifier.
func (pk PoolKey) ID() [32]byte {
	h := blake3.New()
	h.Write(pk.Token0.Bytes())
	h.Write(pk.Token1.Bytes())

	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], pk.Fee)
	h.Write(feeBytes[1:]) // uint24

	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// deriveAddress derives a deterministic counter-party address from a
// domain tag and the defining parameters. The low 20 bytes of the
// blake3 digest become the address.
func deriveAddress(tag []byte, parts ...[]byte) common.Address {
	h := blake3.New()
	h.Write(tag)
	for _, p := range parts {
		h.Write(p)
	}
	var sum [32]byte
	h.Digest().Read(sum[:])
	return common.BytesToAddress(sum[12:])
}

// PairAddress recomputes the deterministic address of the
// constant-product pair for (tokenA, tokenB) under factory.
func PairAddress(factory, tokenA, tokenB common.Address) common.Address {
	t0, t1 := SortTokens(tokenA, tokenB)
	return deriveAddress([]byte("pair"), factory.Bytes(), t0.Bytes(), t1.Bytes())
}

// PoolAddress recomputes the deterministic address of the concentrated
// pool for (tokenA, tokenB, fee) under factory.
func PoolAddress(factory, tokenA, tokenB common.Address, fee uint24) common.Address {
	t0, t1 := SortTokens(tokenA, tokenB)
	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], fee)
	return deriveAddress([]byte("pool"), factory.Bytes(), t0.Bytes(), t1.Bytes(), feeBytes[1:])
}
