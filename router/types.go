// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/dex"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrInvalidRoute        = errors.New("router: invalid route")
	ErrMixedRouteLegs      = errors.New("router: mixed route requires exactly two legs of differing kinds")
	ErrSlippageExceeded    = errors.New("router: output below minimum")
	ErrUntrustedCallback   = errors.New("router: untrusted callback origin")
	ErrDeadlineExceeded    = errors.New("router: deadline exceeded")
	ErrInvalidPayload      = errors.New("router: malformed settlement payload")
	ErrNoPendingSettlement = errors.New("router: no settlement in flight")
	ErrFeeRateTooHigh      = errors.New("router: fee rate must be below denominator")
	ErrZeroAddress         = errors.New("router: zero address")
)

// ============================================================
// Route model
// ============================================================

// Kind selects the liquidity protocol a hop trades against.
type Kind uint8

const (
	// ConstantProduct is a two-token reserve pair settled synchronously.
	ConstantProduct Kind = iota
	// ConcentratedLiquidity is a per-pair pool settled through a swap
	// callback that collects the input after output is released.
	ConcentratedLiquidity
	// SingletonPool is a pool hosted by the shared pool manager,
	// settled under flash accounting inside an unlock context.
	SingletonPool
)

func (k Kind) String() string {
	switch k {
	case ConstantProduct:
		return "constant-product"
	case ConcentratedLiquidity:
		return "concentrated"
	case SingletonPool:
		return "singleton"
	default:
		return "unknown"
	}
}

// Hop describes a single swap leg. Immutable once built; the composer
// consumes each hop exactly once.
type Hop struct {
	TokenIn  common.Address
	TokenOut common.Address
	Kind     Kind

	// Fee is the pool fee tier in ppm. Unused for constant-product
	// hops, which carry the pair's fixed fee.
	Fee uint32

	// SqrtPriceLimitX96 optionally bounds a concentrated hop's price
	// movement. Nil means the protocol extreme for the direction.
	SqrtPriceLimitX96 *big.Int
}

// Route is an ordered sequence of hops. Each hop's output token must
// equal the next hop's input token.
type Route []Hop

// Validate rejects empty routes, self-swaps, and broken token chaining.
func (r Route) Validate() error {
	if len(r) == 0 {
		return ErrInvalidRoute
	}
	for i, hop := range r {
		if hop.TokenIn == hop.TokenOut {
			return ErrInvalidRoute
		}
		if hop.Kind > SingletonPool {
			return ErrInvalidRoute
		}
		if i > 0 && r[i-1].TokenOut != hop.TokenIn {
			return ErrInvalidRoute
		}
	}
	return nil
}

// TokenIn returns the route's first input asset.
func (r Route) TokenIn() common.Address { return r[0].TokenIn }

// TokenOut returns the route's final output asset.
func (r Route) TokenOut() common.Address { return r[len(r)-1].TokenOut }

// ============================================================
// Fee configuration
// ============================================================

// FeeConfig is the protocol fee schedule. The engine reads it during a
// route; only the administrative surface mutates it, bumping Version on
// every change.
type FeeConfig struct {
	FeeRate        *big.Int
	FeeDenominator *big.Int
	FeeCollector   common.Address
	Exempt         map[common.Address]bool
	Version        uint64
}

// feeFor computes floor(amount * rate / denominator), zero for exempt
// payers.
func (fc *FeeConfig) feeFor(payer common.Address, amount *big.Int) *big.Int {
	if fc.Exempt[payer] || fc.FeeRate == nil || fc.FeeRate.Sign() == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, fc.FeeRate)
	return fee.Div(fee, fc.FeeDenominator)
}

// ============================================================
// Settlement context
// ============================================================

// SettlementStatus tracks a callback-settled hop through its lifecycle.
type SettlementStatus uint8

const (
	StatusInitiated SettlementStatus = iota
	StatusAwaitingCallback
	StatusVerified
	StatusSettled
	StatusAborted
)

func (s SettlementStatus) String() string {
	switch s {
	case StatusInitiated:
		return "initiated"
	case StatusAwaitingCallback:
		return "awaiting-callback"
	case StatusVerified:
		return "verified"
	case StatusSettled:
		return "settled"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// SettlementContext is the transient record of one callback-settled
// hop. It exists only between the swap invocation and the callback
// return and is never persisted.
type SettlementContext struct {
	TokenIn  common.Address
	TokenOut common.Address
	Fee      uint32

	// Payer funds the settlement: the originating caller on the first
	// hop, the router itself afterwards.
	Payer common.Address

	// Origin is the external caller that initiated the route; leftover
	// input is swept back to it.
	Origin common.Address

	AmountIn  *big.Int
	Recipient common.Address

	Status SettlementStatus
}

// Payload layout, fixed offsets:
//
//	[0:20]    tokenIn
//	[20:23]   fee tier, big-endian uint24
//	[23:43]   tokenOut
//	[43:63]   payer
//	[63:83]   origin
//	[83:115]  amountIn, big-endian uint256
//	[115:135] recipient
const payloadLen = 135

// Encode packs the context into the wire payload carried through a
// pool's swap callback.
func (sc *SettlementContext) Encode() []byte {
	buf := make([]byte, payloadLen)
	copy(buf[0:20], sc.TokenIn.Bytes())
	buf[20] = byte(sc.Fee >> 16)
	buf[21] = byte(sc.Fee >> 8)
	buf[22] = byte(sc.Fee)
	copy(buf[23:43], sc.TokenOut.Bytes())
	copy(buf[43:63], sc.Payer.Bytes())
	copy(buf[63:83], sc.Origin.Bytes())
	sc.AmountIn.FillBytes(buf[83:115])
	copy(buf[115:135], sc.Recipient.Bytes())
	return buf
}

// DecodeSettlementContext parses a wire payload back into a context.
// The decoded context starts in the awaiting-callback state.
func DecodeSettlementContext(buf []byte) (*SettlementContext, error) {
	if len(buf) != payloadLen {
		return nil, ErrInvalidPayload
	}
	sc := &SettlementContext{
		TokenIn:   common.BytesToAddress(buf[0:20]),
		Fee:       uint32(buf[20])<<16 | uint32(buf[21])<<8 | uint32(buf[22]),
		TokenOut:  common.BytesToAddress(buf[23:43]),
		Payer:     common.BytesToAddress(buf[43:63]),
		Origin:    common.BytesToAddress(buf[63:83]),
		AmountIn:  new(big.Int).SetBytes(buf[83:115]),
		Recipient: common.BytesToAddress(buf[115:135]),
		Status:    StatusAwaitingCallback,
	}
	if sc.Fee > dex.FeeMax {
		return nil, ErrInvalidPayload
	}
	return sc, nil
}
