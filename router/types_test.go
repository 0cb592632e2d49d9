// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/router/dex"
)

func TestRouteValidate(t *testing.T) {
	a := common.HexToAddress("0x1000000000000000000000000000000000000001")
	b := common.HexToAddress("0x2000000000000000000000000000000000000002")
	c := common.HexToAddress("0x3000000000000000000000000000000000000003")

	tests := []struct {
		name  string
		route Route
		err   error
	}{
		{"empty", Route{}, ErrInvalidRoute},
		{"single", Route{{TokenIn: a, TokenOut: b, Kind: ConstantProduct}}, nil},
		{"chained", Route{
			{TokenIn: a, TokenOut: b, Kind: ConstantProduct},
			{TokenIn: b, TokenOut: c, Kind: ConcentratedLiquidity},
		}, nil},
		{"broken chain", Route{
			{TokenIn: a, TokenOut: b, Kind: ConstantProduct},
			{TokenIn: c, TokenOut: a, Kind: ConstantProduct},
		}, ErrInvalidRoute},
		{"self swap", Route{{TokenIn: a, TokenOut: a, Kind: ConstantProduct}}, ErrInvalidRoute},
		{"bad kind", Route{{TokenIn: a, TokenOut: b, Kind: Kind(9)}}, ErrInvalidRoute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.route.Validate(), tc.err)
		})
	}
}

func TestSettlementPayloadRoundtrip(t *testing.T) {
	sc := &SettlementContext{
		TokenIn:   common.HexToAddress("0x1000000000000000000000000000000000000001"),
		TokenOut:  common.HexToAddress("0x2000000000000000000000000000000000000002"),
		Fee:       dex.Fee030,
		Payer:     common.HexToAddress("0x7000000000000000000000000000000000000007"),
		Origin:    common.HexToAddress("0x7000000000000000000000000000000000000007"),
		AmountIn:  big.NewInt(123456789),
		Recipient: common.HexToAddress("0x8000000000000000000000000000000000000008"),
	}
	decoded, err := DecodeSettlementContext(sc.Encode())
	require.NoError(t, err)
	require.Equal(t, sc.TokenIn, decoded.TokenIn)
	require.Equal(t, sc.TokenOut, decoded.TokenOut)
	require.Equal(t, sc.Fee, decoded.Fee)
	require.Equal(t, sc.Payer, decoded.Payer)
	require.Equal(t, sc.Origin, decoded.Origin)
	require.Zero(t, sc.AmountIn.Cmp(decoded.AmountIn))
	require.Equal(t, sc.Recipient, decoded.Recipient)
	require.Equal(t, StatusAwaitingCallback, decoded.Status)
}

func TestSettlementPayloadMalformed(t *testing.T) {
	_, err := DecodeSettlementContext(nil)
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = DecodeSettlementContext(make([]byte, payloadLen-1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	// A fee tier above the protocol cap cannot come from a real hop.
	sc := &SettlementContext{Fee: dex.FeeMax + 1, AmountIn: big.NewInt(1)}
	_, err = DecodeSettlementContext(sc.Encode())
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestFeeFor(t *testing.T) {
	payer := common.HexToAddress("0x7000000000000000000000000000000000000007")
	fc := &FeeConfig{
		FeeRate:        big.NewInt(30),
		FeeDenominator: big.NewInt(10_000),
		Exempt:         map[common.Address]bool{},
	}

	require.Zero(t, fc.feeFor(payer, big.NewInt(1000)).Cmp(big.NewInt(3)))
	// floor(333 * 30 / 10000) = 0
	require.Zero(t, fc.feeFor(payer, big.NewInt(333)).Sign())

	fc.Exempt[payer] = true
	require.Zero(t, fc.feeFor(payer, big.NewInt(1_000_000)).Sign())
}
