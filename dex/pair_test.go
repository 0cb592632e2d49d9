// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

var (
	testFactoryAddr = common.HexToAddress("0x0000000000000000000000000000000000009015")
	tokenA          = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB          = common.HexToAddress("0x2000000000000000000000000000000000000002")
	tokenC          = common.HexToAddress("0x3000000000000000000000000000000000000003")
	trader          = common.HexToAddress("0x7000000000000000000000000000000000000007")
)

func setupPair(t *testing.T, r0, r1 int64) (*state.Ledger, *PairFactory, *Pair) {
	t.Helper()
	db := state.New(nil)
	for _, tok := range []common.Address{tokenA, tokenB, tokenC} {
		if err := token.Register(db, token.Token{Address: tok}); err != nil {
			t.Fatal(err)
		}
	}
	f := NewPairFactory(testFactoryAddr)
	p, err := f.CreatePair(db, tokenA, tokenB)
	if err != nil {
		t.Fatal(err)
	}
	if err := token.Mint(db, p.Token0, p.Address, big.NewInt(r0)); err != nil {
		t.Fatal(err)
	}
	if err := token.Mint(db, p.Token1, p.Address, big.NewInt(r1)); err != nil {
		t.Fatal(err)
	}
	p.Sync(db)
	return db, f, p
}

func TestPairAddress_Deterministic(t *testing.T) {
	a1 := PairAddress(testFactoryAddr, tokenA, tokenB)
	a2 := PairAddress(testFactoryAddr, tokenB, tokenA)
	if a1 != a2 {
		t.Fatal("pair address must be order-independent")
	}
	if a1 == PairAddress(testFactoryAddr, tokenA, tokenC) {
		t.Fatal("distinct pairs collide")
	}
	other := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	if a1 == PairAddress(other, tokenA, tokenB) {
		t.Fatal("factory must separate address spaces")
	}
}

func TestCreatePair(t *testing.T) {
	db := state.New(nil)
	f := NewPairFactory(testFactoryAddr)

	if _, err := f.CreatePair(db, tokenA, tokenA); err != ErrIdenticalTokens {
		t.Fatalf("expected ErrIdenticalTokens, got %v", err)
	}
	p, err := f.CreatePair(db, tokenB, tokenA)
	if err != nil {
		t.Fatal(err)
	}
	if p.Token0 != tokenA || p.Token1 != tokenB {
		t.Fatal("tokens not canonically sorted")
	}
	if _, err := f.CreatePair(db, tokenA, tokenB); err != ErrPairExists {
		t.Fatalf("expected ErrPairExists, got %v", err)
	}
	got, ok := f.PairByAddress(p.Address)
	if !ok || got != p {
		t.Fatal("pair not indexed by address")
	}
}

func TestGetAmountOut(t *testing.T) {
	tests := []struct {
		name               string
		in, rIn, rOut, out int64
	}{
		// 100 in against 1000/1000: floor(100*997*1000 / (1000*1000+100*997)) = 90
		{"classic", 100, 1000, 1000, 90},
		{"deep pool", 100, 1_000_000, 1_000_000, 99},
		{"asymmetric", 50, 500, 2000, 181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GetAmountOut(big.NewInt(tt.in), big.NewInt(tt.rIn), big.NewInt(tt.rOut))
			if err != nil {
				t.Fatal(err)
			}
			if out.Cmp(big.NewInt(tt.out)) != 0 {
				t.Errorf("got %v, want %d", out, tt.out)
			}
		})
	}

	if _, err := GetAmountOut(big.NewInt(0), big.NewInt(10), big.NewInt(10)); err != ErrInsufficientInput {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}
	if _, err := GetAmountOut(big.NewInt(1), big.NewInt(0), big.NewInt(10)); err != ErrInsufficientLiquidity {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestPairSwap(t *testing.T) {
	db, _, p := setupPair(t, 1000, 1000)

	// Pay 100 of token0 in, take the quoted output of token1.
	if err := token.Mint(db, p.Token0, trader, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := token.Transfer(db, p.Token0, trader, p.Address, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	out, err := GetAmountOut(big.NewInt(100), big.NewInt(1000), big.NewInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Swap(db, big.NewInt(0), out, trader); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if got := token.BalanceOf(db, p.Token1, trader); got.Cmp(out) != 0 {
		t.Errorf("trader received %v, want %v", got, out)
	}
	r0, r1 := p.Reserves(db)
	if r0.Cmp(big.NewInt(1100)) != 0 {
		t.Errorf("reserve0 = %v, want 1100", r0)
	}
	if r1.Cmp(new(big.Int).Sub(big.NewInt(1000), out)) != 0 {
		t.Errorf("reserve1 = %v", r1)
	}
}

func TestPairSwap_RejectsUnderpayment(t *testing.T) {
	db, _, p := setupPair(t, 1000, 1000)

	// Ask for one unit more than the 100-in quote without paying more.
	if err := token.Mint(db, p.Token0, trader, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := token.Transfer(db, p.Token0, trader, p.Address, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	out, _ := GetAmountOut(big.NewInt(100), big.NewInt(1000), big.NewInt(1000))
	tooMuch := new(big.Int).Add(out, big.NewInt(1))
	if err := p.Swap(db, big.NewInt(0), tooMuch, trader); err != ErrInsufficientInput {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}
}

func TestPairSwap_NoOutput(t *testing.T) {
	db, _, p := setupPair(t, 1000, 1000)
	if err := p.Swap(db, big.NewInt(0), big.NewInt(0), trader); err != ErrInsufficientOutput {
		t.Fatalf("expected ErrInsufficientOutput, got %v", err)
	}
	if err := p.Swap(db, big.NewInt(0), big.NewInt(1000), trader); err != ErrInsufficientLiquidity {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestPairSwap_FeeOnTransferInput(t *testing.T) {
	// token with a 2% transfer fee as the input side.
	db := state.New(nil)
	fot := common.HexToAddress("0x4000000000000000000000000000000000000004")
	if err := token.Register(db, token.Token{Address: fot, TransferFeeBps: 200}); err != nil {
		t.Fatal(err)
	}
	if err := token.Register(db, token.Token{Address: tokenB}); err != nil {
		t.Fatal(err)
	}
	f := NewPairFactory(testFactoryAddr)
	p, err := f.CreatePair(db, fot, tokenB)
	if err != nil {
		t.Fatal(err)
	}
	if err := token.Mint(db, p.Token0, p.Address, big.NewInt(10_000)); err != nil {
		t.Fatal(err)
	}
	if err := token.Mint(db, p.Token1, p.Address, big.NewInt(10_000)); err != nil {
		t.Fatal(err)
	}
	p.Sync(db)

	// Nominal 1000 in delivers 980 if the fee token is token0; the pool
	// only honors a quote computed from the delivered amount.
	if err := token.Mint(db, fot, trader, big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}
	if err := token.Transfer(db, fot, trader, p.Address, big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}

	r0, r1 := p.Reserves(db)
	delivered := new(big.Int).Sub(token.BalanceOf(db, p.Token0, p.Address), r0)
	var want *big.Int
	var out0, out1 *big.Int
	if p.Token0 == fot {
		want, _ = GetAmountOut(delivered, r0, r1)
		out0, out1 = big.NewInt(0), want
	} else {
		delivered = new(big.Int).Sub(token.BalanceOf(db, p.Token1, p.Address), r1)
		want, _ = GetAmountOut(delivered, r1, r0)
		out0, out1 = want, big.NewInt(0)
	}

	if err := p.Swap(db, out0, out1, trader); err != nil {
		t.Fatalf("swap priced on delivered amount must succeed: %v", err)
	}
	if got := token.BalanceOf(db, tokenB, trader); got.Cmp(want) != 0 {
		t.Errorf("trader received %v, want %v", got, want)
	}
}
