// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
)

var (
	testToken = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testWLUX  = common.HexToAddress("0x0000000000000000000000000000000000009001")
	alice     = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob       = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
)

func newLedger(t *testing.T) *state.Ledger {
	t.Helper()
	return state.New(nil)
}

func TestRegister_Duplicate(t *testing.T) {
	db := newLedger(t)

	if err := Register(db, Token{Address: testToken}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := Register(db, Token{Address: testToken}); err != ErrAlreadyRegistered {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if err := Register(db, Token{Address: alice, TransferFeeBps: 10001}); err != ErrFeeTooHigh {
		t.Fatalf("expected ErrFeeTooHigh, got %v", err)
	}
}

func TestMintAndTransfer(t *testing.T) {
	db := newLedger(t)
	if err := Register(db, Token{Address: testToken}); err != nil {
		t.Fatal(err)
	}
	if err := Mint(db, testToken, alice, big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}

	if err := Transfer(db, testToken, alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := BalanceOf(db, testToken, alice); got.Cmp(big.NewInt(600)) != 0 {
		t.Errorf("alice balance = %v, want 600", got)
	}
	if got := BalanceOf(db, testToken, bob); got.Cmp(big.NewInt(400)) != 0 {
		t.Errorf("bob balance = %v, want 400", got)
	}

	if err := Transfer(db, testToken, alice, bob, big.NewInt(601)); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := Transfer(db, testToken, alice, bob, big.NewInt(-1)); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransfer_FeeOnTransfer(t *testing.T) {
	db := newLedger(t)
	// 2% transfer fee, burned.
	if err := Register(db, Token{Address: testToken, TransferFeeBps: 200}); err != nil {
		t.Fatal(err)
	}
	if err := Mint(db, testToken, alice, big.NewInt(10_000)); err != nil {
		t.Fatal(err)
	}

	if err := Transfer(db, testToken, alice, bob, big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}
	// Recipient gets 1000 - 2% = 980; the 20 is burned from supply.
	if got := BalanceOf(db, testToken, bob); got.Cmp(big.NewInt(980)) != 0 {
		t.Errorf("bob balance = %v, want 980", got)
	}
	if got := BalanceOf(db, testToken, alice); got.Cmp(big.NewInt(9000)) != 0 {
		t.Errorf("alice balance = %v, want 9000", got)
	}
	if got := TotalSupply(db, testToken); got.Cmp(big.NewInt(9980)) != 0 {
		t.Errorf("supply = %v, want 9980", got)
	}
}

func TestApproveTransferFrom(t *testing.T) {
	db := newLedger(t)
	if err := Register(db, Token{Address: testToken}); err != nil {
		t.Fatal(err)
	}
	if err := Mint(db, testToken, alice, big.NewInt(500)); err != nil {
		t.Fatal(err)
	}

	spender := common.HexToAddress("0x5e00000000000000000000000000000000000003")
	if err := TransferFrom(db, testToken, spender, alice, bob, big.NewInt(100)); err != ErrInsufficientAllowance {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := Approve(db, testToken, alice, spender, big.NewInt(300)); err != nil {
		t.Fatal(err)
	}
	if err := TransferFrom(db, testToken, spender, alice, bob, big.NewInt(100)); err != nil {
		t.Fatalf("transferFrom failed: %v", err)
	}
	if got := Allowance(db, testToken, alice, spender); got.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("allowance = %v, want 200", got)
	}
	if got := BalanceOf(db, testToken, bob); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("bob balance = %v, want 100", got)
	}
}

func TestWrappedNative_DepositWithdraw(t *testing.T) {
	db := newLedger(t)
	if err := Register(db, Token{Address: testWLUX, WrappedNative: true}); err != nil {
		t.Fatal(err)
	}
	db.AddBalance(alice, uint256.NewInt(1000))

	if err := Deposit(db, testWLUX, alice, big.NewInt(400)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if got := BalanceOf(db, testWLUX, alice); got.Cmp(big.NewInt(400)) != 0 {
		t.Errorf("wrapped balance = %v, want 400", got)
	}
	if got := db.GetBalance(alice); !got.Eq(uint256.NewInt(600)) {
		t.Errorf("native balance = %v, want 600", got)
	}
	// Custody of the native moved to the token account.
	if got := db.GetBalance(testWLUX); !got.Eq(uint256.NewInt(400)) {
		t.Errorf("token custody = %v, want 400", got)
	}

	if err := Withdraw(db, testWLUX, alice, big.NewInt(400)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if got := db.GetBalance(alice); !got.Eq(uint256.NewInt(1000)) {
		t.Errorf("native balance = %v, want 1000", got)
	}
	if got := BalanceOf(db, testWLUX, alice); got.Sign() != 0 {
		t.Errorf("wrapped balance = %v, want 0", got)
	}

	if err := Deposit(db, testWLUX, alice, big.NewInt(2000)); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := Deposit(db, testToken, alice, big.NewInt(1)); err != ErrNotWrappedNative {
		t.Fatalf("expected ErrNotWrappedNative, got %v", err)
	}
}
