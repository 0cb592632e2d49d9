// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token tracks fungible token balances and allowances in ledger
// state. Tokens are registered per address; a token may levy a transfer
// fee (deducted and burned on every transfer), and the wrapped native
// token additionally supports deposit/withdraw against native balances.
package token

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/router/state"
)

var (
	ErrNotRegistered         = errors.New("token: not registered")
	ErrAlreadyRegistered     = errors.New("token: already registered")
	ErrInvalidAmount         = errors.New("token: invalid amount")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrNotWrappedNative      = errors.New("token: not the wrapped native token")
	ErrFeeTooHigh            = errors.New("token: transfer fee above 100%")
)

// FeeDenominator is the basis-point denominator for transfer fees.
const FeeDenominator = 10_000

// Storage key prefixes within a token's account storage.
var (
	balancePrefix   = []byte("tbal")
	allowancePrefix = []byte("tawl")
	configKey       = []byte("tcfg")
	supplyKey       = []byte("tsup")
)

// Token describes a registered token.
type Token struct {
	Address        common.Address
	TransferFeeBps uint16 // deducted and burned on every transfer
	WrappedNative  bool   // 1:1 representative of the native asset
}

func makeKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func readWord(db state.StateDB, tok common.Address, key common.Hash) *big.Int {
	return new(big.Int).SetBytes(db.GetState(tok, key).Bytes())
}

func writeWord(db state.StateDB, tok common.Address, key common.Hash, v *big.Int) {
	var h common.Hash
	v.FillBytes(h[:])
	db.SetState(tok, key, h)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return ErrInvalidAmount
	}
	return nil
}

// Register records a token in state. Fails if the address already
// carries a token or the fee exceeds 100%.
func Register(db state.StateDB, tok Token) error {
	if tok.TransferFeeBps > FeeDenominator {
		return ErrFeeTooHigh
	}
	if db.Exist(tok.Address) {
		return ErrAlreadyRegistered
	}
	db.CreateAccount(tok.Address)

	var cfg common.Hash
	cfg[0] = byte(tok.TransferFeeBps >> 8)
	cfg[1] = byte(tok.TransferFeeBps)
	if tok.WrappedNative {
		cfg[2] = 1
	}
	cfg[31] = 1 // registered marker
	db.SetState(tok.Address, makeKey(configKey, nil), cfg)
	return nil
}

// IsRegistered reports whether addr carries a token.
func IsRegistered(db state.StateDB, addr common.Address) bool {
	return db.GetState(addr, makeKey(configKey, nil))[31] == 1
}

// TransferFeeBps returns the token's transfer fee in basis points.
func TransferFeeBps(db state.StateDB, tok common.Address) uint16 {
	cfg := db.GetState(tok, makeKey(configKey, nil))
	return uint16(cfg[0])<<8 | uint16(cfg[1])
}

// IsWrappedNative reports whether tok is the wrapped native token.
func IsWrappedNative(db state.StateDB, tok common.Address) bool {
	return db.GetState(tok, makeKey(configKey, nil))[2] == 1
}

// BalanceOf returns holder's balance of tok.
func BalanceOf(db state.StateDB, tok, holder common.Address) *big.Int {
	return readWord(db, tok, makeKey(balancePrefix, holder.Bytes()))
}

// TotalSupply returns tok's total supply.
func TotalSupply(db state.StateDB, tok common.Address) *big.Int {
	return readWord(db, tok, makeKey(supplyKey, nil))
}

func setBalance(db state.StateDB, tok, holder common.Address, v *big.Int) {
	writeWord(db, tok, makeKey(balancePrefix, holder.Bytes()), v)
}

// Mint creates amount of tok for to.
func Mint(db state.StateDB, tok, to common.Address, amount *big.Int) error {
	if !IsRegistered(db, tok) {
		return ErrNotRegistered
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	setBalance(db, tok, to, new(big.Int).Add(BalanceOf(db, tok, to), amount))
	writeWord(db, tok, makeKey(supplyKey, nil), new(big.Int).Add(TotalSupply(db, tok), amount))
	return nil
}

// Transfer moves amount of tok from from to to. For fee-on-transfer
// tokens the recipient receives amount minus the fee; the fee is
// burned.
func Transfer(db state.StateDB, tok, from, to common.Address, amount *big.Int) error {
	if !IsRegistered(db, tok) {
		return ErrNotRegistered
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	fromBal := BalanceOf(db, tok, from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	fee := new(big.Int)
	if bps := TransferFeeBps(db, tok); bps > 0 {
		fee.Mul(amount, big.NewInt(int64(bps)))
		fee.Div(fee, big.NewInt(FeeDenominator))
	}
	delivered := new(big.Int).Sub(amount, fee)

	setBalance(db, tok, from, new(big.Int).Sub(fromBal, amount))
	setBalance(db, tok, to, new(big.Int).Add(BalanceOf(db, tok, to), delivered))
	if fee.Sign() > 0 {
		writeWord(db, tok, makeKey(supplyKey, nil), new(big.Int).Sub(TotalSupply(db, tok), fee))
	}
	return nil
}

func allowanceKey(owner, spender common.Address) common.Hash {
	return makeKey(allowancePrefix, append(owner.Bytes(), spender.Bytes()...))
}

// Approve lets spender move up to amount of owner's tok.
func Approve(db state.StateDB, tok, owner, spender common.Address, amount *big.Int) error {
	if !IsRegistered(db, tok) {
		return ErrNotRegistered
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	writeWord(db, tok, allowanceKey(owner, spender), amount)
	return nil
}

// Allowance returns the remaining amount spender may move for owner.
func Allowance(db state.StateDB, tok, owner, spender common.Address) *big.Int {
	return readWord(db, tok, allowanceKey(owner, spender))
}

// TransferFrom moves amount of tok from from to to on behalf of
// spender, consuming allowance.
func TransferFrom(db state.StateDB, tok, spender, from, to common.Address, amount *big.Int) error {
	if !IsRegistered(db, tok) {
		return ErrNotRegistered
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	allowed := Allowance(db, tok, from, spender)
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := Transfer(db, tok, from, to, amount); err != nil {
		return err
	}
	writeWord(db, tok, allowanceKey(from, spender), new(big.Int).Sub(allowed, amount))
	return nil
}

// Deposit wraps amount of from's native balance into tok 1:1. The
// native balance moves into custody of the token account.
func Deposit(db state.StateDB, tok, from common.Address, amount *big.Int) error {
	if !IsWrappedNative(db, tok) {
		return ErrNotWrappedNative
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	native, overflow := uint256.FromBig(amount)
	if overflow {
		return ErrInvalidAmount
	}
	if db.GetBalance(from).Lt(native) {
		return ErrInsufficientBalance
	}
	db.SubBalance(from, native)
	db.AddBalance(tok, native)
	setBalance(db, tok, from, new(big.Int).Add(BalanceOf(db, tok, from), amount))
	writeWord(db, tok, makeKey(supplyKey, nil), new(big.Int).Add(TotalSupply(db, tok), amount))
	return nil
}

// Withdraw unwraps amount of from's tok balance back to native 1:1.
func Withdraw(db state.StateDB, tok, from common.Address, amount *big.Int) error {
	if !IsWrappedNative(db, tok) {
		return ErrNotWrappedNative
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := BalanceOf(db, tok, from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	native, overflow := uint256.FromBig(amount)
	if overflow {
		return ErrInvalidAmount
	}
	setBalance(db, tok, from, new(big.Int).Sub(bal, amount))
	writeWord(db, tok, makeKey(supplyKey, nil), new(big.Int).Sub(TotalSupply(db, tok), amount))
	db.SubBalance(tok, native)
	db.AddBalance(from, native)
	return nil
}
