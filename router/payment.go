// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// pay moves amount of asset from payer to recipient. Three mutually
// exclusive strategies, tried in order:
//
//  1. asset is the wrapped native token and the router holds enough
//     unwrapped native: wrap exactly amount, then push;
//  2. payer is the router itself: push from custodied balance;
//  3. otherwise: pull from payer via pre-authorized allowance.
//
// Any failure is fatal to the enclosing route.
func (r *Router) pay(db state.StateDB, asset, payer, recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	if asset == r.wrappedNative {
		if native, overflow := uint256.FromBig(amount); !overflow && !db.GetBalance(r.addr).Lt(native) {
			if err := token.Deposit(db, asset, r.addr, amount); err != nil {
				return err
			}
			return token.Transfer(db, asset, r.addr, recipient, amount)
		}
	}

	if payer == r.addr {
		return token.Transfer(db, asset, r.addr, recipient, amount)
	}

	return token.TransferFrom(db, asset, r.addr, payer, recipient, amount)
}

// sweep returns any input-asset balance left on the router to the
// originating caller. Run unconditionally after every callback-settled
// hop; wrapping overshoot is the usual source of leftovers.
func (r *Router) sweep(db state.StateDB, asset, origin common.Address) error {
	left := token.BalanceOf(db, asset, r.addr)
	if left.Sign() == 0 {
		return nil
	}
	return token.Transfer(db, asset, r.addr, origin, left)
}
