// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// Storage key prefixes for pool manager state.
var (
	poolReservePrefix = []byte("prsv")
	syncedPrefix      = []byte("sync")
)

func managerKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// UnlockCallback is the callback executed inside an unlock context.
// caller is the pool manager's own address. Whatever it returns is
// echoed back to the unlocker.
type UnlockCallback func(db state.StateDB, caller common.Address, data []byte) ([]byte, error)

// PoolManager hosts every singleton pool in one component. Swaps run
// inside an unlock context under flash accounting: pool operations
// accumulate per-currency deltas that must net to zero by the time the
// callback returns, settled by paying the manager (Settle) or taking
// owed funds out (Take).
type PoolManager struct {
	addr common.Address

	// locked prevents reentrancy
	locked bool

	// locker is the active unlock context owner, if any
	locker common.Address

	// deltas tracks balance changes during the active unlock.
	// Positive = owed to the manager.
	deltas map[common.Address]*big.Int
}

// NewPoolManager creates a pool manager deployed at addr.
func NewPoolManager(addr common.Address) *PoolManager {
	return &PoolManager{addr: addr}
}

// Address returns the manager's own address.
func (pm *PoolManager) Address() common.Address { return pm.addr }

func poolReserveKey(id [32]byte, side byte) common.Hash {
	return managerKey(poolReservePrefix, append(id[:], side))
}

// InitializePool registers a pool for key with empty reserves.
func (pm *PoolManager) InitializePool(db state.StateDB, key PoolKey) error {
	if !tokensSorted(key.Token0, key.Token1) {
		return ErrTokensNotSorted
	}
	if key.Fee == 0 || key.Fee > FeeMax {
		return ErrInvalidFee
	}
	id := key.ID()
	marker := managerKey(poolReservePrefix, append(id[:], 'i'))
	if db.GetState(pm.addr, marker) != (common.Hash{}) {
		return ErrPoolAlreadyInitialized
	}
	db.SetState(pm.addr, marker, common.Hash{31: 1})
	return nil
}

func (pm *PoolManager) poolInitialized(db state.StateDB, id [32]byte) bool {
	return db.GetState(pm.addr, managerKey(poolReservePrefix, append(id[:], 'i'))) != (common.Hash{})
}

func (pm *PoolManager) poolReserves(db state.StateDB, id [32]byte) (*big.Int, *big.Int) {
	return readAmount(db, pm.addr, poolReserveKey(id, '0')), readAmount(db, pm.addr, poolReserveKey(id, '1'))
}

func (pm *PoolManager) setPoolReserves(db state.StateDB, id [32]byte, r0, r1 *big.Int) {
	writeAmount(db, pm.addr, poolReserveKey(id, '0'), r0)
	writeAmount(db, pm.addr, poolReserveKey(id, '1'), r1)
}

// syncedBalance is the manager's last recorded holding of a currency,
// used by Settle to credit exactly what was transferred in.
func (pm *PoolManager) syncedBalance(db state.StateDB, cur common.Address) *big.Int {
	return readAmount(db, pm.addr, managerKey(syncedPrefix, cur.Bytes()))
}

func (pm *PoolManager) setSyncedBalance(db state.StateDB, cur common.Address, v *big.Int) {
	writeAmount(db, pm.addr, managerKey(syncedPrefix, cur.Bytes()), v)
}

// AddLiquidity seeds a pool's reserves from the provider's balance.
func (pm *PoolManager) AddLiquidity(db state.StateDB, provider common.Address, key PoolKey, amount0, amount1 *big.Int) error {
	id := key.ID()
	if !pm.poolInitialized(db, id) {
		return ErrPoolNotInitialized
	}
	if err := token.Transfer(db, key.Token0, provider, pm.addr, amount0); err != nil {
		return err
	}
	if err := token.Transfer(db, key.Token1, provider, pm.addr, amount1); err != nil {
		return err
	}
	r0, r1 := pm.poolReserves(db, id)
	pm.setPoolReserves(db, id, new(big.Int).Add(r0, amount0), new(big.Int).Add(r1, amount1))
	pm.setSyncedBalance(db, key.Token0, token.BalanceOf(db, key.Token0, pm.addr))
	pm.setSyncedBalance(db, key.Token1, token.BalanceOf(db, key.Token1, pm.addr))
	return nil
}

// Unlock opens a flash-accounting context for caller and runs cb inside
// it. All currency deltas accumulated by the callback must net to zero
// before Unlock returns; the callback's result is echoed back.
func (pm *PoolManager) Unlock(db state.StateDB, caller common.Address, data []byte, cb UnlockCallback) ([]byte, error) {
	if pm.locked {
		return nil, ErrReentrant
	}
	pm.locked = true
	pm.locker = caller
	pm.deltas = make(map[common.Address]*big.Int)
	defer func() {
		pm.locked = false
		pm.locker = common.Address{}
		pm.deltas = nil
	}()

	result, err := cb(db, pm.addr, data)
	if err != nil {
		return nil, err
	}

	for cur, delta := range pm.deltas {
		if delta.Sign() != 0 {
			return nil, fmt.Errorf("%w: currency=%s delta=%s", ErrNonZeroDelta, cur.Hex(), delta.String())
		}
	}
	return result, nil
}

func (pm *PoolManager) updateDelta(cur common.Address, d *big.Int) {
	current, ok := pm.deltas[cur]
	if !ok {
		current = new(big.Int)
	}
	pm.deltas[cur] = new(big.Int).Add(current, d)
}

// Swap trades an exact input against the pool for key. Unlock-only: the
// input is recorded as owed to the manager and the output as owed to
// the locker; both must be settled before the unlock closes.
func (pm *PoolManager) Swap(db state.StateDB, key PoolKey, zeroForOne bool, amountIn *big.Int) (*big.Int, error) {
	if !pm.locked {
		return nil, ErrNotUnlocked
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	id := key.ID()
	if !pm.poolInitialized(db, id) {
		return nil, ErrPoolNotInitialized
	}
	r0, r1 := pm.poolReserves(db, id)
	rIn, rOut := r0, r1
	if !zeroForOne {
		rIn, rOut = r1, r0
	}
	if rIn.Sign() == 0 || rOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	effIn := new(big.Int).Mul(amountIn, big.NewInt(int64(FeePpmDenominator-key.Fee)))
	effIn.Div(effIn, big.NewInt(FeePpmDenominator))
	amountOut := new(big.Int).Mul(effIn, rOut)
	amountOut.Div(amountOut, new(big.Int).Add(rIn, effIn))
	if amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutput
	}
	if amountOut.Cmp(rOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	newIn := new(big.Int).Add(rIn, amountIn)
	newOut := new(big.Int).Sub(rOut, amountOut)
	if zeroForOne {
		pm.setPoolReserves(db, id, newIn, newOut)
		pm.updateDelta(key.Token0, amountIn)
		pm.updateDelta(key.Token1, new(big.Int).Neg(amountOut))
	} else {
		pm.setPoolReserves(db, id, newOut, newIn)
		pm.updateDelta(key.Token1, amountIn)
		pm.updateDelta(key.Token0, new(big.Int).Neg(amountOut))
	}
	return amountOut, nil
}

// Settle credits the locker with whatever of cur was transferred to the
// manager since the last sync, returning the credited amount.
func (pm *PoolManager) Settle(db state.StateDB, cur common.Address) (*big.Int, error) {
	if !pm.locked {
		return nil, ErrNotUnlocked
	}
	actual := token.BalanceOf(db, cur, pm.addr)
	credited := new(big.Int).Sub(actual, pm.syncedBalance(db, cur))
	if credited.Sign() < 0 {
		credited = new(big.Int)
	}
	pm.updateDelta(cur, new(big.Int).Neg(credited))
	pm.setSyncedBalance(db, cur, actual)
	return credited, nil
}

// Take transfers amount of cur out of the manager to recipient,
// debiting the locker's delta. Unlock-only.
func (pm *PoolManager) Take(db state.StateDB, cur, recipient common.Address, amount *big.Int) error {
	if !pm.locked {
		return ErrNotUnlocked
	}
	if err := token.Transfer(db, cur, pm.addr, recipient, amount); err != nil {
		return err
	}
	pm.updateDelta(cur, amount)
	pm.setSyncedBalance(db, cur, token.BalanceOf(db, cur, pm.addr))
	return nil
}

// Reserves returns the recorded reserves for key's pool.
func (pm *PoolManager) Reserves(db state.StateDB, key PoolKey) (*big.Int, *big.Int, error) {
	id := key.ID()
	if !pm.poolInitialized(db, id) {
		return nil, nil, ErrPoolNotInitialized
	}
	r0, r1 := pm.poolReserves(db, id)
	return r0, r1, nil
}
