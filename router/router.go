// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the native swap routing engine: a single
// entry surface that composes exact-input trades across constant-product
// pairs, callback-settled concentrated pools, and the singleton pool
// manager, with a protocol fee taken from one end of the trade and an
// all-or-nothing minimum-output guarantee over the whole route.
package router

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/router/access"
	"github.com/luxfi/router/dex"
	"github.com/luxfi/router/registry"
	"github.com/luxfi/router/state"
	"github.com/luxfi/router/token"
)

// Config carries the collaborators a Router composes.
type Config struct {
	Address       common.Address
	Owner         common.Address
	WrappedNative common.Address

	PairFactory *dex.PairFactory
	PoolFactory *dex.PoolFactory
	PoolManager *dex.PoolManager

	FeeRate        *big.Int
	FeeDenominator *big.Int
	FeeCollector   common.Address

	Log log.Logger
}

// Router is the settlement and routing engine. It holds no funds
// between calls except what Rescue can recover; all per-route state is
// transient.
type Router struct {
	addr          common.Address
	wrappedNative common.Address

	access *access.AccessControl
	pause  *access.PauseGate
	lock   *access.ReentrancyLock

	fees FeeConfig

	pairFactory *dex.PairFactory
	poolFactory *dex.PoolFactory
	poolManager *dex.PoolManager

	log log.Logger

	// inflight is the settlement context of the callback-settled hop
	// currently executing, nil when no settlement is pending.
	inflight *SettlementContext
}

// NewRouter wires a routing engine from its collaborators. Zero-value
// addresses in cfg fall back to the registry defaults.
func NewRouter(cfg Config) (*Router, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, access.ErrZeroOwner
	}
	if cfg.Address == (common.Address{}) {
		cfg.Address = registry.RouterAddress
	}
	if cfg.WrappedNative == (common.Address{}) {
		cfg.WrappedNative = registry.WrappedNativeAddress
	}
	if cfg.FeeDenominator == nil || cfg.FeeDenominator.Sign() == 0 {
		cfg.FeeDenominator = big.NewInt(10_000)
	}
	if cfg.FeeRate == nil {
		cfg.FeeRate = new(big.Int)
	}
	if cfg.FeeRate.Cmp(cfg.FeeDenominator) >= 0 {
		return nil, ErrFeeRateTooHigh
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	return &Router{
		addr:          cfg.Address,
		wrappedNative: cfg.WrappedNative,
		access:        access.NewAccessControl(cfg.Owner),
		pause:         access.NewPauseGate(),
		lock:          access.NewReentrancyLock(),
		fees: FeeConfig{
			FeeRate:        new(big.Int).Set(cfg.FeeRate),
			FeeDenominator: new(big.Int).Set(cfg.FeeDenominator),
			FeeCollector:   cfg.FeeCollector,
			Exempt:         make(map[common.Address]bool),
		},
		pairFactory: cfg.PairFactory,
		poolFactory: cfg.PoolFactory,
		poolManager: cfg.PoolManager,
		log:         logger,
	}, nil
}

// Address returns the router's own address.
func (r *Router) Address() common.Address { return r.addr }

// Owner returns the administrative owner.
func (r *Router) Owner() common.Address { return r.access.Owner() }

// Fees returns a copy of the current fee schedule.
func (r *Router) Fees() FeeConfig {
	cp := r.fees
	cp.FeeRate = new(big.Int).Set(r.fees.FeeRate)
	cp.FeeDenominator = new(big.Int).Set(r.fees.FeeDenominator)
	cp.Exempt = make(map[common.Address]bool, len(r.fees.Exempt))
	for a := range r.fees.Exempt {
		cp.Exempt[a] = true
	}
	return cp
}

// Paused reports the pause gate.
func (r *Router) Paused() bool { return r.pause.Paused() }

// ============================================================
// Administrative surface (owner-gated)
// ============================================================

// Pause stops all swap entry points.
func (r *Router) Pause(caller common.Address) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	r.pause.Pause()
	r.log.Info("router paused", "by", caller)
	return nil
}

// Unpause re-enables the swap entry points.
func (r *Router) Unpause(caller common.Address) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	r.pause.Unpause()
	r.log.Info("router unpaused", "by", caller)
	return nil
}

// TransferOwnership hands the administrative surface to newOwner.
func (r *Router) TransferOwnership(caller, newOwner common.Address) error {
	return r.access.TransferOwnership(caller, newOwner)
}

// SetFeeRate updates the protocol fee rate. The rate must stay below
// the denominator.
func (r *Router) SetFeeRate(caller common.Address, rate *big.Int) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	if rate == nil || rate.Sign() < 0 || rate.Cmp(r.fees.FeeDenominator) >= 0 {
		return ErrFeeRateTooHigh
	}
	r.fees.FeeRate = new(big.Int).Set(rate)
	r.fees.Version++
	return nil
}

// SetFeeCollector updates where protocol fees accrue.
func (r *Router) SetFeeCollector(caller, collector common.Address) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	if collector == (common.Address{}) {
		return ErrZeroAddress
	}
	r.fees.FeeCollector = collector
	r.fees.Version++
	return nil
}

// AddFeeExempt marks addr as paying no protocol fee.
func (r *Router) AddFeeExempt(caller, addr common.Address) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	r.fees.Exempt[addr] = true
	r.fees.Version++
	return nil
}

// RemoveFeeExempt clears addr's fee exemption.
func (r *Router) RemoveFeeExempt(caller, addr common.Address) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	delete(r.fees.Exempt, addr)
	r.fees.Version++
	return nil
}

// Rescue withdraws router-held balances. asset is a token address, or
// the zero address for the native asset.
func (r *Router) Rescue(db state.StateDB, caller, asset, to common.Address, amount *big.Int) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if asset == (common.Address{}) {
		native, overflow := uint256.FromBig(amount)
		if overflow || db.GetBalance(r.addr).Lt(native) {
			return token.ErrInsufficientBalance
		}
		db.SubBalance(r.addr, native)
		db.AddBalance(to, native)
	} else if err := token.Transfer(db, asset, r.addr, to, amount); err != nil {
		return err
	}
	r.log.Info("rescued", "asset", asset, "to", to, "amount", amount)
	return nil
}
