// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package access provides the administrative collaborators composed into
// the swap router: owner checks, a pause gate, and a reentrancy lock.
// Each component is independent and testable in isolation; the router
// wires them together instead of inheriting them.
package access

import (
	"errors"

	"github.com/luxfi/geth/common"
)

var (
	ErrUnauthorized = errors.New("access: caller is not the owner")
	ErrZeroOwner    = errors.New("access: owner cannot be the zero address")
	ErrPaused       = errors.New("access: paused")
	ErrReentrant    = errors.New("access: reentrant call")
)

// AccessControl tracks a single owner address.
type AccessControl struct {
	owner common.Address
}

// NewAccessControl creates an access controller with the given owner.
func NewAccessControl(owner common.Address) *AccessControl {
	return &AccessControl{owner: owner}
}

// Owner returns the current owner.
func (a *AccessControl) Owner() common.Address {
	return a.owner
}

// RequireOwner fails unless caller is the current owner.
func (a *AccessControl) RequireOwner(caller common.Address) error {
	if caller != a.owner {
		return ErrUnauthorized
	}
	return nil
}

// TransferOwnership hands ownership to newOwner. Owner-gated.
func (a *AccessControl) TransferOwnership(caller, newOwner common.Address) error {
	if err := a.RequireOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrZeroOwner
	}
	a.owner = newOwner
	return nil
}

// PauseGate is a plain pause flag. Gating who may flip it is the
// composing component's concern.
type PauseGate struct {
	paused bool
}

// NewPauseGate creates an unpaused gate.
func NewPauseGate() *PauseGate {
	return &PauseGate{}
}

// Pause sets the flag.
func (p *PauseGate) Pause() { p.paused = true }

// Unpause clears the flag.
func (p *PauseGate) Unpause() { p.paused = false }

// Paused reports the flag.
func (p *PauseGate) Paused() bool { return p.paused }

// RequireNotPaused fails while the gate is paused.
func (p *PauseGate) RequireNotPaused() error {
	if p.paused {
		return ErrPaused
	}
	return nil
}

// ReentrancyLock rejects nested entry. The host serializes calls, so the
// only hazard is a malicious counter-party re-entering mid-call.
type ReentrancyLock struct {
	held bool
}

// NewReentrancyLock creates an unheld lock.
func NewReentrancyLock() *ReentrancyLock {
	return &ReentrancyLock{}
}

// Enter acquires the lock, failing if it is already held.
func (l *ReentrancyLock) Enter() error {
	if l.held {
		return ErrReentrant
	}
	l.held = true
	return nil
}

// Exit releases the lock.
func (l *ReentrancyLock) Exit() { l.held = false }

// Held reports whether the lock is currently held.
func (l *ReentrancyLock) Held() bool { return l.held }
