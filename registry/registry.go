// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry holds the well-known deployment addresses for the
// native swap routing suite.
//
// All Lux-native components use trailing-significant 20-byte addresses:
//
//	Format: 0x0000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number for easy identification.
// P=9 is the DEX/Markets family (LP-9xxx); the LP-9010 series is the
// Uniswap-style pool set defined by LP-9015.
package registry

import "github.com/luxfi/geth/common"

const (
	// LP-9010 series: pools and routing.
	PoolManagerHex = "0x0000000000000000000000000000000000009010" // LP-9010 LXPool (singleton pool manager)
	RouterHex      = "0x0000000000000000000000000000000000009012" // LP-9012 LXRouter (swap routing)
	PairFactoryHex = "0x0000000000000000000000000000000000009015" // LP-9015 pair factory (constant product)
	PoolFactoryHex = "0x0000000000000000000000000000000000009016" // LP-9016 pool factory (concentrated liquidity)

	// LP-9001: canonical wrapped representative of the native asset.
	WrappedNativeHex = "0x0000000000000000000000000000000000009001"
)

var (
	PoolManagerAddress   = common.HexToAddress(PoolManagerHex)
	RouterAddress        = common.HexToAddress(RouterHex)
	PairFactoryAddress   = common.HexToAddress(PairFactoryHex)
	PoolFactoryAddress   = common.HexToAddress(PoolFactoryHex)
	WrappedNativeAddress = common.HexToAddress(WrappedNativeHex)
)
