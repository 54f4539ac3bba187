// go-civ
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-civ.
//
// go-civ is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-civ is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-civ; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package ptt

import (
	"context"
	"errors"
)

// catRig is the part of civ.RigInterface a CATKeyer needs
type catRig interface {
	SetPTT(ctx context.Context, on bool) error
	GetPTT(ctx context.Context) (bool, error)
}

// CATKeyer keys the rig with the CI-V PTT command
type CATKeyer struct {
	rig catRig
}

// NewCATKeyer returns a keyer driving rig's PTT command
func NewCATKeyer(rig catRig) (*CATKeyer, error) {
	if rig == nil {
		return nil, errors.New("rig cannot be nil")
	}
	return &CATKeyer{rig: rig}, nil
}

// SetPTT implements Keyer
func (k *CATKeyer) SetPTT(ctx context.Context, on bool) error {
	return k.rig.SetPTT(ctx, on)
}

// GetPTT implements Keyer
func (k *CATKeyer) GetPTT(ctx context.Context) (bool, error) {
	return k.rig.GetPTT(ctx)
}

// Close implements Keyer. The rig stays open; it belongs to the caller.
func (*CATKeyer) Close() error {
	return nil
}
