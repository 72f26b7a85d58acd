// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package broadband_test

import (
	"math"
	"testing"

	"github.com/OpenPSG/broadband"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButterworthLowPass(t *testing.T) {
	f, err := broadband.Butterworth(3, 10, 1000, broadband.LowPass)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{
		2.914649446569766e-05, 8.743948339709298e-05, 8.743948339709298e-05, 2.914649446569766e-05,
	}, f.B, 1e-12)
	assert.InDeltaSlice(t, []float64{
		1.0, -2.8743568926774845, 2.7564831952256954, -0.8818931305924856,
	}, f.A, 1e-9)
}

func TestButterworthHighPass(t *testing.T) {
	f, err := broadband.Butterworth(3, 50, 1000, broadband.HighPass)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{
		0.7294407226390824, -2.1883221679172475, 2.1883221679172475, -0.7294407226390824,
	}, f.B, 1e-9)
	assert.InDeltaSlice(t, []float64{
		1.0, -2.374094743709352, 1.929355669091215, -0.5320753683120918,
	}, f.A, 1e-9)
}

func TestButterworthInvalid(t *testing.T) {
	_, err := broadband.Butterworth(0, 10, 1000, broadband.LowPass)
	require.Error(t, err)

	_, err = broadband.Butterworth(3, 500, 1000, broadband.LowPass)
	require.Error(t, err)

	_, err = broadband.Butterworth(3, -1, 1000, broadband.HighPass)
	require.Error(t, err)
}

func TestFiltFiltConstant(t *testing.T) {
	lp, err := broadband.Butterworth(3, 10, 1000, broadband.LowPass)
	require.NoError(t, err)
	hp, err := broadband.Butterworth(3, 50, 1000, broadband.HighPass)
	require.NoError(t, err)

	x := make([]float64, 500)
	for i := range x {
		x[i] = 4.2
	}

	y, err := broadband.FiltFilt(lp, x)
	require.NoError(t, err)
	require.Len(t, y, len(x))
	for i := range y {
		require.InDelta(t, 4.2, y[i], 1e-6)
	}

	y, err = broadband.FiltFilt(hp, x)
	require.NoError(t, err)
	for i := range y {
		require.InDelta(t, 0, y[i], 1e-6)
	}
}

func TestFiltFiltAttenuatesStopBand(t *testing.T) {
	lp, err := broadband.Butterworth(3, 10, 1000, broadband.LowPass)
	require.NoError(t, err)

	// 100 Hz is a decade above the cutoff; two passes of a 3rd-order filter
	// leave well under 1% of it.
	x := make([]float64, 2000)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 1000)
	}

	y, err := broadband.FiltFilt(lp, x)
	require.NoError(t, err)

	for i := 200; i < 1800; i++ {
		require.Less(t, math.Abs(y[i]), 0.01)
	}
}

func TestFiltFiltTooShort(t *testing.T) {
	lp, err := broadband.Butterworth(3, 10, 1000, broadband.LowPass)
	require.NoError(t, err)

	_, err = broadband.FiltFilt(lp, make([]float64, 12))
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)

	_, err = broadband.FiltFilt(broadband.Filter{B: []float64{1}}, make([]float64, 100))
	require.Error(t, err)
}
