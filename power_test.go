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
	"math/rand"
	"testing"

	"github.com/OpenPSG/broadband"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// syntheticTrace returns n samples of unit Gaussian noise with a 150 Hz
// burst of amplitude 5 over [burstStart, burstEnd).
func syntheticTrace(seed int64, n, burstStart, burstEnd int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	trace := make([]float64, n)
	for i := range trace {
		trace[i] = rng.NormFloat64()
		if i >= burstStart && i < burstEnd {
			trace[i] += 5 * math.Sin(2*math.Pi*150*float64(i)/broadband.SampleRate)
		}
	}
	return trace
}

func TestConvertToPowerProperties(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		trace := syntheticTrace(seed, 1000+int(seed)*137, 300, 400)

		power, err := broadband.ConvertToPower(trace)
		require.NoError(t, err)
		require.Len(t, power, len(trace))

		for i, v := range power {
			require.GreaterOrEqual(t, v, 0.0, "sample %d", i)
		}
		assert.InDelta(t, 1.0, stat.Mean(power, nil), 1e-9)
	}
}

func TestConvertToPowerDeterministic(t *testing.T) {
	trace := syntheticTrace(42, 3000, 1000, 1200)
	original := append([]float64(nil), trace...)

	a, err := broadband.ConvertToPower(trace)
	require.NoError(t, err)
	b, err := broadband.ConvertToPower(trace)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, original, trace, "input must not be modified")
}

func TestConvertToPowerFindsBurst(t *testing.T) {
	trace := syntheticTrace(7, 1000, 320, 380)

	power, err := broadband.ConvertToPower(trace)
	require.NoError(t, err)

	peak := floats.MaxIdx(power)
	assert.GreaterOrEqual(t, peak, 300)
	assert.Less(t, peak, 400)
	assert.Greater(t, power[peak], 3.0)
}

func TestConvertToPowerInvalid(t *testing.T) {
	_, err := broadband.ConvertToPower(nil)
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)

	trace := syntheticTrace(1, 500, 0, 0)
	trace[17] = math.NaN()
	_, err = broadband.ConvertToPower(trace)
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)

	trace[17] = math.Inf(1)
	_, err = broadband.ConvertToPower(trace)
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)

	// A flat line has no broadband power to normalize by.
	_, err = broadband.ConvertToPower(make([]float64, 500))
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)

	_, err = broadband.ConvertToPower(make([]float64, 5))
	require.ErrorIs(t, err, broadband.ErrInvalidSignal)
}

func TestNewConverter(t *testing.T) {
	hp, err := broadband.Butterworth(3, 50, 1000, broadband.HighPass)
	require.NoError(t, err)
	lp, err := broadband.Butterworth(3, 10, 1000, broadband.LowPass)
	require.NoError(t, err)

	c, err := broadband.NewConverter(hp, lp, broadband.WithFloat32Input(false))
	require.NoError(t, err)

	trace := syntheticTrace(3, 2000, 500, 600)
	got, err := c.Convert(trace)
	require.NoError(t, err)
	want, err := broadband.ConvertToPower(trace)
	require.NoError(t, err)

	// Only float32 rounding of the input differs.
	assert.InDeltaSlice(t, want, got, 1e-4)

	_, err = broadband.NewConverter(broadband.Filter{B: []float64{1}, A: []float64{0}}, lp)
	require.Error(t, err)
}
