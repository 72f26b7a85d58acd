// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package broadband

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	filterOrder    = 3
	highPassCutoff = 50.0 // Hz
	lowPassCutoff  = 10.0 // Hz
)

// Converter turns a voltage trace into a normalized broadband power trace.
type Converter struct {
	highPass     Filter
	lowPass      Filter
	roundFloat32 bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithFloat32Input controls whether samples are rounded to float32 before
// filtering, as the source instrument stores them. Enabled by default.
func WithFloat32Input(enabled bool) Option {
	return func(c *Converter) {
		c.roundFloat32 = enabled
	}
}

// NewConverter creates a Converter from a high-pass filter that isolates
// broadband activity and a low-pass filter that smooths the power envelope.
func NewConverter(highPass, lowPass Filter, opts ...Option) (*Converter, error) {
	hp, err := highPass.normalized()
	if err != nil {
		return nil, fmt.Errorf("error preparing high-pass filter: %w", err)
	}
	lp, err := lowPass.normalized()
	if err != nil {
		return nil, fmt.Errorf("error preparing low-pass filter: %w", err)
	}

	c := &Converter{highPass: hp, lowPass: lp, roundFloat32: true}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var (
	defaultConverter     *Converter
	defaultConverterOnce sync.Once
)

// DefaultConverter returns the shared Converter used by both experiments:
// 3rd-order Butterworth high-pass at 50 Hz and low-pass at 10 Hz, sampled at
// 1000 Hz.
func DefaultConverter() *Converter {
	defaultConverterOnce.Do(func() {
		hp, err := Butterworth(filterOrder, highPassCutoff, SampleRate, HighPass)
		if err != nil {
			panic(err)
		}
		lp, err := Butterworth(filterOrder, lowPassCutoff, SampleRate, LowPass)
		if err != nil {
			panic(err)
		}
		c, err := NewConverter(hp, lp)
		if err != nil {
			panic(err)
		}
		defaultConverter = c
	})
	return defaultConverter
}

// ConvertToPower converts trace with the DefaultConverter.
func ConvertToPower(trace []float64) ([]float64, error) {
	return DefaultConverter().Convert(trace)
}

// Convert returns the broadband power of trace relative to its own mean.
// The output has the same length as trace, is non-negative and has a
// temporal mean of 1. trace is not modified.
func (c *Converter) Convert(trace []float64) ([]float64, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: empty trace", ErrInvalidSignal)
	}

	x := make([]float64, len(trace))
	for i, v := range trace {
		if c.roundFloat32 {
			v = float64(float32(v))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite sample %g at index %d", ErrInvalidSignal, v, i)
		}
		x[i] = v
	}

	hp, err := FiltFilt(c.highPass, x)
	if err != nil {
		return nil, fmt.Errorf("error high-pass filtering: %w", err)
	}
	floats.Mul(hp, hp)

	power, err := FiltFilt(c.lowPass, hp)
	if err != nil {
		return nil, fmt.Errorf("error low-pass filtering: %w", err)
	}
	// Smoothing can ring slightly below zero next to sharp transients.
	for i, v := range power {
		if v < 0 {
			power[i] = 0
		}
	}

	mean := stat.Mean(power, nil)
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, fmt.Errorf("%w: mean power %g cannot normalize", ErrInvalidSignal, mean)
	}
	floats.Scale(1/mean, power)

	return power, nil
}
