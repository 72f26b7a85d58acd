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
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Kind selects the pass band of a designed filter.
type Kind int

const (
	LowPass Kind = iota
	HighPass
)

func (k Kind) String() string {
	switch k {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Filter is an IIR filter in transfer-function form.
type Filter struct {
	B []float64 // Numerator coefficients
	A []float64 // Denominator coefficients, A[0] != 0
}

// Butterworth designs a digital Butterworth filter of the given order with
// its -3 dB point at cutoff Hz.
func Butterworth(order int, cutoff, sampleRate float64, kind Kind) (Filter, error) {
	if order < 1 {
		return Filter{}, fmt.Errorf("filter order must be positive, got %d", order)
	}
	nyquist := sampleRate / 2
	if cutoff <= 0 || cutoff >= nyquist {
		return Filter{}, fmt.Errorf("cutoff %g Hz outside (0, %g) Hz", cutoff, nyquist)
	}

	// Bilinear transform with fs=2, pre-warped so the cutoff lands exactly.
	const fs = 2.0
	warped := 2 * fs * math.Tan(math.Pi*(cutoff/nyquist)/2)

	// Analog lowpass prototype: poles evenly spaced on the left half of the
	// unit circle, no zeros, unit gain.
	poles := make([]complex128, order)
	for i := range poles {
		m := float64(-order + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}
	var zeros []complex128
	var gain float64

	switch kind {
	case LowPass:
		for i := range poles {
			poles[i] *= complex(warped, 0)
		}
		gain = math.Pow(warped, float64(order))
	case HighPass:
		prod := complex(1, 0)
		for i, p := range poles {
			prod *= -p
			poles[i] = complex(warped, 0) / p
		}
		gain = real(1 / prod)
		zeros = make([]complex128, order)
	default:
		return Filter{}, fmt.Errorf("unsupported filter kind: %s", kind)
	}

	fs2 := complex(2*fs, 0)
	num, den := complex(1, 0), complex(1, 0)
	zd := make([]complex128, 0, order)
	for _, z := range zeros {
		zd = append(zd, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	pd := make([]complex128, 0, order)
	for _, p := range poles {
		pd = append(pd, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	// Zeros at infinity map to Nyquist.
	for len(zd) < len(pd) {
		zd = append(zd, -1)
	}
	gain *= real(num / den)

	b := polyFromRoots(zd)
	floats.Scale(gain, b)

	return Filter{B: b, A: polyFromRoots(pd)}, nil
}

// polyFromRoots expands prod(x - r) and returns the real parts of its
// coefficients, highest power first.
func polyFromRoots(roots []complex128) []float64 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		next[0] = c[0]
		for i := 1; i < len(c); i++ {
			next[i] = c[i] - r*c[i-1]
		}
		next[len(c)] = -r * c[len(c)-1]
		c = next
	}

	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// normalized returns a copy of the filter padded to equal length with A[0] == 1.
func (f Filter) normalized() (Filter, error) {
	if len(f.A) == 0 || f.A[0] == 0 {
		return Filter{}, fmt.Errorf("filter denominator must start with a non-zero coefficient")
	}
	if len(f.B) == 0 {
		return Filter{}, fmt.Errorf("filter numerator is empty")
	}
	n := max(len(f.A), len(f.B))
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, f.B)
	copy(a, f.A)
	floats.Scale(1/f.A[0], b)
	floats.Scale(1/f.A[0], a)
	return Filter{B: b, A: a}, nil
}

// padLength is the number of samples reflected onto each end of a signal
// before forward-backward filtering.
func (f Filter) padLength() int {
	return 3 * max(len(f.A), len(f.B))
}

// steadyState returns the initial delay-line state for which a unit step
// input produces a constant output from the first sample.
func (f Filter) steadyState() []float64 {
	n := len(f.A)
	zi := make([]float64, n-1)
	gain := floats.Sum(f.B) / floats.Sum(f.A)
	acc := 0.0
	for k := n - 1; k >= 1; k-- {
		acc += f.B[k] - f.A[k]*gain
		zi[k-1] = acc
	}
	return zi
}

// lfilter runs the filter over x in direct form II transposed, starting from
// the delay-line state zi scaled by x0. f must be normalized.
func (f Filter) lfilter(x, zi []float64, x0 float64) []float64 {
	n := len(f.A)
	z := make([]float64, n)
	for i, v := range zi {
		z[i] = v * x0
	}

	y := make([]float64, len(x))
	for i, xi := range x {
		yi := f.B[0]*xi + z[0]
		for k := 1; k < n; k++ {
			z[k-1] = f.B[k]*xi - f.A[k]*yi + z[k]
		}
		y[i] = yi
	}
	return y
}

// FiltFilt applies f forward and then backward over x, which cancels the
// phase response of the filter. Both ends of x are extended by odd
// reflection and the filter starts in steady state, so edge transients are
// small. x must be longer than the reflected padding.
func FiltFilt(f Filter, x []float64) ([]float64, error) {
	nf, err := f.normalized()
	if err != nil {
		return nil, err
	}

	pad := nf.padLength()
	if len(x) <= pad {
		return nil, fmt.Errorf("%w: need more than %d samples for zero-phase filtering, got %d", ErrInvalidSignal, pad, len(x))
	}

	ext := make([]float64, 0, len(x)+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	last := len(x) - 1
	for i := 1; i <= pad; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}

	zi := nf.steadyState()
	y := nf.lfilter(ext, zi, ext[0])
	reverse(y)
	y = nf.lfilter(y, zi, y[0])
	reverse(y)

	return y[pad : pad+len(x)], nil
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
