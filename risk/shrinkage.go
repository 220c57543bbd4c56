// Copyright 2022-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantlab/portrisk/dataframe"
)

// EstimateShrinkage requests analytic estimation of the shrinkage intensity;
// pass it as the shrink argument of ShrunkCovariance.
var EstimateShrinkage = math.NaN()

// ShrunkCovariance computes a covariance matrix shrunk toward the constant
// correlation prior of Ledoit and Wolf. The port follows the authors' MATLAB
// implementation. Rows containing NaN are dropped before estimation (same
// listwise policy as SampleCovariance).
//
// The internal sample covariance divides by T, not T-1, per the shrinkage
// literature; it therefore differs from SampleCovariance on the same panel.
//
// shrink fixes the shrinkage intensity and bypasses estimation; pass
// EstimateShrinkage (NaN) to estimate it from the data. Either way the
// intensity is clamped to [0, 1]. When the sample covariance and the prior
// coincide the shrinkage ratio is undefined; the estimate is reported as 0 and
// the sample covariance is returned unchanged rather than dividing by zero.
//
// Returns the shrunk matrix and the shrinkage intensity used.
func ShrunkCovariance(returns *dataframe.DataFrame, shrink float64) (*Matrix, float64, error) {
	if returns == nil || returns.ColCount() < 1 {
		return nil, 0, ErrInvalidInput
	}
	for _, col := range returns.Vals {
		if len(col) != returns.Len() {
			return nil, 0, fmt.Errorf("%w: ragged columns", ErrInvalidInput)
		}
	}

	complete := returns.Copy().Drop(math.NaN())
	t := complete.Len()
	n := complete.ColCount()

	if t < 2 {
		return nil, 0, fmt.Errorf("%w: %d complete rows after alignment, need at least 2", ErrInsufficientData, t)
	}

	x := complete.Matrix()
	tf := float64(t)

	// demean each column
	for j := 0; j < n; j++ {
		mean := 0.0
		for i := 0; i < t; i++ {
			mean += x.At(i, j)
		}
		mean /= tf
		for i := 0; i < t; i++ {
			x.Set(i, j, x.At(i, j)-mean)
		}
	}

	// sample covariance with divisor T
	sample := mat.NewDense(n, n, nil)
	sample.Mul(x.T(), x)
	sample.Scale(1/tf, sample)

	// fast path: an explicit zero intensity is the sample covariance itself
	if shrink == 0 {
		return labelled(complete.ColNames, sample, 0)
	}

	variance := make([]float64, n)
	sqrtvar := make([]float64, n)
	for i := 0; i < n; i++ {
		variance[i] = sample.At(i, i)
		if variance[i] == 0 {
			return nil, 0, fmt.Errorf("%w: %s", ErrDegenerateCovariance, complete.ColNames[i])
		}
		sqrtvar[i] = math.Sqrt(variance[i])
	}

	// constant correlation prior: diagonal from the sample, off-diagonal from
	// the average pairwise correlation
	rbar := 0.0
	if n > 1 {
		corrSum := 0.0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				corrSum += sample.At(i, j) / (sqrtvar[i] * sqrtvar[j])
			}
		}
		rbar = (corrSum - float64(n)) / float64(n*(n-1))
	}

	prior := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				prior.Set(i, j, variance[i])
			} else {
				prior.Set(i, j, rbar*sqrtvar[i]*sqrtvar[j])
			}
		}
	}

	var shrinkage float64
	switch {
	case !math.IsNaN(shrink):
		shrinkage = clamp(shrink, 0, 1)
	default:
		shrinkage = estimateIntensity(x, sample, prior, variance, sqrtvar, rbar, t, n)
	}

	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigma.Set(i, j, shrinkage*prior.At(i, j)+(1-shrinkage)*sample.At(i, j))
		}
	}

	return labelled(complete.ColNames, sigma, shrinkage)
}

// estimateIntensity computes the optimal shrinkage constant
// kappa = (pi - rho) / gamma scaled by 1/T and clamped to [0, 1].
// x must already be demeaned.
func estimateIntensity(x, sample, prior *mat.Dense, variance, sqrtvar []float64, rbar float64, t, n int) float64 {
	tf := float64(t)

	// gamma: squared Frobenius norm of (sample - prior)
	gamma := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := sample.At(i, j) - prior.At(i, j)
			gamma += d * d
		}
	}

	// the sample estimate and the prior coincide; shrinking is a no-op and
	// the ratio below is undefined
	if gamma == 0 {
		return 0
	}

	// pi: asymptotic variance of the covariance entries,
	// sum_ij [ (1/T) sum_t x_ti^2 x_tj^2 - sample_ij^2 ]
	pi := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			acc := 0.0
			for k := 0; k < t; k++ {
				xi := x.At(k, i)
				xj := x.At(k, j)
				acc += xi * xi * xj * xj
			}
			pi += acc/tf - sample.At(i, j)*sample.At(i, j)
		}
	}

	// rho: diagonal part plus the off-diagonal part scaled by rbar
	rdiag := 0.0
	for i := 0; i < n; i++ {
		acc := 0.0
		for k := 0; k < t; k++ {
			xi := x.At(k, i)
			acc += xi * xi * xi * xi
		}
		rdiag += acc / tf
	}
	for i := 0; i < n; i++ {
		rdiag -= variance[i] * variance[i]
	}

	roff := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			acc := 0.0
			for k := 0; k < t; k++ {
				xi := x.At(k, i)
				acc += xi * xi * xi * x.At(k, j)
			}
			v := acc/tf - variance[i]*sample.At(i, j)
			roff += v * sqrtvar[j] / sqrtvar[i]
		}
	}

	rho := rdiag + rbar*roff

	kappa := (pi - rho) / gamma
	return clamp(kappa/tf, 0, 1)
}

func labelled(tickers []string, sigma *mat.Dense, shrinkage float64) (*Matrix, float64, error) {
	n := len(tickers)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// symmetrize to absorb floating point asymmetry
			sym.SetSym(i, j, (sigma.At(i, j)+sigma.At(j, i))/2)
		}
	}

	m, err := NewMatrix(tickers, sym)
	if err != nil {
		return nil, 0, err
	}
	return m, shrinkage, nil
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
