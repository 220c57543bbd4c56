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
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/portrisk/dataframe"
)

// SampleCovariance computes the unbiased sample covariance matrix of a return
// panel. Alignment is listwise: only dates where every column has a value
// enter the estimate (any row containing NaN is dropped, not pairwise
// deletion). The divisor is T-1 (Bessel's correction).
//
// NOTE: the shrinkage estimator in this package divides its internal sample
// covariance by T, not T-1, following the shrinkage literature. The two are
// intentionally different; do not unify them.
func SampleCovariance(returns *dataframe.DataFrame) (*Matrix, error) {
	if returns == nil || returns.ColCount() < 1 {
		return nil, ErrInvalidInput
	}

	complete := returns.Copy().Drop(math.NaN())
	t := complete.Len()
	n := complete.ColCount()

	if t < 2 {
		return nil, fmt.Errorf("%w: %d complete rows after alignment, need at least 2", ErrInsufficientData, t)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, complete.Matrix(), nil)

	return NewMatrix(complete.ColNames, cov)
}
