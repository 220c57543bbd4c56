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

package portfolio

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantlab/portrisk/dataframe"
)

const (
	// parameters of the synthetic signal noise
	noiseMean   = 0.03
	noiseStdDev = 0.05
)

// ExpectedExcessStockReturns builds a per-stock alpha panel from historic
// returns. The model:
//
//  1. excess return = historic return times active weight, per position
//  2. a noisy signal is formed by adding gaussian noise (mean 0.03,
//     stdev 0.05) to each excess return
//  3. the signal is z-scored column-wise so every stock's signal has zero
//     mean and unit deviation
//  4. alpha = stdev(excess) * IC * score, where the information coefficient
//     IC = 1.5 / sqrt(periods per year * number of positions)
//
// rnd drives the noise draws; pass a seeded source for reproducible output.
// A nil rnd uses a time-seeded source. Rows where any position's alpha is
// undefined are dropped.
func (p *Portfolio) ExpectedExcessStockReturns(ctx context.Context, rnd *rand.Rand) (*dataframe.DataFrame, error) {
	if p.Size() == 0 {
		return nil, ErrInsufficientPositions
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	periods, err := p.frequency.PeriodsPerYear()
	if err != nil {
		return nil, err
	}

	returns, err := p.HistoricReturns(ctx, 1)
	if err != nil {
		return nil, err
	}

	active, err := p.ActiveWeights(ctx)
	if err != nil {
		return nil, err
	}

	excess := returns.Copy()
	for colIdx, colName := range excess.ColNames {
		w := active[colName]
		for rowIdx := range excess.Vals[colIdx] {
			excess.Vals[colIdx][rowIdx] *= w
		}
	}

	signal := excess.Copy()
	for colIdx := range signal.Vals {
		for rowIdx, v := range signal.Vals[colIdx] {
			if !math.IsNaN(v) {
				signal.Vals[colIdx][rowIdx] = v + noiseMean + noiseStdDev*rnd.NormFloat64()
			}
		}
	}

	means := signal.ColMean()
	stdevs := signal.ColStdDev()
	excessStdevs := excess.ColStdDev()

	ic := 1.5 / math.Sqrt(periods*float64(p.Size()))
	log.Debug().Float64("IC", ic).Int("Positions", p.Size()).Msg("computing stock alphas")

	scored := signal.SubScalarVec(means)
	for colIdx, colName := range scored.ColNames {
		scale := excessStdevs[colName] / stdevs[colName]
		for rowIdx, v := range scored.Vals[colIdx] {
			scored.Vals[colIdx][rowIdx] = v * scale
		}
	}

	return scored.MulScalar(ic).Drop(math.NaN()), nil
}
