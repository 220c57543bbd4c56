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
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantlab/portrisk/dataframe"
)

// MarketValueWeights converts share counts and prices into portfolio weights:
// weight = shares * price / total market value. Every ticker in shares must
// have a price. Negative (short) positions are legal; weights still sum to 1
// unless the total market value is exactly zero, which is an error since
// weights would be undefined.
func MarketValueWeights(shares, prices map[string]float64) (map[string]float64, error) {
	values := make(map[string]float64, len(shares))
	total := 0.0
	for ticker, cnt := range shares {
		price, ok := prices[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPrice, ticker)
		}
		mktVal := cnt * price
		values[ticker] = mktVal
		total += mktVal
	}

	if total == 0 {
		return nil, ErrZeroPortfolioValue
	}

	weights := make(map[string]float64, len(values))
	for ticker, mktVal := range values {
		weights[ticker] = mktVal / total
	}
	return weights, nil
}

// ActiveWeights computes portfolio weight minus benchmark weight over the
// union of both ticker sets; a ticker absent from one side contributes zero
// on that side
func ActiveWeights(portfolio, benchmark map[string]float64) map[string]float64 {
	active := make(map[string]float64, len(portfolio)+len(benchmark))
	for ticker, w := range portfolio {
		active[ticker] = w
	}
	for ticker, w := range benchmark {
		active[ticker] -= w
	}
	return active
}

// WeightedReturn computes the weight-dotted expected return. Every weighted
// ticker must have an expected return; a missing entry is an error rather
// than a silent zero.
func WeightedReturn(weights, expected map[string]float64) (float64, error) {
	total := 0.0
	for ticker, w := range weights {
		r, ok := expected[ticker]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingExpectedReturn, ticker)
		}
		total += w * r
	}
	return total, nil
}

// Weights computes current market value weights from last trade prices
func (p *Portfolio) Weights(ctx context.Context) (map[string]float64, error) {
	if p.Size() == 0 {
		return nil, ErrInsufficientPositions
	}

	prices, err := p.provider.LastPrice(ctx, p.Tickers())
	if err != nil {
		log.Error().Stack().Err(err).Strs("Tickers", p.Tickers()).Msg("could not fetch last prices for weights")
		return nil, err
	}

	return MarketValueWeights(p.Shares(), prices)
}

// ActiveWeights computes portfolio-minus-benchmark weights at current prices
func (p *Portfolio) ActiveWeights(ctx context.Context) (map[string]float64, error) {
	weights, err := p.Weights(ctx)
	if err != nil {
		return nil, err
	}
	return ActiveWeights(weights, p.benchmark), nil
}

// WeightSeries computes market value weights per position for every date in
// the range, one column per position. Dates where any position lacks a price
// are dropped so each surviving row sums to 1. A date where the total value
// is zero would make the weights undefined and is an error.
func (p *Portfolio) WeightSeries(ctx context.Context) (*dataframe.DataFrame, error) {
	values, err := p.PositionValues(ctx)
	if err != nil {
		return nil, err
	}

	complete := values.Drop(math.NaN())
	totals := complete.RowSum()
	for idx, total := range totals {
		if total == 0 {
			return nil, fmt.Errorf("%w: on %s", ErrZeroPortfolioValue, complete.Dates[idx].Format("2006-01-02"))
		}
	}
	return complete.DivVec(totals), nil
}
