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

	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/portrisk/data"
	"github.com/quantlab/portrisk/risk"
)

// InformationRatio computes the annualized ratio of mean to standard
// deviation of a return series: sqrt(periods per year) * mean / stdev. The
// standard deviation uses the sample (n-1) divisor. A series with zero
// standard deviation has no defined ratio and is an error, as is a series
// too short to estimate deviation from.
func InformationRatio(returns []float64, freq data.Frequency) (float64, error) {
	periods, err := freq.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: %d returns, need at least 2", risk.ErrInsufficientData, len(returns))
	}

	stdev := stat.StdDev(returns, nil)
	if stdev == 0 {
		return 0, ErrDegenerateSeries
	}

	return math.Sqrt(periods) * stat.Mean(returns, nil) / stdev, nil
}

// InformationRatio computes the annualized information ratio of the
// portfolio's own value return series at the configured frequency
func (p *Portfolio) InformationRatio(ctx context.Context) (float64, error) {
	series, err := p.ValueSeries(ctx)
	if err != nil {
		return 0, err
	}

	returns, err := Returns(series, 1)
	if err != nil {
		return 0, err
	}

	col, err := returns.Col("PORTFOLIO")
	if err != nil {
		return 0, err
	}

	// first entry has no prior period
	valid := make([]float64, 0, len(col))
	for _, r := range col {
		if !math.IsNaN(r) {
			valid = append(valid, r)
		}
	}

	return InformationRatio(valid, p.frequency)
}

// ExpectedPortfolioReturn computes the weight-dotted expected return of the
// portfolio at current market value weights
func (p *Portfolio) ExpectedPortfolioReturn(ctx context.Context) (float64, error) {
	weights, err := p.Weights(ctx)
	if err != nil {
		return 0, err
	}
	return WeightedReturn(weights, p.ExpectedReturns())
}

// ExpectedBenchmarkReturn computes the weight-dotted expected return of the
// benchmark. Expected returns come from the portfolio positions, so every
// benchmark ticker must also be a position.
func (p *Portfolio) ExpectedBenchmarkReturn() (float64, error) {
	return WeightedReturn(p.benchmark, p.ExpectedReturns())
}

// ExpectedExcessPortfolioReturn computes expected portfolio return minus
// expected benchmark return
func (p *Portfolio) ExpectedExcessPortfolioReturn(ctx context.Context) (float64, error) {
	port, err := p.ExpectedPortfolioReturn(ctx)
	if err != nil {
		return 0, err
	}
	bench, err := p.ExpectedBenchmarkReturn()
	if err != nil {
		return 0, err
	}
	return port - bench, nil
}

// ActiveReturns computes per-position holding period return scaled by the
// position's active weight
func (p *Portfolio) ActiveReturns(ctx context.Context) (map[string]float64, error) {
	active, err := p.ActiveWeights(ctx)
	if err != nil {
		return nil, err
	}

	prices, err := p.Prices(ctx)
	if err != nil {
		return nil, err
	}

	hpr, err := HoldingPeriodReturns(prices)
	if err != nil {
		return nil, err
	}

	res := make(map[string]float64, len(hpr))
	for ticker, r := range hpr {
		res[ticker] = r * active[ticker]
	}
	return res, nil
}

// PortfolioVariance computes w' C w at current market value weights
func (p *Portfolio) PortfolioVariance(ctx context.Context, cov *risk.Matrix) (float64, error) {
	weights, err := p.Weights(ctx)
	if err != nil {
		return 0, err
	}
	return cov.QuadraticForm(weights)
}

// BenchmarkVariance computes w' C w at benchmark weights
func (p *Portfolio) BenchmarkVariance(cov *risk.Matrix) (float64, error) {
	return cov.QuadraticForm(p.benchmark)
}

// TrackingErrorVariance computes the variance of the active return,
// (w_p - w_b)' C (w_p - w_b). The covariance matrix must be labelled with the
// union of portfolio and benchmark tickers.
func (p *Portfolio) TrackingErrorVariance(ctx context.Context, cov *risk.Matrix) (float64, error) {
	active, err := p.ActiveWeights(ctx)
	if err != nil {
		return 0, err
	}
	return cov.QuadraticForm(active)
}
