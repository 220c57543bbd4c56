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
	"errors"
	"sort"
	"time"

	"github.com/quantlab/portrisk/common"
	"github.com/quantlab/portrisk/data"
)

var (
	ErrZeroPortfolioValue    = errors.New("total portfolio market value is zero")
	ErrMissingExpectedReturn = errors.New("no expected return supplied for ticker")
	ErrMissingPrice          = errors.New("no price supplied for ticker")
	ErrDegenerateSeries      = errors.New("return series has zero standard deviation")
	ErrInsufficientPositions = errors.New("portfolio has no positions")
	ErrInvalidOffset         = errors.New("return offset must be >= 1")
	ErrNoProvider            = errors.New("portfolio requires a data provider")
)

// Position is a single portfolio holding. Share count and holding window are
// immutable inputs; ExpectedReturn is a user supplied estimate, the engine
// never computes it.
type Position struct {
	Ticker         string
	Shares         float64
	HoldingStart   time.Time
	HoldingEnd     time.Time
	ExpectedReturn float64
}

// Config bundles everything needed to construct a Portfolio
type Config struct {
	Positions []Position
	Benchmark map[string]float64
	Frequency data.Frequency

	// Date range of the analysis. Positions without a holding window get the
	// full range; explicit windows are clamped to it.
	Begin time.Time
	End   time.Time
}

// Portfolio captures an immutable configuration plus a read-only price
// provider. Every metric is recomputed on demand; no state is held between
// calls.
type Portfolio struct {
	positions []Position
	benchmark map[string]float64
	frequency data.Frequency
	begin     time.Time
	end       time.Time
	provider  data.Provider
}

// New creates a portfolio from its configuration and price provider
func New(cfg Config, provider data.Provider) (*Portfolio, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	if _, err := cfg.Frequency.PeriodsPerYear(); err != nil {
		return nil, err
	}

	positions := make([]Position, len(cfg.Positions))
	copy(positions, cfg.Positions)
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Ticker < positions[j].Ticker
	})

	// holding windows default to the portfolio range and never extend past it
	for idx := range positions {
		if positions[idx].HoldingStart.IsZero() {
			positions[idx].HoldingStart = cfg.Begin
		} else if !cfg.Begin.IsZero() {
			positions[idx].HoldingStart = common.MaxTime(positions[idx].HoldingStart, cfg.Begin)
		}
		if positions[idx].HoldingEnd.IsZero() {
			positions[idx].HoldingEnd = cfg.End
		} else if !cfg.End.IsZero() {
			positions[idx].HoldingEnd = common.MinTime(positions[idx].HoldingEnd, cfg.End)
		}
	}

	benchmark := make(map[string]float64, len(cfg.Benchmark))
	for ticker, weight := range cfg.Benchmark {
		benchmark[ticker] = weight
	}

	return &Portfolio{
		positions: positions,
		benchmark: benchmark,
		frequency: cfg.Frequency,
		begin:     cfg.Begin,
		end:       cfg.End,
		provider:  provider,
	}, nil
}

// Size returns the number of portfolio positions
func (p *Portfolio) Size() int {
	return len(p.positions)
}

// Frequency returns the configured reporting frequency
func (p *Portfolio) Frequency() data.Frequency {
	return p.frequency
}

// Tickers returns the position tickers in sorted order
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, len(p.positions))
	for idx, pos := range p.positions {
		tickers[idx] = pos.Ticker
	}
	return tickers
}

// Shares returns the share count per ticker
func (p *Portfolio) Shares() map[string]float64 {
	res := make(map[string]float64, len(p.positions))
	for _, pos := range p.positions {
		res[pos.Ticker] = pos.Shares
	}
	return res
}

// ExpectedReturns returns the user supplied expected return per ticker
func (p *Portfolio) ExpectedReturns() map[string]float64 {
	res := make(map[string]float64, len(p.positions))
	for _, pos := range p.positions {
		res[pos.Ticker] = pos.ExpectedReturn
	}
	return res
}

// BenchmarkWeights returns a copy of the benchmark weight mapping. Weights
// are used as given; the engine does not renormalize.
func (p *Portfolio) BenchmarkWeights() map[string]float64 {
	res := make(map[string]float64, len(p.benchmark))
	for ticker, weight := range p.benchmark {
		res[ticker] = weight
	}
	return res
}
