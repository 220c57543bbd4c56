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
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantlab/portrisk/data"
	"github.com/quantlab/portrisk/dataframe"
	"github.com/quantlab/portrisk/risk"
)

// Returns computes period-over-period simple returns from a price panel:
// price[i] / price[i-offset] - 1. The result has the same length and date
// index as the input; the first `offset` entries of every column are NaN
// because they have no prior price to compare against. NaN entries stay NaN.
//
// Rows are sorted ascending by date before computing; the input is not
// modified.
func Returns(prices *dataframe.DataFrame, offset int) (*dataframe.DataFrame, error) {
	if offset < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOffset, offset)
	}
	if prices == nil || prices.Len() == 0 {
		return nil, data.ErrInvalidRange
	}

	sorted := prices.Copy().SortByDate()
	return sorted.Div(sorted.Lag(offset)).AddScalar(-1), nil
}

// HoldingPeriodReturns computes the total return over the full series for each
// column: last price / first price - 1. NaN entries at either edge are skipped
// so columns with ragged coverage still get the return over their own valid
// window. A column with fewer than 2 valid prices is an error.
func HoldingPeriodReturns(prices *dataframe.DataFrame) (map[string]float64, error) {
	if prices == nil || prices.ColCount() == 0 {
		return nil, data.ErrInvalidRange
	}

	sorted := prices.Copy().SortByDate()
	res := make(map[string]float64, sorted.ColCount())
	for colIdx, colName := range sorted.ColNames {
		first := math.NaN()
		last := math.NaN()
		valid := 0
		for _, v := range sorted.Vals[colIdx] {
			if math.IsNaN(v) {
				continue
			}
			if valid == 0 {
				first = v
			}
			last = v
			valid++
		}
		if valid < 2 {
			return nil, fmt.Errorf("%w: %s has %d prices, need at least 2", risk.ErrInsufficientData, colName, valid)
		}
		res[colName] = last/first - 1
	}
	return res, nil
}

// Prices fetches the adjusted close panel for every position over the
// portfolio date range. Columns are union-joined on date; a ticker that did
// not trade on a given date carries NaN there.
func (p *Portfolio) Prices(ctx context.Context) (*dataframe.DataFrame, error) {
	if p.Size() == 0 {
		return nil, ErrInsufficientPositions
	}
	return p.provider.AdjustedClose(ctx, p.Tickers(), p.begin, p.end)
}

// TradingDates returns the sorted union of dates on which any position traded
func (p *Portfolio) TradingDates(ctx context.Context) ([]time.Time, error) {
	prices, err := p.Prices(ctx)
	if err != nil {
		return nil, err
	}
	return prices.Dates, nil
}

// HistoricReturns computes the per-position return panel. Each position's
// prices are fetched over its own holding window, converted to returns with
// the given offset, then union-joined on date so positions with different
// holding periods line up on a shared calendar.
func (p *Portfolio) HistoricReturns(ctx context.Context, offset int) (*dataframe.DataFrame, error) {
	if p.Size() == 0 {
		return nil, ErrInsufficientPositions
	}

	dfMap := make(dataframe.DataFrameMap, p.Size())
	for _, pos := range p.positions {
		subLog := log.With().Str("Ticker", pos.Ticker).Time("HoldingStart", pos.HoldingStart).Time("HoldingEnd", pos.HoldingEnd).Logger()

		prices, err := p.provider.AdjustedClose(ctx, []string{pos.Ticker}, pos.HoldingStart, pos.HoldingEnd)
		if err != nil {
			subLog.Error().Stack().Err(err).Msg("could not load prices for position")
			return nil, err
		}

		returns, err := Returns(prices, offset)
		if err != nil {
			return nil, err
		}
		dfMap[pos.Ticker] = returns
	}

	return dfMap.DataFrame(), nil
}

// PositionValues computes the market value panel: shares held times adjusted
// close, one column per position
func (p *Portfolio) PositionValues(ctx context.Context) (*dataframe.DataFrame, error) {
	prices, err := p.Prices(ctx)
	if err != nil {
		return nil, err
	}

	values := prices.Copy()
	for colIdx, colName := range values.ColNames {
		shares := 0.0
		for _, pos := range p.positions {
			if pos.Ticker == colName {
				shares = pos.Shares
				break
			}
		}
		for rowIdx := range values.Vals[colIdx] {
			values.Vals[colIdx][rowIdx] *= shares
		}
	}
	return values, nil
}

// ValueSeries computes total portfolio market value over time as a single
// column named "PORTFOLIO". Dates where any position lacks a price are
// dropped rather than summed with a hole in them.
func (p *Portfolio) ValueSeries(ctx context.Context) (*dataframe.DataFrame, error) {
	values, err := p.PositionValues(ctx)
	if err != nil {
		return nil, err
	}

	complete := values.Drop(math.NaN())
	series := &dataframe.DataFrame{Dates: complete.Dates}
	return series.Insert("PORTFOLIO", complete.RowSum()), nil
}

// HoldingPeriodReturn computes the total return of the whole portfolio over
// the configured date range
func (p *Portfolio) HoldingPeriodReturn(ctx context.Context) (float64, error) {
	series, err := p.ValueSeries(ctx)
	if err != nil {
		return 0, err
	}

	hpr, err := HoldingPeriodReturns(series)
	if err != nil {
		return 0, err
	}
	return hpr["PORTFOLIO"], nil
}
