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

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/quantlab/portrisk/dataframe"
)

// InMemory is a fixture provider backed by maps; it keeps the engine testable
// without a database connection
type InMemory struct {
	series map[string]*dataframe.DataFrame
}

// NewInMemory creates an empty in-memory provider
func NewInMemory() *InMemory {
	return &InMemory{
		series: make(map[string]*dataframe.DataFrame),
	}
}

// AddPrices registers a price series for ticker; dates need not be pre-sorted
func (m *InMemory) AddPrices(ticker string, dates []time.Time, prices []float64) error {
	df, err := dataframe.New(dates, []string{ticker}, [][]float64{prices})
	if err != nil {
		return err
	}
	m.series[ticker] = df.SortByDate()
	return nil
}

// AdjustedClose implements Provider
func (m *InMemory) AdjustedClose(_ context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	if end.Before(begin) {
		return nil, ErrBeginAfterEnd
	}

	dfMap := make(dataframe.DataFrameMap, len(tickers))
	for _, ticker := range tickers {
		df, ok := m.series[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		trimmed := df.Trim(begin, end)
		if trimmed.Len() == 0 {
			return nil, fmt.Errorf("%w: %s has no rows in [%s, %s]", ErrInvalidRange,
				ticker, begin.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		dfMap[ticker] = trimmed
	}

	return dfMap.DataFrame(), nil
}

// LastPrice implements Provider
func (m *InMemory) LastPrice(_ context.Context, tickers []string) (map[string]float64, error) {
	res := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		df, ok := m.series[ticker]
		if !ok || df.Len() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		res[ticker] = df.Last().Row(0)[0]
	}
	return res, nil
}
