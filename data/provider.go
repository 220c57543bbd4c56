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
	"time"

	"github.com/quantlab/portrisk/dataframe"
)

// Provider supplies read-only price history for the analytics engine. The
// engine never writes through this interface and holds no reference to any
// global store; every computation receives its provider explicitly.
type Provider interface {
	// AdjustedClose returns a dataframe with one column per ticker holding
	// split/dividend adjusted closing prices over [begin, end], sorted
	// ascending by date. A ticker with no rows in the window is an
	// ErrInvalidRange failure, not an empty column.
	AdjustedClose(ctx context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, error)

	// LastPrice returns the most recent adjusted closing price per ticker
	LastPrice(ctx context.Context, tickers []string) (map[string]float64, error)
}
