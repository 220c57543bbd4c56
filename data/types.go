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

import "errors"

// Metric identifies a single price field in the store
type Metric string

const (
	MetricOpen          Metric = "Open"
	MetricLow           Metric = "Low"
	MetricHigh          Metric = "High"
	MetricClose         Metric = "Close"
	MetricVolume        Metric = "Volume"
	MetricAdjustedClose Metric = "AdjustedClose"
)

// Frequency is the reporting frequency of a return series. It selects the
// annualization factor applied to period statistics.
type Frequency string

const (
	FrequencyDaily    Frequency = "Daily"
	FrequencyWeekly   Frequency = "Weekly"
	FrequencyMonthly  Frequency = "Monthly"
	FrequencyAnnually Frequency = "Annually"
)

var (
	ErrNotFound             = errors.New("security not found")
	ErrInvalidRange         = errors.New("no data in requested date range")
	ErrBeginAfterEnd        = errors.New("invalid interval; begin after end date")
	ErrUnsupportedFrequency = errors.New("unsupported frequency")
)

// PeriodsPerYear returns the number of observation periods per year at the
// given reporting frequency
func (f Frequency) PeriodsPerYear() (float64, error) {
	switch f {
	case FrequencyAnnually:
		return 1, nil
	case FrequencyMonthly:
		return 12, nil
	case FrequencyWeekly:
		return 52, nil
	case FrequencyDaily:
		return 252, nil
	}
	return 0, ErrUnsupportedFrequency
}

// ParseFrequency converts the single-letter frequency codes used in portfolio
// definition files ('y', 'm', 'w', 'd') as well as the full names
func ParseFrequency(freq string) (Frequency, error) {
	switch freq {
	case "y", "Annually":
		return FrequencyAnnually, nil
	case "m", "Monthly":
		return FrequencyMonthly, nil
	case "w", "Weekly":
		return FrequencyWeekly, nil
	case "d", "Daily":
		return FrequencyDaily, nil
	}
	return "", ErrUnsupportedFrequency
}
