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

package dataframe

import (
	"math"
	"sort"
	"time"
)

type DataFrameMap map[string]*DataFrame

// Drop calls dataframe.Drop on each dataframe in the map
func (dfMap DataFrameMap) Drop(val float64) DataFrameMap {
	for _, v := range dfMap {
		v.Drop(val)
	}
	return dfMap
}

// DataFrame merges each item in the map into a single dataframe joined on the
// union of all date indexes. Dates missing from a member are filled with NaN so
// a subsequent Drop(math.NaN()) yields the listwise-complete panel. Column
// order follows the sorted map keys so output is deterministic.
func (dfMap DataFrameMap) DataFrame() *DataFrame {
	keys := make([]string, 0, len(dfMap))
	for k := range dfMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// build the union date index
	dateSet := make(map[time.Time]bool)
	for _, k := range keys {
		for _, date := range dfMap[k].Dates {
			dateSet[date] = true
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	df := &DataFrame{
		Dates:    dates,
		ColNames: make([]string, 0, len(keys)),
		Vals:     make([][]float64, 0, len(keys)),
	}

	for _, k := range keys {
		member := dfMap[k]
		lookup := make(map[time.Time]int, member.Len())
		for idx, date := range member.Dates {
			lookup[date] = idx
		}

		for colIdx, colName := range member.ColNames {
			col := make([]float64, len(dates))
			for rowIdx, date := range dates {
				if memberIdx, ok := lookup[date]; ok {
					col[rowIdx] = member.Vals[colIdx][memberIdx]
				} else {
					col[rowIdx] = math.NaN()
				}
			}
			df.ColNames = append(df.ColNames, colName)
			df.Vals = append(df.Vals, col)
		}
	}

	return df
}
