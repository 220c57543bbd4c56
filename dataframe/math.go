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

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// Div divides all columns in `df` by the corresponding column in `other` and returns a new dataframe.
// Panics if rows are not equal.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Mul multiplies all columns in dataframe df by the corresponding column in dataframe other and returns a new dataframe
// panics if rows are not equal.
func (df *DataFrame) Mul(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] *= scalar
		}
	}
	return df
}

// SubScalarVec subtracts the per-column scalar from each corresponding column
// and returns a new dataframe. The scalars map is keyed by column name; columns
// without an entry are left unchanged.
func (df *DataFrame) SubScalarVec(scalars map[string]float64) *DataFrame {
	df = df.Copy()

	for colIdx, colName := range df.ColNames {
		if scalar, ok := scalars[colName]; ok {
			for rowIdx := range df.Vals[colIdx] {
				df.Vals[colIdx][rowIdx] -= scalar
			}
		}
	}
	return df
}

// RowSum computes the sum across all columns for each row and returns the
// resulting vector
func (df *DataFrame) RowSum() []float64 {
	sums := make([]float64, df.Len())
	for rowIdx := range df.Dates {
		total := 0.0
		for colIdx := range df.Vals {
			total += df.Vals[colIdx][rowIdx]
		}
		sums[rowIdx] = total
	}
	return sums
}

// DivVec divides every column by the given row vector and returns a new dataframe.
// panics if rows are not equal.
func (df *DataFrame) DivVec(vec []float64) *DataFrame {
	df = df.Copy()
	if df.Len() != len(vec) {
		log.Panic().Int("NRows", df.Len()).Int("LenVec", len(vec)).Msg("vector length must equal number of rows")
	}
	for colIdx := range df.Vals {
		floats.Div(df.Vals[colIdx], vec)
	}
	return df
}

// ColMean computes the mean of each column, skipping NaN entries, and returns
// a map keyed by column name. Columns with no valid entries map to NaN.
func (df *DataFrame) ColMean() map[string]float64 {
	res := make(map[string]float64, df.ColCount())
	for colIdx, colName := range df.ColNames {
		total := 0.0
		cnt := 0
		for _, v := range df.Vals[colIdx] {
			if !math.IsNaN(v) {
				total += v
				cnt++
			}
		}
		if cnt == 0 {
			res[colName] = math.NaN()
			continue
		}
		res[colName] = total / float64(cnt)
	}
	return res
}

// ColStdDev computes the sample standard deviation (n-1 divisor) of each
// column, skipping NaN entries, and returns a map keyed by column name.
// Columns with fewer than 2 valid entries map to NaN.
func (df *DataFrame) ColStdDev() map[string]float64 {
	means := df.ColMean()
	res := make(map[string]float64, df.ColCount())
	for colIdx, colName := range df.ColNames {
		mean := means[colName]
		ss := 0.0
		cnt := 0
		for _, v := range df.Vals[colIdx] {
			if !math.IsNaN(v) {
				d := v - mean
				ss += d * d
				cnt++
			}
		}
		if cnt < 2 {
			res[colName] = math.NaN()
			continue
		}
		res[colName] = math.Sqrt(ss / float64(cnt-1))
	}
	return res
}

// Matrix converts the dataframe values into a dense row-major matrix of shape
// len(Dates) x len(ColNames)
func (df *DataFrame) Matrix() *mat.Dense {
	t := df.Len()
	n := df.ColCount()
	m := mat.NewDense(t, n, nil)
	for colIdx := range df.Vals {
		for rowIdx, v := range df.Vals[colIdx] {
			m.Set(rowIdx, colIdx, v)
		}
	}
	return m
}
