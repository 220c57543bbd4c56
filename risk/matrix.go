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

package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientData      = errors.New("too few aligned observations for the requested statistic")
	ErrInvalidInput          = errors.New("input must be a non-empty return panel")
	ErrDegenerateCovariance  = errors.New("degenerate covariance; zero-variance asset makes the correlation prior undefined")
	ErrLabelMismatch         = errors.New("weight vector and covariance matrix tickers do not match")
	ErrNegativeVarianceEntry = errors.New("covariance diagonal entry is negative")
)

// Matrix is a ticker-labelled covariance matrix. The label ordering is fixed
// at construction; all positional arithmetic goes through the labels so a
// weight vector can never be silently applied in the wrong order.
type Matrix struct {
	tickers []string
	index   map[string]int
	cov     *mat.SymDense
}

// NewMatrix wraps a symmetric matrix with ticker labels. The label count must
// equal the matrix dimension and every diagonal entry must be non-negative.
func NewMatrix(tickers []string, cov *mat.SymDense) (*Matrix, error) {
	if cov == nil || cov.SymmetricDim() != len(tickers) {
		return nil, ErrInvalidInput
	}
	for i := range tickers {
		if cov.At(i, i) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativeVarianceEntry, tickers[i])
		}
	}

	index := make(map[string]int, len(tickers))
	for i, ticker := range tickers {
		index[ticker] = i
	}
	if len(index) != len(tickers) {
		return nil, fmt.Errorf("%w: duplicate ticker labels", ErrInvalidInput)
	}

	labels := make([]string, len(tickers))
	copy(labels, tickers)

	return &Matrix{
		tickers: labels,
		index:   index,
		cov:     cov,
	}, nil
}

// Tickers returns the row/column labels in order
func (m *Matrix) Tickers() []string {
	labels := make([]string, len(m.tickers))
	copy(labels, m.tickers)
	return labels
}

// Dim returns the matrix dimension
func (m *Matrix) Dim() int {
	return len(m.tickers)
}

// At returns the covariance between two tickers
func (m *Matrix) At(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrLabelMismatch, a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrLabelMismatch, b)
	}
	return m.cov.At(i, j), nil
}

// Sym returns a copy of the underlying symmetric matrix
func (m *Matrix) Sym() *mat.SymDense {
	var dst mat.SymDense
	dst.CopySym(m.cov)
	return &dst
}

// QuadraticForm computes w' C w. The weight vector must cover exactly the
// matrix ticker set; any difference either way is a label mismatch since a
// silently dropped or zero-filled ticker yields a wrong but plausible number.
func (m *Matrix) QuadraticForm(weights map[string]float64) (float64, error) {
	return m.BilinearForm(weights, weights)
}

// BilinearForm computes a' C b with the same label requirements as QuadraticForm
func (m *Matrix) BilinearForm(a, b map[string]float64) (float64, error) {
	av, err := m.alignVec(a)
	if err != nil {
		return 0, err
	}
	bv, err := m.alignVec(b)
	if err != nil {
		return 0, err
	}

	n := m.Dim()
	tmp := mat.NewVecDense(n, nil)
	tmp.MulVec(m.cov, mat.NewVecDense(n, bv))
	return mat.Dot(mat.NewVecDense(n, av), tmp), nil
}

func (m *Matrix) alignVec(weights map[string]float64) ([]float64, error) {
	if len(weights) != len(m.tickers) {
		return nil, fmt.Errorf("%w: want %d tickers, got %d", ErrLabelMismatch, len(m.tickers), len(weights))
	}
	vec := make([]float64, len(m.tickers))
	for ticker, w := range weights {
		i, ok := m.index[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in covariance matrix", ErrLabelMismatch, ticker)
		}
		vec[i] = w
	}
	return vec, nil
}

// Table renders the labelled matrix as an ASCII table
func (m *Matrix) Table() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(append([]string{""}, m.tickers...))
	table.SetBorder(false)

	for i, ticker := range m.tickers {
		row := make([]string, 0, len(m.tickers)+1)
		row = append(row, ticker)
		for j := range m.tickers {
			row = append(row, fmt.Sprintf("%.6g", m.cov.At(i, j)))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}
