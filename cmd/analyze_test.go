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

package cmd

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlab/portrisk/data"
)

var _ = Describe("loadPortfolio", func() {
	var defFile string

	BeforeEach(func() {
		defFile = filepath.Join(GinkgoT().TempDir(), "portfolio.toml")
	})

	It("should parse a portfolio definition file", func() {
		def := `
frequency = "m"
begin = 2021-01-01T00:00:00Z
end = 2021-12-31T00:00:00Z

[[positions]]
ticker = "AAPL"
shares = 10.0
expected_return = 0.05

[[positions]]
ticker = "MSFT"
shares = 5.0
expected_return = 0.10

[benchmark]
AAPL = 0.5
MSFT = 0.5
`
		Expect(os.WriteFile(defFile, []byte(def), 0600)).To(Succeed())

		port, err := loadPortfolio(defFile)
		Expect(err).To(BeNil())
		Expect(port.Size()).To(Equal(2))
		Expect(port.Tickers()).To(Equal([]string{"AAPL", "MSFT"}))
		Expect(port.Frequency()).To(Equal(data.FrequencyMonthly))
		Expect(port.BenchmarkWeights()).To(Equal(map[string]float64{"AAPL": 0.5, "MSFT": 0.5}))
		Expect(port.ExpectedReturns()).To(Equal(map[string]float64{"AAPL": 0.05, "MSFT": 0.10}))
	})

	It("should reject an unknown frequency code", func() {
		def := `
frequency = "q"

[[positions]]
ticker = "AAPL"
shares = 10.0
`
		Expect(os.WriteFile(defFile, []byte(def), 0600)).To(Succeed())

		_, err := loadPortfolio(defFile)
		Expect(err).To(MatchError(data.ErrUnsupportedFrequency))
	})

	It("should error for a missing file", func() {
		_, err := loadPortfolio(filepath.Join(GinkgoT().TempDir(), "missing.toml"))
		Expect(err).To(HaveOccurred())
	})
})
