// Copyright 2024-2025 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vault

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/lf-edge/ekuiper-vault/internal/conf"
	"github.com/lf-edge/ekuiper-vault/pkg/errorx"
)

const (
	printableMin = 0x20
	printableMax = 0x7E

	// maxTableSize is the largest table addressable by the four hex digit
	// index encoding.
	maxTableSize = 65535
)

// isPrintable reports whether b belongs to the character universe the table
// noise is drawn from. Secrets are restricted to the same universe so that
// a hidden byte is indistinguishable from the surrounding noise.
func isPrintable(b byte) bool {
	return b >= printableMin && b <= printableMax
}

func randInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return int(n.Int64()), nil
}

// buildTable fills a table of the given size with printable noise and hides
// the secret at randomly chosen distinct slots. The returned slots are in
// secret order. Placement retries on collision and never displaces an
// already placed character.
func buildTable(secret []byte, size int) ([]byte, []int, error) {
	n := len(secret)
	if n == 0 {
		return nil, nil, errorx.NewConfigurationError("secret must not be empty")
	}
	if size > maxTableSize {
		return nil, nil, errorx.NewConfigurationError(fmt.Sprintf("table size %d exceeds the maximum of %d", size, maxTableSize))
	}
	if n > size {
		return nil, nil, errorx.NewConfigurationError(fmt.Sprintf("secret length %d exceeds table size %d", n, size))
	}
	for i, b := range secret {
		if !isPrintable(b) {
			return nil, nil, errorx.NewConfigurationError(fmt.Sprintf("secret byte at position %d is outside the printable range", i))
		}
	}
	if size < 3*n {
		conf.Log.Warnf("table size %d is below three times the secret length %d, the secret is poorly hidden", size, n)
	}

	table := make([]byte, size)
	for i := range table {
		c, err := randInt(printableMax - printableMin + 1)
		if err != nil {
			return nil, nil, err
		}
		table[i] = byte(printableMin + c)
	}

	slots := make([]int, n)
	used := make(map[int]struct{}, n)
	for i := range secret {
		for {
			s, err := randInt(size)
			if err != nil {
				return nil, nil, err
			}
			if _, ok := used[s]; !ok {
				used[s] = struct{}{}
				slots[i] = s
				break
			}
		}
		table[slots[i]] = secret[i]
	}
	return table, slots, nil
}
