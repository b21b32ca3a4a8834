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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObfuscateKnownValue(t *testing.T) {
	salt := []byte{0xAB, 0x00, 0xFF}
	got := obfuscateIndex(5, 0, 1024, salt)
	assert.Equal(t, 0x04AE, got)
	assert.Equal(t, 5, deobfuscateIndex(got, 0, 1024, salt))
}

func TestObfuscateInvolution(t *testing.T) {
	salts := [][]byte{
		{0x00},
		{0xFF, 0x01, 0x80, 0x7F},
		{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
	}
	iterations := []int{0, 1, 1024, 65535, 70000}
	slots := []int{0, 1, 255, 1023, 32768, 65535}
	for _, salt := range salts {
		for _, it := range iterations {
			for _, slot := range slots {
				for pos := 0; pos < 40; pos += 7 {
					obf := obfuscateIndex(slot, pos, it, salt)
					require.GreaterOrEqual(t, obf, 0)
					require.LessOrEqual(t, obf, 0xFFFF)
					back := deobfuscateIndex(obf, pos, it, salt)
					require.Equal(t, slot, back, "slot %d pos %d iterations %d", slot, pos, it)
				}
			}
		}
	}
}

func TestObfuscateBijective(t *testing.T) {
	// For a fixed position, iteration count and salt the transform must be
	// a bijection on the index range, otherwise two slots could collide
	// after obfuscation.
	salt := []byte{0x5A, 0xC3}
	seen := make(map[int]struct{}, 4096)
	for slot := 0; slot < 4096; slot++ {
		obf := obfuscateIndex(slot, 3, 4711, salt)
		_, dup := seen[obf]
		require.False(t, dup, "slot %d collides", slot)
		seen[obf] = struct{}{}
	}
}
