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
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-edge/ekuiper-vault/pkg/errorx"
)

func TestRecipeRoundTrip(t *testing.T) {
	secret := []byte("s3cr3t value")
	table, slots, err := buildTable(secret, 512)
	require.NoError(t, err)

	r, err := newRecipe(slots, table)
	require.NoError(t, err)
	require.Len(t, r.Salt, saltLen)
	require.GreaterOrEqual(t, r.Iterations, minIterations)
	require.LessOrEqual(t, r.Iterations, maxIterations)
	require.NotEmpty(t, r.Ciphertext)
	assert.Equal(t, 0, len(r.Ciphertext)%16)

	parsed, err := parseRecipe(encodeRecipe(r))
	require.NoError(t, err)
	assert.Equal(t, r, parsed)

	got, err := recoverSecret(table, parsed)
	require.NoError(t, err)
	assert.Equal(t, string(secret), got)
}

func TestRecipeFreshness(t *testing.T) {
	secret := []byte("same secret")
	table, slots, err := buildTable(secret, 512)
	require.NoError(t, err)

	r1, err := newRecipe(slots, table)
	require.NoError(t, err)
	r2, err := newRecipe(slots, table)
	require.NoError(t, err)

	// Same table, same slots, still different artifacts on every run.
	assert.NotEqual(t, r1.Salt, r2.Salt)
	assert.NotEqual(t, r1.Ciphertext, r2.Ciphertext)
}

func TestParseRecipeErrors(t *testing.T) {
	valid := func() string {
		return "salt=00112233445566778899aabbccddeeff\niterations=2048\npassword=aabbccdd00112233aabbccdd00112233\n"
	}
	tests := []struct {
		name     string
		content  string
		wantConf bool
		wantCorr bool
	}{
		{
			name:     "missing salt",
			content:  "iterations=2048\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "missing iterations",
			content:  "salt=00112233445566778899aabbccddeeff\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "missing password",
			content:  "salt=00112233445566778899aabbccddeeff\niterations=2048\n",
			wantConf: true,
		},
		{
			name:     "empty salt value",
			content:  "salt=\niterations=2048\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "non numeric iterations",
			content:  "salt=00112233445566778899aabbccddeeff\niterations=12x4\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "negative iterations",
			content:  "salt=00112233445566778899aabbccddeeff\niterations=-5\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "salt not hex",
			content:  "salt=zz112233445566778899aabbccddeeff\niterations=2048\npassword=aabbccdd\n",
			wantConf: true,
		},
		{
			name:     "password not hex",
			content:  "salt=00112233445566778899aabbccddeeff\niterations=2048\npassword=nothex!!\n",
			wantConf: true,
		},
		{
			name:     "password odd length hex",
			content:  "salt=00112233445566778899aabbccddeeff\niterations=2048\npassword=abc\n",
			wantConf: true,
		},
		{
			name:     "line without separator",
			content:  "just some garbage\n",
			wantConf: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecipe([]byte(tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.wantConf, errorx.IsConfigurationError(err), "configuration: %v", err)
			assert.Equal(t, tt.wantCorr, errorx.IsCorruptionError(err), "corruption: %v", err)
		})
	}

	r, err := parseRecipe([]byte(valid()))
	require.NoError(t, err)
	assert.Equal(t, 2048, r.Iterations)
	assert.Equal(t, saltLen, len(r.Salt))
}

func TestParseRecipeChecksIterationsBeforeValues(t *testing.T) {
	// A recipe can be broken in several ways at once. The iteration count
	// is validated before any field is decoded or decrypted.
	content := "salt=00112233445566778899aabbccddeeff\niterations=abc\npassword=nothex!!\n"
	_, err := parseRecipe([]byte(content))
	require.Error(t, err)
	assert.True(t, errorx.IsConfigurationError(err), "got %v", err)
	assert.Contains(t, err.Error(), "iterations")
}

func TestCiphertextTamper(t *testing.T) {
	secret := []byte("password")
	table, slots, err := buildTable(secret, 1024)
	require.NoError(t, err)
	r, err := newRecipe(slots, table)
	require.NoError(t, err)

	// Flipping any single byte of the ciphertext must surface as
	// corruption, never as a silently different secret.
	for i := range r.Ciphertext {
		tampered := &Recipe{
			Salt:       r.Salt,
			Iterations: r.Iterations,
			Ciphertext: append([]byte(nil), r.Ciphertext...),
		}
		tampered.Ciphertext[i] ^= 0x01
		_, err := recoverSecret(table, tampered)
		require.Error(t, err, "byte %d", i)
		assert.True(t, errorx.IsCorruptionError(err), "byte %d: %v", i, err)
	}
}

func TestSaltTamper(t *testing.T) {
	secret := []byte("password")
	table, slots, err := buildTable(secret, 1024)
	require.NoError(t, err)
	r, err := newRecipe(slots, table)
	require.NoError(t, err)

	for _, i := range []int{0, 7, saltLen - 1} {
		tampered := &Recipe{
			Salt:       append([]byte(nil), r.Salt...),
			Iterations: r.Iterations,
			Ciphertext: r.Ciphertext,
		}
		tampered.Salt[i] ^= 0x80
		_, err := recoverSecret(table, tampered)
		require.Error(t, err, "salt byte %d", i)
		assert.True(t, errorx.IsCorruptionError(err), "salt byte %d: %v", i, err)
	}
}

func TestPkcs7(t *testing.T) {
	tests := []struct {
		name    string
		dataLen int
		padLen  int
	}{
		{name: "empty", dataLen: 0, padLen: 16},
		{name: "one below block", dataLen: 15, padLen: 1},
		{name: "full block", dataLen: 16, padLen: 16},
		{name: "just above block", dataLen: 17, padLen: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.dataLen)
			for i := range data {
				data[i] = byte(i + 1)
			}
			padded := pkcs7Pad(data, 16)
			require.Equal(t, tt.dataLen+tt.padLen, len(padded))
			back, err := pkcs7Unpad(padded, 16)
			require.NoError(t, err)
			assert.Equal(t, data, back)
		})
	}
}

func TestPkcs7UnpadErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not block aligned", data: make([]byte, 5)},
		{name: "zero pad byte", data: make([]byte, 16)},
		{
			name: "pad byte too large",
			data: append(make([]byte, 15), 17),
		},
		{
			name: "inconsistent fill",
			data: append(append(make([]byte, 12), 3, 4), 4, 4),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkcs7Unpad(tt.data, 16)
			require.Error(t, err)
			assert.True(t, errorx.IsCorruptionError(err))
		})
	}
}

func TestCBCRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range iv {
		iv[i] = byte(0xF0 - i)
	}
	for _, l := range []int{1, 15, 16, 17, 64} {
		plain := make([]byte, l)
		for i := range plain {
			plain[i] = byte('a' + i%26)
		}
		ct, err := encryptCBC(plain, key, iv)
		require.NoError(t, err)
		require.Equal(t, 0, len(ct)%16)
		back, err := decryptCBC(ct, key, iv)
		require.NoError(t, err)
		assert.Equal(t, plain, back, "length %d", l)
	}
}

func TestEncodeRecipeFormat(t *testing.T) {
	r := &Recipe{
		Salt:       []byte{0x00, 0x11, 0x22, 0x33},
		Iterations: 4096,
		Ciphertext: []byte{0xAA, 0xBB},
	}
	want := fmt.Sprintf("salt=%s\niterations=4096\npassword=%s\n",
		hex.EncodeToString(r.Salt), hex.EncodeToString(r.Ciphertext))
	assert.Equal(t, want, string(encodeRecipe(r)))
}
