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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/lf-edge/ekuiper-vault/pkg/errorx"
)

const (
	saltLen     = 16
	indexDigits = 4

	minIterations = 1024
	maxIterations = 65535

	saltKey       = "salt"
	iterationsKey = "iterations"
	passwordKey   = "password"
)

// Recipe locates a secret inside a table. It carries no key material, the
// decryption key is derived from the table itself.
type Recipe struct {
	Salt       []byte
	Iterations int
	Ciphertext []byte
}

// newRecipe encrypts the obfuscated slot indices under the key derived
// from the table. Salt and iteration count are drawn fresh on every call,
// so two recipes for the same secret never match.
func newRecipe(slots []int, table []byte) (*Recipe, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	span, err := randInt(maxIterations - minIterations + 1)
	if err != nil {
		return nil, err
	}
	iterations := minIterations + span

	var sb strings.Builder
	for i, s := range slots {
		fmt.Fprintf(&sb, "%04x", obfuscateIndex(s, i, iterations, salt))
	}
	plain := []byte(sb.String())
	defer clearBytes(plain)

	key := deriveKey(table)
	defer clearBytes(key)
	ct, err := encryptCBC(plain, key, deriveIV(salt))
	if err != nil {
		return nil, err
	}
	return &Recipe{
		Salt:       salt,
		Iterations: iterations,
		Ciphertext: ct,
	}, nil
}

// encodeRecipe renders the canonical artifact: three key=value lines with
// binary fields hex encoded.
func encodeRecipe(r *Recipe) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", saltKey, hex.EncodeToString(r.Salt))
	fmt.Fprintf(&buf, "%s=%d\n", iterationsKey, r.Iterations)
	fmt.Fprintf(&buf, "%s=%s\n", passwordKey, hex.EncodeToString(r.Ciphertext))
	return buf.Bytes()
}

// parseRecipe reads the key=value artifact. Parse level problems, a
// missing or empty field, a non numeric iteration count or a field that is
// not hex, are configuration errors and are reported before any
// cryptography runs. Damage that only shows after decryption is reported
// as corruption by the later stages.
func parseRecipe(data []byte) (*Recipe, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, errorx.NewConfigurationError(fmt.Sprintf("failed to parse recipe: %v", err))
	}
	sec := f.Section("")

	saltHex, err := requireKey(sec, saltKey)
	if err != nil {
		return nil, err
	}
	iterRaw, err := requireKey(sec, iterationsKey)
	if err != nil {
		return nil, err
	}
	ctHex, err := requireKey(sec, passwordKey)
	if err != nil {
		return nil, err
	}

	iterations, err := strconv.Atoi(iterRaw)
	if err != nil {
		return nil, errorx.NewConfigurationError(fmt.Sprintf("iterations field %q is not numeric", iterRaw))
	}
	if iterations < 0 {
		return nil, errorx.NewConfigurationError("iterations must not be negative")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, errorx.NewConfigurationError("salt field is not hex encoded")
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return nil, errorx.NewConfigurationError("password field is not hex encoded")
	}
	return &Recipe{
		Salt:       salt,
		Iterations: iterations,
		Ciphertext: ct,
	}, nil
}

func requireKey(sec *ini.Section, name string) (string, error) {
	if !sec.HasKey(name) {
		return "", errorx.NewConfigurationError(fmt.Sprintf("recipe is missing the %s field", name))
	}
	v := strings.TrimSpace(sec.Key(name).String())
	if v == "" {
		return "", errorx.NewConfigurationError(fmt.Sprintf("recipe field %s is empty", name))
	}
	return v, nil
}

// recoverSecret decrypts the index stream with the key derived from the
// table and reads the secret characters back out of their slots.
func recoverSecret(table []byte, r *Recipe) (string, error) {
	key := deriveKey(table)
	defer clearBytes(key)
	plain, err := decryptCBC(r.Ciphertext, key, deriveIV(r.Salt))
	if err != nil {
		return "", err
	}
	defer clearBytes(plain)

	slots, err := decodeIndices(plain, r.Iterations, r.Salt, len(table))
	if err != nil {
		return "", err
	}
	secret := make([]byte, len(slots))
	for i, s := range slots {
		if !isPrintable(table[s]) {
			return "", errorx.NewCorruptionError(fmt.Sprintf("table byte at slot %d is outside the printable range", s))
		}
		secret[i] = table[s]
	}
	return string(secret), nil
}

// decodeIndices splits the decrypted stream into fixed width hex chunks
// and undoes the obfuscation. Any chunk that is not hex, decodes outside
// the table or repeats a slot marks a damaged artifact pair.
func decodeIndices(plain []byte, iterations int, salt []byte, tableSize int) ([]int, error) {
	if len(salt) == 0 {
		return nil, errorx.NewCorruptionError("salt is empty")
	}
	if len(plain) == 0 || len(plain)%indexDigits != 0 {
		return nil, errorx.NewCorruptionError("decrypted index stream has an invalid length")
	}
	count := len(plain) / indexDigits
	slots := make([]int, 0, count)
	seen := make(map[int]struct{}, count)
	for i := 0; i < count; i++ {
		chunk := string(plain[i*indexDigits : (i+1)*indexDigits])
		v, err := strconv.ParseUint(chunk, 16, 32)
		if err != nil {
			return nil, errorx.NewCorruptionError(fmt.Sprintf("index chunk %d is not hex encoded", i))
		}
		slot := deobfuscateIndex(int(v), i, iterations, salt)
		if slot < 0 || slot >= tableSize {
			return nil, errorx.NewCorruptionError(fmt.Sprintf("slot index %d is out of range for table size %d", slot, tableSize))
		}
		if _, ok := seen[slot]; ok {
			return nil, errorx.NewCorruptionError(fmt.Sprintf("slot index %d appears twice", slot))
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}
	return slots, nil
}

func encryptCBC(plain, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func decryptCBC(ct, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, errorx.NewCorruptionError("ciphertext length is not a multiple of the block size")
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errorx.NewCorruptionError("padded data has an invalid length")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize {
		return nil, errorx.NewCorruptionError("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errorx.NewCorruptionError("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
