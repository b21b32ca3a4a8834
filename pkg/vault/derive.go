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
	"crypto/md5"
	"crypto/sha256"
)

// deriveKey returns the AES-256 key for a table. The key is the digest of
// the complete table content, so the table itself is the key material and
// any change to it yields a different key.
func deriveKey(table []byte) []byte {
	sum := sha256.Sum256(table)
	return sum[:]
}

// deriveIV returns the CBC initialization vector for a salt. md5 acts as a
// 128 bit width adapter to exactly one AES block, it is not an integrity
// mechanism.
func deriveIV(salt []byte) []byte {
	sum := md5.Sum(salt)
	return sum[:]
}

// clearBytes zeroes out the slice (best effort memory cleanup)
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
