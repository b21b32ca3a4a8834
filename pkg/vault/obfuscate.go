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

// indexMask closes the obfuscation arithmetic over 16 bit values so every
// result fits the four hex digit wire encoding regardless of the iteration
// count.
const indexMask = 0xFFFF

// obfuscateIndex mixes a slot index with the iteration count and the salt
// byte for its position. XOR with a fixed mask is an involution, so the
// same function recovers the slot from an obfuscated value.
func obfuscateIndex(slot, pos, iterations int, salt []byte) int {
	return slot ^ ((iterations + pos) & indexMask) ^ int(salt[pos%len(salt)])
}

// deobfuscateIndex is the same computation as obfuscateIndex, kept under
// its own name for call site clarity.
func deobfuscateIndex(obfuscated, pos, iterations int, salt []byte) int {
	return obfuscateIndex(obfuscated, pos, iterations, salt)
}
