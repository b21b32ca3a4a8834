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

// Package vault hides a secret inside a table of printable noise and
// reconstructs it from the table plus a recipe. The decryption key is
// derived from the table content, so neither artifact is useful on its
// own and no key is stored anywhere.
package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lf-edge/ekuiper-vault/internal/conf"
	"github.com/lf-edge/ekuiper-vault/pkg/errorx"
	"github.com/lf-edge/ekuiper-vault/pkg/timex"
)

// Generate hides the secret in a fresh table of tableSize bytes and writes
// the table and recipe artifacts. The pair is written atomically: on any
// failure neither file is left behind. Each call produces a completely new
// pair, rotation is simply calling Generate again.
func Generate(secret string, tablePath, recipePath string, tableSize int) error {
	if tablePath == recipePath {
		return errorx.NewConfigurationError("table and recipe paths must differ")
	}
	start := timex.GetNow()
	table, slots, err := buildTable([]byte(secret), tableSize)
	if err != nil {
		return err
	}
	r, err := newRecipe(slots, table)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(tablePath, table); err != nil {
		return err
	}
	if err := writeFileAtomic(recipePath, encodeRecipe(r)); err != nil {
		if rmErr := os.Remove(tablePath); rmErr != nil && !os.IsNotExist(rmErr) {
			conf.Log.Warnf("failed to remove table %s after recipe write failure: %v", tablePath, rmErr)
		}
		return err
	}
	conf.Log.Infof("generated table %s (%d bytes) and recipe %s hiding %d characters in %s", tablePath, len(table), recipePath, len(secret), timex.GetNow().Sub(start))
	return nil
}

// Reconstruct recovers the secret from a table and recipe pair. It never
// modifies the artifacts and holds no state, concurrent calls are safe.
func Reconstruct(tablePath, recipePath string) (string, error) {
	table, err := os.ReadFile(tablePath)
	if err != nil {
		return "", errorx.NewIOErr(fmt.Sprintf("failed to read table file %s: %v", tablePath, err))
	}
	if len(table) == 0 {
		return "", errorx.NewCorruptionError(fmt.Sprintf("table file %s is empty", tablePath))
	}
	data, err := os.ReadFile(recipePath)
	if err != nil {
		return "", errorx.NewIOErr(fmt.Sprintf("failed to read recipe file %s: %v", recipePath, err))
	}
	r, err := parseRecipe(data)
	if err != nil {
		return "", err
	}
	secret, err := recoverSecret(table, r)
	if err != nil {
		return "", err
	}
	conf.Log.Debugf("reconstructed a secret of %d characters from %s", len(secret), tablePath)
	return secret, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place. Artifacts are private to the owner.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return errorx.NewIOErr(fmt.Sprintf("failed to create temp file in %s: %v", dir, err))
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errorx.NewIOErr(fmt.Sprintf("failed to write %s: %v", tmp.Name(), err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errorx.NewIOErr(fmt.Sprintf("failed to close %s: %v", tmp.Name(), err))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errorx.NewIOErr(fmt.Sprintf("failed to rename %s to %s: %v", tmp.Name(), path, err))
	}
	return nil
}
