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

package conf

import (
	"errors"
	"io"
	"os"
	"path"
	"time"

	"github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

const (
	ConfFileName   = "vault.yaml"
	TableFileName  = "vault.table"
	RecipeFileName = "vault.recipe"
)

const (
	defaultTableSize = 1024
	minTableSize     = 64
	maxTableSize     = 65535
)

var (
	Config    *VaultConf
	IsTesting bool
)

type VaultSetting struct {
	TablePath  string `yaml:"tablePath"`
	RecipePath string `yaml:"recipePath"`
	TableSize  int    `yaml:"tableSize"`
}

// Validate the configuration and reset to the default value for invalid values.
func (vs *VaultSetting) Validate() error {
	var errs error
	if vs.TableSize == 0 {
		vs.TableSize = defaultTableSize
	}
	if vs.TableSize < minTableSize || vs.TableSize > maxTableSize {
		Log.Warnf("tableSize %d is out of range [%d, %d], set to %d", vs.TableSize, minTableSize, maxTableSize, defaultTableSize)
		errs = errors.Join(errs, errors.New("invalidTableSize:tableSize must be between 64 and 65535"))
		vs.TableSize = defaultTableSize
	}
	return errs
}

type VaultConf struct {
	Basic struct {
		Debug      bool `yaml:"debug"`
		ConsoleLog bool `yaml:"consoleLog"`
		FileLog    bool `yaml:"fileLog"`
		RotateTime int  `yaml:"rotateTime"`
		MaxAge     int  `yaml:"maxAge"`
	}
	Vault *VaultSetting
}

func InitConf() {
	vc := VaultConf{}
	cpath, err := GetConfLoc()
	if err != nil {
		Log.Warnf("etc directory not found, use the working directory: %v", err)
		cpath, err = os.Getwd()
		if err != nil {
			Log.Fatal(err)
		}
		err = LoadConfigFromPath(path.Join(cpath, ConfFileName), &vc)
	} else {
		err = LoadConfig(&vc)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			Log.Infof("config file %s not found, use defaults", ConfFileName)
		} else {
			Log.Fatal(err)
		}
	}
	Config = &vc

	if Config.Basic.Debug {
		Log.SetLevel(logrus.DebugLevel)
	}
	if Config.Basic.RotateTime <= 0 {
		Config.Basic.RotateTime = 24
	}
	if Config.Basic.MaxAge <= 0 {
		Config.Basic.MaxAge = 72
	}

	if Config.Basic.FileLog && !IsTesting {
		logDir, err := GetLogLoc()
		if err != nil {
			Log.Fatal(err)
		}

		file := path.Join(logDir, logFileName)
		logWriter, err := rotatelogs.New(
			file+".%Y-%m-%d_%H-%M-%S",
			rotatelogs.WithLinkName(file),
			rotatelogs.WithRotationTime(time.Hour*time.Duration(Config.Basic.RotateTime)),
			rotatelogs.WithMaxAge(time.Hour*time.Duration(Config.Basic.MaxAge)),
		)

		if err != nil {
			Log.Infof("Failed to log to file, using default stderr: %v", err)
		} else if Config.Basic.ConsoleLog {
			mw := io.MultiWriter(os.Stdout, logWriter)
			Log.SetOutput(mw)
		} else if !Config.Basic.ConsoleLog {
			Log.SetOutput(logWriter)
		}
	} else if Config.Basic.ConsoleLog {
		Log.SetOutput(os.Stdout)
	}

	if Config.Vault == nil {
		Config.Vault = &VaultSetting{}
	}
	_ = Config.Vault.Validate()
	if Config.Vault.TablePath == "" {
		Config.Vault.TablePath = path.Join(cpath, TableFileName)
	}
	if Config.Vault.RecipePath == "" {
		Config.Vault.RecipePath = path.Join(cpath, RecipeFileName)
	}
}

func init() {
	InitLogger()
}
