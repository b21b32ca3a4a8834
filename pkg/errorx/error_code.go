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

package errorx

import "errors"

type ErrorCode int

const (
	Undefined_Err ErrorCode = 1000
	GENERAL_ERR   ErrorCode = 1001
	IOErr         ErrorCode = 1002

	// error codes for vault artifacts

	ConfigurationErr ErrorCode = 2001
	CorruptionErr    ErrorCode = 2002
)

func NewIOErr(msg string) error {
	return &Error{
		code: IOErr,
		msg:  msg,
	}
}

// NewConfigurationError reports malformed or inconsistent input such as an
// unparsable recipe field or an invalid table size.
func NewConfigurationError(msg string) error {
	return &Error{
		code: ConfigurationErr,
		msg:  msg,
	}
}

// NewCorruptionError reports artifacts that parsed but cannot yield a
// secret, e.g. a tampered ciphertext or an out of range slot index.
func NewCorruptionError(msg string) error {
	return &Error{
		code: CorruptionErr,
		msg:  msg,
	}
}

func IsIOError(err error) bool {
	if withCode, ok := err.(ErrorWithCode); ok {
		return withCode.Code() == IOErr
	}
	return false
}

func IsConfigurationError(err error) bool {
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.Code() == ConfigurationErr
	}
	return false
}

func IsCorruptionError(err error) bool {
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.Code() == CorruptionErr
	}
	return false
}

func GetErrorCode(err error) (ErrorCode, bool) {
	if code, ok := err.(ErrorWithCode); ok {
		return code.Code(), true
	}
	return 0, false
}
