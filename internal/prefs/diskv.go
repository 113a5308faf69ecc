/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package prefs

import (
	"errors"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvKV stores one file per key under a base directory.
type DiskvKV struct {
	d *diskv.Diskv
}

// OpenDiskv returns a store rooted at dir.
func OpenDiskv(dir string) (*DiskvKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("prefs path is required")
	}
	return &DiskvKV{d: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 64 * 1024,
	})}, nil
}

func (k *DiskvKV) Get(key string) (string, bool, error) {
	if !k.d.Has(key) {
		return "", false, nil
	}
	b, err := k.d.Read(key)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (k *DiskvKV) Set(key, value string) error { return k.d.Write(key, []byte(value)) }
