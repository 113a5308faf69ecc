/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Epoch is the parsed date of records without a usable date. It sorts last under newest.
var Epoch = time.Unix(0, 0).UTC()

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// ParseDate converts a manifest date ("YYYY" or "MM/DD/YYYY") into a calendar date.
// Out-of-range month/day values roll over like a calendar constructor (13/01/2020
// is January 2021). Two-digit years map to 19xx. Anything else yields Epoch.
func ParseDate(s string) time.Time {
	if s == "" {
		return Epoch
	}
	if yearOnly.MatchString(s) {
		y, _ := strconv.Atoi(s)
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Epoch
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Epoch
		}
		nums[i] = n
	}
	year := nums[2]
	if year >= 0 && year <= 99 {
		year += 1900
	}
	return time.Date(year, time.Month(nums[0]), nums[1], 0, 0, 0, 0, time.UTC)
}
