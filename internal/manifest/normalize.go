/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package manifest

import (
	"sort"
	"strings"

	"galleria/internal/domain"
)

// URL modes.
const (
	ModeDirect  = "direct"
	ModeProxied = "proxied"
)

// DefaultDirectBase is the public object storage origin.
const DefaultDirectBase = "https://bucket.wildwizardcreation.com/"

// DefaultProxyPrefix is the path the storage fetch endpoint is mounted on.
const DefaultProxyPrefix = "/gallery/"

// URLStrategy builds asset URLs from storage keys.
type URLStrategy struct {
	Mode        string
	DirectBase  string
	ProxyPrefix string
}

// DefaultURLStrategy loads directly from storage.
func DefaultURLStrategy() URLStrategy {
	return URLStrategy{Mode: ModeDirect, DirectBase: DefaultDirectBase, ProxyPrefix: DefaultProxyPrefix}
}

func (u URLStrategy) Direct(key string) string {
	base := u.DirectBase
	if base == "" {
		base = DefaultDirectBase
	}
	return joinURL(base, key)
}

func (u URLStrategy) Proxied(key string) string {
	prefix := u.ProxyPrefix
	if prefix == "" {
		prefix = DefaultProxyPrefix
	}
	return joinURL(prefix, key)
}

// URLs returns both forms for key; an empty key yields the zero value.
func (u URLStrategy) URLs(key string) domain.AssetURLs {
	if key == "" {
		return domain.AssetURLs{}
	}
	return domain.AssetURLs{Direct: u.Direct(key), Proxied: u.Proxied(key), UseProxied: strings.EqualFold(u.Mode, ModeProxied)}
}

func joinURL(base, key string) string {
	if strings.HasSuffix(base, "/") {
		return base + strings.TrimPrefix(key, "/")
	}
	return base + "/" + strings.TrimPrefix(key, "/")
}

// Normalize assigns manifest position, parsed date and asset URLs. The input is not mutated.
func Normalize(recs []domain.ImageRecord, urls URLStrategy) []domain.ImageRecord {
	out := make([]domain.ImageRecord, len(recs))
	for i, r := range recs {
		r.Index = i
		r.ParsedDate = domain.ParseDate(r.Date)
		r.Primary = urls.URLs(r.Filename)
		r.Secondary = urls.URLs(r.SecondaryFilename)
		out[i] = r
	}
	return out
}

// Fandoms returns the union of fandom values sorted case-insensitively.
func Fandoms(recs []domain.ImageRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range recs {
		for _, f := range r.Fandom {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
