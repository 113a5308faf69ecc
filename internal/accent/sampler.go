/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package accent

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// Sampler produces the dominant colour of the image at url.
type Sampler interface {
	Sample(ctx context.Context, url string) (color.RGBA, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, url string) (color.RGBA, error)

func (fn SamplerFunc) Sample(ctx context.Context, url string) (color.RGBA, error) { return fn(ctx, url) }

// HTTPSampler downloads and decodes the full image. The request carries a
// cors=yes query so CDNs keep it apart from the plain cached display fetch.
type HTTPSampler struct {
	Client *http.Client
}

// CORSURL appends the cors=yes marker to url.
func CORSURL(url string) string {
	if strings.Contains(url, "?") {
		return url + "&cors=yes"
	}
	return url + "?cors=yes"
}

func (s HTTPSampler) Sample(ctx context.Context, url string) (color.RGBA, error) {
	c := s.Client
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CORSURL(url), nil)
	if err != nil {
		return color.RGBA{}, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return color.RGBA{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return color.RGBA{}, fmt.Errorf("sample %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("sample %s: %w", url, err)
	}
	return Dominant(img)
}
