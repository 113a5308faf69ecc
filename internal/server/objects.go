/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"galleria/internal/blob"
)

// Response bodies of the storage fetch endpoint.
const (
	msgNotFound    = "Image not found"
	msgMissingPath = "File path missing"
	msgInternal    = "Internal Server Error"
	cacheImmutable = "public, max-age=31536000, immutable"
)

// objectKey returns the unescaped object key of the wildcard route.
func objectKey(r *http.Request) string {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if k, err := url.PathUnescape(key); err == nil {
			key = k
		}
	}
	return key
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	code := s.serveObject(w, r, objectKey(r))
	s.metrics.observe(code, time.Since(start))
}

func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, key string) int {
	if key == "" {
		writeText(w, http.StatusNotFound, msgMissingPath)
		return http.StatusNotFound
	}
	if s.store == nil {
		writeText(w, http.StatusInternalServerError, msgInternal)
		return http.StatusInternalServerError
	}
	var (
		info blob.Info
		body io.ReadCloser
		err  error
	)
	if r.Method == http.MethodHead {
		info, err = s.store.Head(r.Context(), key)
	} else {
		info, body, err = s.store.Get(r.Context(), key)
	}
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			writeText(w, http.StatusNotFound, msgNotFound)
			return http.StatusNotFound
		}
		s.log.Error("fetch object failed", slog.String("key", key), slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, msgInternal)
		return http.StatusInternalServerError
	}
	if body != nil {
		defer body.Close()
	}

	h := w.Header()
	if info.ContentType != "" {
		h.Set("Content-Type", info.ContentType)
	}
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	h.Set("Cache-Control", cacheImmutable)
	if info.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if body != nil {
		if _, err := io.Copy(w, body); err != nil {
			s.log.Warn("stream object interrupted", slog.String("key", key), slog.Any("err", err))
		}
	}
	return http.StatusOK
}
