/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes the image objects, the manifest and the health
// endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"galleria/internal/blob"
	applog "galleria/internal/log"
	"galleria/internal/version"
)

// Route prefixes of the storage fetch endpoint.
const (
	GalleryPrefix = "/gallery"
	APIPrefix     = "/api/images"
	ManifestPath  = "/gallery/gallery.json"
)

// readyProbeKey is looked up by /readyz; a missing object still proves the store answers.
const readyProbeKey = ".readyz"

// Options configure a Server.
type Options struct {
	Addr     string
	Store    blob.Store
	Manifest ManifestProvider
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Server is the HTTP front of the object store.
type Server struct {
	addr     string
	store    blob.Store
	manifest ManifestProvider
	metrics  *Metrics
	log      *slog.Logger
}

// New returns a server; Metrics and Logger default to fresh instances.
func New(opts Options) *Server {
	s := &Server{addr: opts.Addr, store: opts.Store, manifest: opts.Manifest, metrics: opts.Metrics, log: opts.Logger}
	if s.addr == "" {
		s.addr = ":8080"
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.log == nil {
		s.log = applog.WithComponent("server")
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", s.handleReady)
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, version.String())
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if s.manifest != nil {
		r.Get(ManifestPath, s.handleManifest)
		r.Head(ManifestPath, s.handleManifest)
	}
	for _, prefix := range []string{GalleryPrefix, APIPrefix} {
		r.Get(prefix+"/*", s.handleObject)
		r.Head(prefix+"/*", s.handleObject)
		r.Get(prefix, s.handleObject)
	}
	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.store == nil {
		writeText(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	if _, err := s.store.Head(ctx, readyProbeKey); err != nil && !errors.Is(err, blob.ErrNotFound) && !errors.Is(err, blob.ErrInvalidKey) {
		s.log.Warn("store not ready", slog.Any("err", err))
		writeText(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeText(w, http.StatusOK, "ready")
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	data, etag, err := s.manifest.Manifest(r.Context())
	if err != nil {
		s.log.Error("manifest unavailable", slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	quoted := `"` + etag + `"`
	w.Header().Set("ETag", quoted)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == quoted {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// requestLogger logs one line per request with the captured status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
