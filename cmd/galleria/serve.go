/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"galleria/internal/blob"
	"galleria/internal/config"
	applog "galleria/internal/log"
	"galleria/internal/manifest"
	"galleria/internal/server"
)

func addServe(topLevel *cobra.Command, a *app) {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve image objects and the manifest over HTTP",
		Example: `
galleria serve --addr :8080
GAL_BLOB_DRIVER=s3 GAL_S3_BUCKET=art galleria serve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}
			store, err := openStore(ctx, sc, a.secret)
			if err != nil {
				return err
			}
			provider, closeProvider, err := openManifestProvider(ctx, sc, store)
			if err != nil {
				return err
			}
			defer closeProvider()
			return server.New(server.Options{Addr: sc.Addr, Store: store, Manifest: provider}).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	topLevel.AddCommand(cmd)
}

func openStore(ctx context.Context, sc config.ServerConfig, secret string) (blob.Store, error) {
	store, err := blob.Open(ctx, blob.Options{
		Driver: blob.Driver(sc.BlobDriver),
		FSRoot: sc.FSRoot,
		S3: blob.S3Config{
			Region:          sc.S3.Region,
			Bucket:          sc.S3.Bucket,
			Endpoint:        sc.S3.Endpoint,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: secret,
			PathStyle:       sc.S3.PathStyle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return store, nil
}

// openManifestProvider returns the manifest source for the server and its cleanup.
// The file driver is watched for edits until ctx ends.
func openManifestProvider(ctx context.Context, sc config.ServerConfig, store blob.Store) (server.ManifestProvider, func(), error) {
	l := applog.WithComponent("cli")
	switch sc.ManifestDriver {
	case "", "file":
		wf, err := server.NewWatchedFile(sc.ManifestPath)
		if err != nil {
			return nil, nil, fmt.Errorf("watch manifest: %w", err)
		}
		go wf.Run(ctx, func(ok bool) {
			if !ok {
				l.Warn("manifest edit rejected, serving last good copy", slog.String("path", sc.ManifestPath))
			}
		})
		return wf, func() { _ = wf.Close() }, nil
	case "blob":
		return server.SourceProvider{Source: manifest.BlobSource{Store: store, Key: sc.ManifestKey}}, func() {}, nil
	case "postgres":
		pg, err := manifest.OpenPostgres(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return server.SourceProvider{Source: pg}, func() { _ = pg.Close() }, nil
	case "none":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown manifest driver %q", sc.ManifestDriver)
	}
}
