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
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"galleria/internal/config"
	"galleria/internal/crash"
	applog "galleria/internal/log"
	"galleria/internal/version"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfg    config.AppConfig
	secret string
	crash  *crash.Context
}

func newRoot(cc *crash.Context) *cobra.Command {
	a := &app{crash: cc}
	cmd := &cobra.Command{
		Use:           "galleria",
		Short:         "Masonry image gallery engine and storage proxy.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, secret, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg, a.secret = cfg, secret
			applog.Init(applog.Options{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				AddSource: cfg.Logging.Source,
				File:      cfg.Logging.File,
				Writer:    cmd.ErrOrStderr(),
			})
			if cc != nil {
				cc.Command = cmd.Name()
				if p, err := config.ConfigPath(); err == nil {
					cc.Dir = filepath.Join(filepath.Dir(p), "crash")
				}
			}
			applog.WithComponent("cli").Debug("start", slog.String("command", cmd.Name()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addServe(cmd, a)
	addLayout(cmd, a)
	addExport(cmd, a)
	addUI(cmd, a)
	addVersion(cmd)
	return cmd
}

func addVersion(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Galleria", version.String())
			return err
		},
	}
	topLevel.AddCommand(cmd)
}
