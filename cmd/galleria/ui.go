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
	"github.com/spf13/cobra"

	"galleria/internal/ui"
)

func addUI(topLevel *cobra.Command, a *app) {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the gallery in a desktop window (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			kv, closeKV, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer closeKV()
			f.fetch = true
			return ui.Run(cmd.Context(), a.sessionOptions(f, kv))
		},
	}
	f.register(cmd)
	// selections come from the window controls
	for _, name := range []string{"fandom", "sort", "fetch"} {
		_ = cmd.Flags().MarkHidden(name)
	}
	topLevel.AddCommand(cmd)
}
