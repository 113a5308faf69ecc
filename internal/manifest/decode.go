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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"galleria/internal/domain"
)

//go:embed schema/manifest.schema.json
var schemaJSON []byte

// ErrInvalid marks a manifest that is not JSON or fails the schema.
var ErrInvalid = errors.New("manifest: invalid document")

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Decode validates data against the manifest schema and decodes the records.
func Decode(data []byte) ([]domain.ImageRecord, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	var recs []domain.ImageRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return recs, nil
}

// Encode renders records in manifest form (derived fields are omitted).
func Encode(recs []domain.ImageRecord) ([]byte, error) {
	if recs == nil {
		recs = []domain.ImageRecord{}
	}
	return json.MarshalIndent(recs, "", "  ")
}
