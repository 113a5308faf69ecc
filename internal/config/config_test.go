/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

type memSecrets struct{ m map[string]string }

func (s *memSecrets) Get(service, key string) (string, error) { return s.m[service+"/"+key], nil }
func (s *memSecrets) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}
func (s *memSecrets) Delete(service, key string) error {
	delete(s.m, service+"/"+key)
	return nil
}

func isolate(t *testing.T) (string, *memSecrets) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("GAL_CONFIG", path)
	secrets := &memSecrets{m: map[string]string{}}
	prev := SetSecretStore(secrets)
	t.Cleanup(func() { SetSecretStore(prev) })
	return path, secrets
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if secret != "" {
		t.Fatalf("unexpected secret %q", secret)
	}
	if cfg.Gallery.URLMode != "direct" || cfg.Gallery.ProxyPrefix != "/gallery/" {
		t.Fatalf("gallery defaults not applied: %#v", cfg.Gallery)
	}
	if cfg.Gallery.PrefsPath == "" {
		t.Fatalf("prefs path should be derived from config dir")
	}
}

func TestEnvOverridesManifestURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvManifestURL, "https://example.test/gallery.json")
	t.Setenv(EnvViewportWidth, "900")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Gallery.ManifestURL, "https://example.test/gallery.json"; got != want {
		t.Fatalf("Gallery.ManifestURL = %q, want %q", got, want)
	}
	if cfg.Gallery.ViewportWidth != 900 {
		t.Fatalf("ViewportWidth = %d", cfg.Gallery.ViewportWidth)
	}
	if name, ok := EnvOverrideFor("gallery.manifest_url"); !ok || name != EnvManifestURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("server.addr"); ok {
		t.Fatalf("server.addr should not be reported as overridden")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	_, secrets := isolate(t)
	cfg := Defaults()
	cfg.Gallery.URLMode = "proxied"
	cfg.Server.BlobDriver = "s3"
	cfg.Server.S3.Bucket = "art"
	cfg.Server.S3.PathStyle = true
	if err := Save(cfg, "top-secret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if secrets.m[keyringService+"/"+keyringSecret] != "top-secret" {
		t.Fatalf("secret not stored in keyring")
	}
	got, secret, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Gallery.URLMode != "proxied" || got.Server.S3.Bucket != "art" || !got.Server.S3.PathStyle {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if secret != "top-secret" {
		t.Fatalf("secret = %q", secret)
	}
}

func TestEnvSecretWinsOverKeyring(t *testing.T) {
	_, secrets := isolate(t)
	secrets.m[keyringService+"/"+keyringSecret] = "from-keyring"
	t.Setenv(EnvBlobDriver, "s3")
	t.Setenv(EnvS3SecretKey, "from-env")
	_, secret, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("secret = %q, want from-env", secret)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Logging: LoggingConfig{Level: "DEBUG", Format: "json", Source: true, File: "/tmp/gal.log"}}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gal.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	if dst.Gallery.DirectBaseURL == "" {
		t.Fatalf("empty src fields must not clear defaults")
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("gallery: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gallery.ViewportWidth != Defaults().Gallery.ViewportWidth {
		t.Fatalf("malformed yaml should leave defaults, got %#v", cfg.Gallery)
	}
}
