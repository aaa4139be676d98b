/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "Dekk"

// Secret names in the keyring.
const (
	SecretGoogleAPIKey      = "google_api_key"
	SecretUnsplashAccessKey = "unsplash_access_key"
	SecretBackendToken      = "backend_token"
	SecretAuthSecret        = "auth_secret"
)

var secretEnv = map[string]string{
	SecretGoogleAPIKey:      "DEKK_GOOGLE_API_KEY",
	SecretUnsplashAccessKey: "DEKK_UNSPLASH_ACCESS_KEY",
	SecretBackendToken:      "DEKK_BACKEND_TOKEN",
	SecretAuthSecret:        "DEKK_AUTH_SECRET",
}

// Secrets are the credentials the collaborators need.
type Secrets struct {
	GoogleAPIKey      string
	UnsplashAccessKey string
	BackendToken      string
	AuthSecret        string
}

// Secret returns the named secret: the env override when set, else the
// keyring entry. A missing entry yields "" and no error.
func Secret(name string) (string, error) {
	if env, ok := secretEnv[name]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	v, err := keyring.Get(keyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetSecret stores a secret in the keyring; an empty value deletes it.
func SetSecret(name, value string) error {
	if value == "" {
		err := keyring.Delete(keyringService, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return keyring.Set(keyringService, name, value)
}

// LoadSecrets reads all secrets. Keyring failures leave the field empty and
// are returned joined.
func LoadSecrets() (Secrets, error) {
	var (
		s    Secrets
		errs []error
	)
	for name, dst := range map[string]*string{
		SecretGoogleAPIKey:      &s.GoogleAPIKey,
		SecretUnsplashAccessKey: &s.UnsplashAccessKey,
		SecretBackendToken:      &s.BackendToken,
		SecretAuthSecret:        &s.AuthSecret,
	} {
		v, err := Secret(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*dst = v
	}
	return s, errors.Join(errs...)
}
