package config

import (
	"os"
	"strings"
)

const (
	EnvAPIKey  = "ZEROBOUNCE_API_KEY"
	EnvProfile = "ZEROBOUNCE_PROFILE"
)

// Source names where a resolved key came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Credentials is the resolved API key plus any stored defaults.
type Credentials struct {
	APIKey     string
	APIVersion string
	Profile    string
	Source     Source
}

// ResolveCredentials picks the API key from, in order: the flag override,
// ZEROBOUNCE_API_KEY, then the named (or current) keyring profile.
func ResolveCredentials(keyOverride, profile string) (Credentials, error) {
	if key := strings.TrimSpace(keyOverride); key != "" {
		return Credentials{APIKey: key, Source: SourceFlag}, nil
	}
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return Credentials{APIKey: key, Source: SourceEnv}, nil
	}

	if profile == "" {
		profile = strings.TrimSpace(os.Getenv(EnvProfile))
	}
	if profile == "" {
		current, err := CurrentProfile()
		if err != nil {
			return Credentials{}, err
		}
		profile = current
	}

	p, err := LoadProfile(profile)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		APIKey:     p.APIKey,
		APIVersion: p.APIVersion,
		Profile:    profile,
		Source:     SourceKeyring,
	}, nil
}

// MaskKey keeps the last four characters of key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
