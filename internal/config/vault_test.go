package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/errors"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		secret, err := parseKVv2(map[string]any{
			"data":     map[string]any{"api_key": "k"},
			"metadata": map[string]any{"version": json.Number("3")},
		}, "secret/data/gemini")
		require.NoError(t, err)
		assert.Equal(t, int64(3), secret.Version)
		assert.Equal(t, "k", secret.Data["api_key"])
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"metadata": map[string]any{"version": 1.0}}, "p")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{
			"data":     map[string]any{},
			"metadata": map[string]any{},
		}, "p")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Similarity: OperationAIConfig{APIKey: "explicit-similarity-key"},
		},
	}

	applyGeminiKeyToConfig(config, "vault-key")

	assert.Equal(t, "vault-key", config.AI.APIKey)
	assert.Equal(t, "vault-key", config.AI.Suggest.APIKey)
	assert.Equal(t, "explicit-similarity-key", config.AI.Similarity.APIKey)
}

func TestLoadTLSCertificateContent(t *testing.T) {
	config := &Config{Server: ServerConfig{TLS: TLSConfig{
		CertFile: "/etc/cert.pem",
		KeyFile:  "/etc/key.pem",
		CAFile:   "/etc/ca.pem",
	}}}

	n := loadTLSCertificateContent(config, &VaultSecret{Data: map[string]any{
		"cert": "CERT PEM",
		"key":  "KEY PEM",
		"ca":   "",
	}})

	assert.Equal(t, 2, n)
	assert.Equal(t, "CERT PEM", config.Server.TLS.CertContent)
	assert.Empty(t, config.Server.TLS.CertFile)
	assert.Equal(t, "KEY PEM", config.Server.TLS.KeyContent)
	assert.Empty(t, config.Server.TLS.KeyFile)
	assert.Equal(t, "/etc/ca.pem", config.Server.TLS.CAFile, "empty CA content keeps the file")
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("config token wins", func(t *testing.T) {
		t.Setenv("VAULT_TOKEN", "env-token")
		token, err := resolveVaultToken(VaultConfig{Token: "cfg-token"})
		require.NoError(t, err)
		assert.Equal(t, "cfg-token", token)
	})

	t.Run("token file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("file-token\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("VAULT_TOKEN", "env-token")
		token, err := resolveVaultToken(VaultConfig{})
		require.NoError(t, err)
		assert.Equal(t, "env-token", token)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("VAULT_TOKEN", "")
		_, err := resolveVaultToken(VaultConfig{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeMissingAPIKey, errors.CodeOf(err))
	})

	t.Run("unreadable token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "nope")})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})
}

// fakeVault serves sys/health and KV v2 reads for the given paths
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true,
				"sealed":      false,
				"standby":     false,
				"version":     "1.15.0",
			})
			return
		}
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 1},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"secret/data/atscore/api-keys": {"keys": "key-one, key-two"},
		"secret/data/atscore/gemini":   {"api_key": "vault-gemini"},
		"secret/data/atscore/tls":      {"cert": "CERT", "key": "KEY"},
	})

	config := &Config{Vault: VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   "test-token",
		Secrets: VaultSecrets{
			APIKeys:   "secret/data/atscore/api-keys",
			GeminiKey: "secret/data/atscore/gemini",
			TLSCerts:  "secret/data/atscore/tls",
		},
	}}

	require.NoError(t, ApplyVaultSecrets(config, errors.NewNopLogger()))

	assert.Equal(t, []string{"key-one", "key-two"}, config.Server.APIKeys)
	assert.Equal(t, "vault-gemini", config.AI.APIKey)
	assert.Equal(t, "vault-gemini", config.AI.Suggest.APIKey)
	assert.Equal(t, "CERT", config.Server.TLS.CertContent)
	assert.Equal(t, "KEY", config.Server.TLS.KeyContent)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{})

	config := &Config{Vault: VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   "test-token",
		Secrets: VaultSecrets{GeminiKey: "secret/data/atscore/gemini"},
	}}

	err := ApplyVaultSecrets(config, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load Gemini API key from vault")
	assert.Empty(t, config.AI.APIKey)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{}
	assert.NoError(t, ApplyVaultSecrets(config, nil))

	client, err := NewVaultClient(VaultConfig{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient
	_, err := vc.GetSecretV2("secret/data/x")
	assert.ErrorContains(t, err, "vault client not initialized")
}
