package adapter

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Justype/qadapter/internal/config"
	"golang.org/x/crypto/ssh"
)

func writeKey(t *testing.T, passphrase string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(file, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestAuthMethods(t *testing.T) {
	key := writeKey(t, "")
	encrypted := writeKey(t, "secret")
	noPrompt := func(string, bool) (string, error) {
		return "", errors.New("unexpected prompt")
	}

	tests := []struct {
		name    string
		cfg     config.SSHConfig
		methods int
		wantErr bool
	}{
		{"key", config.SSHConfig{Key: key}, 1, false},
		{"key with passphrase", config.SSHConfig{Key: encrypted, KeyPassphrase: "secret"}, 1, false},
		{"wrong passphrase", config.SSHConfig{Key: encrypted, KeyPassphrase: "wrong"}, 0, true},
		{"missing key", config.SSHConfig{Key: filepath.Join(t.TempDir(), "none")}, 0, true},
		{"password", config.SSHConfig{Password: "pw"}, 1, false},
		{"ask", config.SSHConfig{AskForPassword: true}, 1, false},
		{"ask ignores key", config.SSHConfig{AskForPassword: true, Key: "/does/not/exist"}, 1, false},
		{"password and authenticator", config.SSHConfig{Password: "pw", AuthenticatorService: "hpc", TwoFactor: true}, 2, false},
		{"password and 2FA", config.SSHConfig{Password: "pw", TwoFactor: true}, 2, false},
		{"ask and 2FA", config.SSHConfig{AskForPassword: true, TwoFactor: true}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methods, err := AuthMethods(tt.cfg, noPrompt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AuthMethods() err = %v; wantErr %v", err, tt.wantErr)
			}
			if len(methods) != tt.methods {
				t.Errorf("AuthMethods() returned %d methods; want %d", len(methods), tt.methods)
			}
		})
	}
}

func TestAuthMethodsUnsupported(t *testing.T) {
	tests := []config.SSHConfig{
		{},
		{TwoFactor: true},
		{AuthenticatorService: "hpc", TwoFactor: true},
	}
	for _, cfg := range tests {
		if _, err := AuthMethods(cfg, nil); !errors.Is(err, ErrUnsupportedAuth) {
			t.Errorf("AuthMethods(%+v) err = %v; want ErrUnsupportedAuth", cfg, err)
		}
	}
}
