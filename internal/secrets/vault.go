package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// AdminLogin is a dashboard administrator's backend login kept in a KV v2 secret under the keys
// "email" and "password".
type AdminLogin struct {
	Email    string
	Password string
}

type VaultOptions struct {
	Address string
	Token   string
	KVMount string
	KVPath  string
}

type Vault struct {
	client *vaultapi.Client
	mount  string
	path   string
}

func NewVault(opts VaultOptions) (*Vault, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("vault token is required")
	}
	path := strings.Trim(strings.TrimSpace(opts.KVPath), "/")
	if path == "" {
		return nil, errors.New("vault kv path is required")
	}
	mount := strings.Trim(strings.TrimSpace(opts.KVMount), "/")
	if mount == "" {
		mount = "secret"
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{Timeout: 30 * time.Second}
	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	client.SetToken(token)

	return &Vault{client: client, mount: mount, path: path}, nil
}

// AdminLogin reads the configured KV v2 secret.
func (v *Vault) AdminLogin(ctx context.Context) (AdminLogin, error) {
	fullPath := v.mount + "/data/" + v.path
	secret, err := v.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return AdminLogin{}, fmt.Errorf("vault read %s: %w", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return AdminLogin{}, fmt.Errorf("vault secret %s not found", fullPath)
	}
	data, _ := secret.Data["data"].(map[string]any)
	login := AdminLogin{
		Email:    mapString(data, "email"),
		Password: mapString(data, "password"),
	}
	if login.Password == "" {
		return AdminLogin{}, fmt.Errorf("vault secret %s has no password", fullPath)
	}
	return login, nil
}

func mapString(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}
