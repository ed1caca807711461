package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/models"
)

// Directory resolves user identities (role and account status) from the user
// service. Account management is owned entirely by that service; this client
// only answers "who is this and may they act".
type Directory struct {
	BaseURL string
	Client  *http.Client
	Cache   *IdentityCache
}

func NewDirectory(baseURL string, client *http.Client, cache *IdentityCache) *Directory {
	return &Directory{BaseURL: baseURL, Client: client, Cache: cache}
}

// Lookup fetches the identity for userID, consulting the Redis cache first.
func (d *Directory) Lookup(ctx context.Context, userID string) (*models.Identity, error) {
	if userID == "" {
		return nil, apperr.Forbidden("missing caller identity")
	}

	if d.Cache != nil {
		if identity, err := d.Cache.Get(ctx, userID); err == nil && identity != nil {
			return identity, nil
		}
	}

	url := fmt.Sprintf("%s/internal/users/%s", d.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service error: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, apperr.Forbidden("unknown user %s", userID)
	default:
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var identity models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, &identity); err != nil {
			// cache misses are tolerable; the lookup still succeeded
			fmt.Printf("identity cache write failed: %v\n", err)
		}
	}

	return &identity, nil
}
