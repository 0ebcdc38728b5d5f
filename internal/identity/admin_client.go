package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderError is a non-success response from the identity provider. Its
// message is the provider's own text.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// AdminClient calls the identity provider's admin API with the service key.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewAdminClient creates an AdminClient. baseURL is the auth API root, for
// example https://<project>.supabase.co/auth/v1.
func NewAdminClient(baseURL, serviceKey string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DeleteIdentity removes the identity record for id.
func (c *AdminClient) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	url := c.baseURL + "/admin/users/" + id.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return &ProviderError{Status: resp.StatusCode, Message: readProviderMessage(resp)}
}

// readProviderMessage extracts the human-readable message from an error body.
func readProviderMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
			if m != "" {
				return m
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("identity provider returned %d", resp.StatusCode)
}
