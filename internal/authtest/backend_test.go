package authtest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MrEthical07/authgate/jwt"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func postJSON(t *testing.T, b *Backend, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := b.Client().Post(b.URL()+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRefreshTokenRotatesAndRejectsReuse(t *testing.T) {
	b := newBackend(t)
	_, refresh, err := b.IssuePair(jwt.Subject{ID: "u1", Role: "user"})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	resp, body := postJSON(t, b, RefreshPath, map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["refresh_token"] == refresh {
		t.Fatal("expected rotated refresh token")
	}

	resp, body = postJSON(t, b, RefreshPath, map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected reuse to be rejected, got %d", resp.StatusCode)
	}
	if body["detail"] != "Refresh token already used" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
	if got := b.Calls(RefreshPath); got != 2 {
		t.Fatalf("expected 2 refresh calls, got %d", got)
	}
}

func TestLoginValidationDetailIsFieldList(t *testing.T) {
	b := newBackend(t)
	resp, body := postJSON(t, b, LoginPath, map[string]string{"email": "a@example.com"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	items, ok := body["detail"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one field error, got %v", body["detail"])
	}
}

func TestProtectedRejectsExpiredAccessToken(t *testing.T) {
	b := newBackend(t)
	access, _, err := b.IssuePair(jwt.Subject{ID: "u1"})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	get := func() int {
		req, _ := http.NewRequest(http.MethodGet, b.URL()+"/workflows", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := b.Client().Do(req)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := get(); got != http.StatusOK {
		t.Fatalf("expected 200, got %d", got)
	}
	b.ExpireAccessTokens()
	if got := get(); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 after expiry, got %d", got)
	}
}

func TestHealthProbe(t *testing.T) {
	b := newBackend(t)
	key, err := b.NewAPIKey()
	if err != nil {
		t.Fatalf("NewAPIKey failed: %v", err)
	}

	probe := func(k string) int {
		req, _ := http.NewRequest(http.MethodGet, b.URL()+HealthPath, nil)
		req.Header.Set("X-API-Key", k)
		resp, err := b.Client().Do(req)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := probe(key); got != http.StatusOK {
		t.Fatalf("expected 200 for valid key, got %d", got)
	}
	if got := probe("nope"); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d", got)
	}
}
