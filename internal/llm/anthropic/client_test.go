package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"menud/internal/common"
)

func messagesStub(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") == "" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": text}},
		})
	}))
}

func TestStructureStripsFenceAndCanonicalizes(t *testing.T) {
	srv := messagesStub(t, http.StatusOK,
		"```json\n{\n  \"menu_sections\": []\n}\n```")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	out, err := c.Structure(context.Background(), "some menu text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"menu_sections":[]}` {
		t.Errorf("got %s", out)
	}
}

func TestStructureNonJSONResponse(t *testing.T) {
	srv := messagesStub(t, http.StatusOK, "I could not parse this menu, sorry.")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Structure(context.Background(), "some menu text")
	if !errors.Is(err, common.ErrStructuring) {
		t.Fatalf("expected ErrStructuring, got %v", err)
	}
}

func TestStructureAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Structure(context.Background(), "some menu text")
	if !errors.Is(err, common.ErrStructuring) {
		t.Fatalf("expected ErrStructuring, got %v", err)
	}
}

func TestStructureEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Structure(context.Background(), "some menu text")
	if !errors.Is(err, common.ErrStructuring) {
		t.Fatalf("expected ErrStructuring, got %v", err)
	}
}
