package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stellarlinkco/packmate/internal/config"
)

func chatServer(t *testing.T, content string, check func(body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gsk_test" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama-3.1-8b-instant",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func checkBody(t *testing.T, maxTokensKey string) func(map[string]any) {
	return func(body map[string]any) {
		if body["model"] != "llama-3.1-8b-instant" {
			t.Errorf("model = %v", body["model"])
		}
		if body["temperature"].(float64) != 0.3 {
			t.Errorf("temperature = %v", body["temperature"])
		}
		if body[maxTokensKey].(float64) != 300 {
			t.Errorf("%s = %v", maxTokensKey, body[maxTokensKey])
		}
		msgs := body["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("messages = %d, want system + user", len(msgs))
			return
		}
		if msgs[0].(map[string]any)["role"] != "system" {
			t.Errorf("first message role = %v", msgs[0])
		}
	}
}

var parseOpts = Options{System: "return json", MaxTokens: 300, Temperature: 0.3}

func TestHTTPGenerator_RequestAndResponse(t *testing.T) {
	srv := chatServer(t, `  {"title":"Hike"}  `, checkBody(t, "max_tokens"))

	gen := NewHTTPGenerator(HTTPConfig{APIKey: "gsk_test", BaseURL: srv.URL + "/", Model: "llama-3.1-8b-instant"})
	out, err := gen.Generate(context.Background(), "parse this", parseOpts)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != `{"title":"Hike"}` {
		t.Fatalf("content = %q", out)
	}
}

func TestHTTPGenerator_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(HTTPConfig{APIKey: "gsk_test", BaseURL: srv.URL, Model: "m"})
	if _, err := gen.Generate(context.Background(), "x", Options{}); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected http 429 error, got %v", err)
	}

	noKey := NewHTTPGenerator(HTTPConfig{BaseURL: srv.URL, Model: "m"})
	if _, err := noKey.Generate(context.Background(), "x", Options{}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	empty := chatServer(t, "   ", nil)
	gen = NewHTTPGenerator(HTTPConfig{APIKey: "gsk_test", BaseURL: empty.URL, Model: "m"})
	if _, err := gen.Generate(context.Background(), "x", Options{}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestOpenAIGenerator_RequestAndResponse(t *testing.T) {
	srv := chatServer(t, `["tent","rope"]`, checkBody(t, "max_tokens"))

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "gsk_test", BaseURL: srv.URL, Model: "llama-3.1-8b-instant"})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	out, err := gen.Generate(context.Background(), "suggest", parseOpts)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != `["tent","rope"]` {
		t.Fatalf("content = %q", out)
	}
}

func TestOpenAIGenerator_ServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "gsk_bad", BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "x", Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_ProviderSelection(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := New(cfg); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	cfg.Provider.APIKey = "gsk_test"
	gen, err := New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := gen.(*OpenAIGenerator); !ok {
		t.Fatalf("groq provider = %T, want *OpenAIGenerator", gen)
	}

	cfg.Provider.Type = config.ProviderHTTP
	gen, err = New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := gen.(*HTTPGenerator); !ok {
		t.Fatalf("http provider = %T, want *HTTPGenerator", gen)
	}

	cfg.Provider.Type = "carrier-pigeon"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
