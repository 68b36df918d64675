package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestStripMarkdownSQL(t *testing.T) {
	got := stripMarkdownSQL("```sql\nSELECT 1;\n```")
	if got != "SELECT 1;" {
		t.Fatalf("stripMarkdownSQL() = %q", got)
	}
	if got := stripMarkdownSQL("  SELECT 2  "); got != "SELECT 2" {
		t.Fatalf("stripMarkdownSQL(plain) = %q", got)
	}
}

func TestOpenAITranslatorSendsTemplatedPrompt(t *testing.T) {
	var payload struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		N           int     `json:"n"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```sql\\nSELECT COUNT(*) FROM customers;\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "sql-t5"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	result, err := translator.Translate(context.Background(), Request{Question: "How many customers?", Tables: []string{"customers"}})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT COUNT(*) FROM customers;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Provider != ProviderOpenAI || result.Model != "sql-t5" {
		t.Fatalf("result = %+v", result)
	}
	if gotAuth != "Bearer k" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if payload.Model != "sql-t5" || payload.Temperature != 0 || payload.N != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	if len(payload.Messages) != 1 || payload.Messages[0].Content != "tables: customers | How many customers?" {
		t.Fatalf("messages = %+v", payload.Messages)
	}
}

func TestOpenAITranslatorOmitsAuthWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT 1"}}]}`))
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	if _, err := translator.Translate(context.Background(), Request{Question: "q"}); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
}

func TestOpenAITranslatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty sql", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
		{"bad json", http.StatusOK, `not-json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: srv.URL, Model: "m"})
			if err != nil {
				t.Fatalf("NewOpenAITranslator() error = %v", err)
			}
			if _, err := translator.Translate(context.Background(), Request{Question: "q"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewOpenAITranslatorValidatesConfig(t *testing.T) {
	for _, cfg := range []OpenAIConfig{
		{Model: "m"},
		{BaseURL: "http://x"},
		{BaseURL: "http://x", Model: "m", Temperature: -1},
	} {
		if _, err := NewOpenAITranslator(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestOpenAILoaderProbesModelList(t *testing.T) {
	var mu sync.Mutex
	models := `{"data":[{"id":"other"}]}`
	setModels := func(body string) {
		mu.Lock()
		defer mu.Unlock()
		models = body
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %s", r.URL.Path)
		}
		mu.Lock()
		body := models
		mu.Unlock()
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	loader := NewOpenAILoader(OpenAIConfig{BaseURL: srv.URL, Model: "sql-t5"})
	if _, err := loader(context.Background()); err == nil {
		t.Fatal("expected error when model is not served")
	}

	setModels(`{"data":[{"id":"other"},{"id":"sql-t5"}]}`)
	translator, err := loader(context.Background())
	if err != nil {
		t.Fatalf("loader() error = %v", err)
	}
	if translator == nil {
		t.Fatal("expected translator")
	}

	setModels(`{"data":[]}`)
	if _, err := loader(context.Background()); err != nil {
		t.Fatalf("loader() with empty model list error = %v", err)
	}
}
