package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"subcards/internal/config"
	"subcards/internal/enrich"
	"subcards/internal/services"
	"subcards/internal/transcache"
)

func noSleep() []Option {
	return []Option{WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {})}
}

func chatPayload(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func TestDeepLTranslateSendsFormAndKeepsOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key secret:fx" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm["text"]; !slices.Equal(got, []string{"你好", "再见"}) {
			t.Errorf("unexpected texts %v", got)
		}
		if r.PostForm.Get("target_lang") != "EN-US" || r.PostForm.Get("source_lang") != "ZH" {
			t.Errorf("unexpected langs %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"translations": []any{
				map[string]any{"detected_source_language": "ZH", "text": "Hello"},
				map[string]any{"detected_source_language": "ZH", "text": "Goodbye"},
			},
		})
	}))
	defer server.Close()

	d := NewDeepL(DeepLConfig{APIKey: "secret:fx", BaseURL: server.URL + "/", SourceLang: "zh"})
	got, err := d.Translate(context.Background(), []string{"你好", "再见"}, "en-us")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !slices.Equal(got, []string{"Hello", "Goodbye"}) {
		t.Fatalf("unexpected translations %v", got)
	}
}

func TestDeepLRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"translations": []any{map[string]any{"text": "ok"}},
		})
	}))
	defer server.Close()

	var slept []time.Duration
	d := NewDeepL(
		DeepLConfig{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
	)
	got, err := d.Translate(context.Background(), []string{"好"}, "EN-US")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Fatalf("unexpected translations %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected single sleep of 2s, got %v", slept)
	}
}

func TestDeepLDoesNotRetryAuthFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Wrong endpoint"}`))
	}))
	defer server.Close()

	d := NewDeepL(DeepLConfig{APIKey: "k", BaseURL: server.URL}, noSleep()...)
	_, err := d.Translate(context.Background(), []string{"好"}, "EN-US")
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDeepLRequiresKey(t *testing.T) {
	d := NewDeepL(DeepLConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := d.Translate(context.Background(), []string{"好"}, "EN-US"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestLLMTranslateCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, `"texts":["一","二"]`) {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if user := req.Messages[len(req.Messages)-1].Content; !strings.Contains(user, `"source_lang":"Chinese","target_lang":"English (US)"`) {
			t.Errorf("expected language names in prompt, got %s", user)
		}
		_ = json.NewEncoder(w).Encode(chatPayload("```json\n{\"translations\":[\" one \",\"two\"]}\n```"))
	}))
	defer server.Close()

	tr := NewLLM(NewChatClient(ChatConfig{APIKey: "test", BaseURL: server.URL, Model: "demo"}), "ZH")
	got, err := tr.Translate(context.Background(), []string{"一", "二"}, "EN-US")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !slices.Equal(got, []string{"one", "two"}) {
		t.Fatalf("unexpected translations %v", got)
	}
}

func TestLLMTranslateLengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatPayload(`{"translations":["only one"]}`))
	}))
	defer server.Close()

	tr := NewLLM(NewChatClient(ChatConfig{APIKey: "test", BaseURL: server.URL}), "")
	_, err := tr.Translate(context.Background(), []string{"一", "二"}, "EN-US")
	var mismatch *enrich.MismatchError
	if !errors.As(err, &mismatch) || mismatch.Want != 2 || mismatch.Got != 1 {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestChatRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"ok":true}`
		}
		_ = json.NewEncoder(w).Encode(chatPayload(content))
	}))
	defer server.Close()

	client := NewChatClient(ChatConfig{APIKey: "test", BaseURL: server.URL}, noSleep()...)
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestChatEmptyContentErrorHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatPayload(""))
	}))
	defer server.Close()

	client := NewChatClient(ChatConfig{APIKey: "test", BaseURL: server.URL}, append(noSleep(), WithRetryMaxAttempts(2))...)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected empty content failure")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("expected attempts in error, got %v", err)
	}
}

func TestChatToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type":     "function",
								"function": map[string]any{"name": "t", "arguments": `{"translations":["a"]}`},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	tr := NewLLM(NewChatClient(ChatConfig{APIKey: "test", BaseURL: server.URL}), "")
	got, err := tr.Translate(context.Background(), []string{"甲"}, "EN")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !slices.Equal(got, []string{"a"}) {
		t.Fatalf("unexpected translations %v", got)
	}
}

func TestChatStopsRetryingOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	client := NewChatClient(
		ChatConfig{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) {
			calls++
			cancel()
		}),
	)
	_, err := client.CompleteJSON(ctx, "system", "user")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one sleep before cancellation, got %d", calls)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{name: "plain", content: `{"translations":["a"]}`, want: []string{"a"}},
		{name: "fenced", content: "```json\n{\"translations\":[\"b\"]}\n```", want: []string{"b"}},
		{name: "prose wrapped", content: `Sure! {"translations":["c"]} Hope that helps.`, want: []string{"c"}},
		{name: "empty", content: "   ", wantErr: true},
		{name: "garbage", content: "no json here", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got llmResponse
			err := DecodeLLMJSON(tt.content, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeLLMJSON returned error: %v", err)
			}
			if !slices.Equal(got.Translations, tt.want) {
				t.Fatalf("got %v, want %v", got.Translations, tt.want)
			}
		})
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	p := retryPolicy{maxAttempts: 5, baseDelay: time.Second, maxDelay: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.backoffDelay(i + 1); got != w {
			t.Fatalf("attempt %d: got %s, want %s", i+1, got, w)
		}
	}
}

type stubBackend struct {
	calls [][]string
	fail  error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Translate(_ context.Context, texts []string, _ string) ([]string, error) {
	s.calls = append(s.calls, slices.Clone(texts))
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "T(" + text + ")"
	}
	return out, nil
}

func openStore(t *testing.T) *transcache.Store {
	t.Helper()
	store, err := transcache.Open(context.Background(), filepath.Join(t.TempDir(), "translations.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCachedSendsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	backend := &stubBackend{}
	cached := NewCached(backend, store, nil)

	got, err := cached.Translate(ctx, []string{"甲", "乙", "甲"}, "EN-US")
	if err != nil {
		t.Fatalf("first Translate: %v", err)
	}
	if !slices.Equal(got, []string{"T(甲)", "T(乙)", "T(甲)"}) {
		t.Fatalf("unexpected first result %v", got)
	}
	if len(backend.calls) != 1 || !slices.Equal(backend.calls[0], []string{"甲", "乙"}) {
		t.Fatalf("expected deduplicated misses, got %v", backend.calls)
	}

	got, err = cached.Translate(ctx, []string{"丙", "乙"}, "en-us")
	if err != nil {
		t.Fatalf("second Translate: %v", err)
	}
	if !slices.Equal(got, []string{"T(丙)", "T(乙)"}) {
		t.Fatalf("unexpected second result %v", got)
	}
	if len(backend.calls) != 2 || !slices.Equal(backend.calls[1], []string{"丙"}) {
		t.Fatalf("expected only the miss to be sent, got %v", backend.calls)
	}

	if _, err := cached.Translate(ctx, []string{"甲", "乙", "丙"}, "EN-US"); err != nil {
		t.Fatalf("third Translate: %v", err)
	}
	if len(backend.calls) != 2 {
		t.Fatalf("expected fully cached batch, got %d backend calls", len(backend.calls))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected 3 cached rows, got %d", stats.Total)
	}
}

func TestCachedPropagatesBackendError(t *testing.T) {
	store := openStore(t)
	boom := errors.New("quota exceeded")
	cached := NewCached(&stubBackend{fail: boom}, store, nil)
	if _, err := cached.Translate(context.Background(), []string{"甲"}, "EN-US"); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected nothing cached after failure, got %d", stats.Total)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.DeepL.APIKey = "k"
	cfg.DeepL.BaseURL = "https://api.deepl.com"
	cfg.LLM.APIKey = "k"

	tests := []struct {
		name     string
		provider string
		cache    bool
		wantType string
	}{
		{name: "deepl", provider: config.ProviderDeepL, wantType: "*translate.DeepL"},
		{name: "llm", provider: config.ProviderLLM, wantType: "*translate.LLM"},
		{name: "cached", provider: config.ProviderLLM, cache: true, wantType: "*translate.Cached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Translation.Provider = tt.provider
			var store *transcache.Store
			if tt.cache {
				store = openStore(t)
			}
			backend, err := New(&c, store, nil)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if got := typeName(backend); got != tt.wantType {
				t.Fatalf("got %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestNewRejectsUnreadyConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.Provider = config.ProviderDeepL
	cfg.DeepL.APIKey = ""
	_, err := New(&cfg, nil, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "DEEPL_API_KEY") {
		t.Fatalf("expected hint about env var, got %v", err)
	}

	cfg.DeepL.APIKey = "k"
	cfg.Translation.Provider = "babelfish"
	if _, err := New(&cfg, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown provider, got %v", err)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *DeepL:
		return "*translate.DeepL"
	case *LLM:
		return "*translate.LLM"
	case *Cached:
		return "*translate.Cached"
	default:
		return "unknown"
	}
}
