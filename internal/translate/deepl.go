package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const deepLTranslatePath = "/v2/translate"

// DeepLConfig captures the DeepL API settings.
type DeepLConfig struct {
	APIKey         string
	BaseURL        string
	SourceLang     string
	TimeoutSeconds int
}

// DeepL translates batches through the DeepL REST API.
type DeepL struct {
	cfg        DeepLConfig
	httpClient *http.Client
	retry      retryPolicy
}

type deepLResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message"`
}

// NewDeepL constructs a DeepL translator. BaseURL must already point at the
// free or pro host.
func NewDeepL(cfg DeepLConfig, opts ...Option) *DeepL {
	o := newClientOptions(cfg.TimeoutSeconds, opts)
	return &DeepL{
		cfg: DeepLConfig{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			SourceLang:     strings.ToUpper(strings.TrimSpace(cfg.SourceLang)),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: o.httpClient,
		retry:      o.retry,
	}
}

// Name identifies the provider in cache rows and logs.
func (d *DeepL) Name() string { return "deepl" }

// Translate sends texts in a single request. DeepL answers in request order.
func (d *DeepL) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if d.cfg.APIKey == "" {
		return nil, errors.New("deepl translate: api key required")
	}
	form := url.Values{}
	for _, text := range texts {
		form.Add("text", text)
	}
	form.Set("target_lang", strings.ToUpper(strings.TrimSpace(targetLang)))
	if d.cfg.SourceLang != "" {
		form.Set("source_lang", d.cfg.SourceLang)
	}

	var out []string
	err := d.retry.do(ctx, "deepl translate", func() error {
		parsed, err := d.sendOnce(ctx, form)
		if err != nil {
			return err
		}
		out = make([]string, len(parsed.Translations))
		for i, item := range parsed.Translations {
			out[i] = item.Text
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DeepL) sendOnce(ctx context.Context, form url.Values) (deepLResponse, error) {
	var parsed deepLResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+deepLTranslatePath, strings.NewReader(form.Encode()))
	if err != nil {
		return parsed, fmt.Errorf("deepl request: new request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return parsed, fmt.Errorf("deepl request: http error (timeout=%s): %w", timeoutOf(d.httpClient), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("deepl request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return parsed, &httpStatusError{
			Service:    "deepl",
			StatusCode: resp.StatusCode,
			Body:       summarizePayloadSnippet(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return parsed, fmt.Errorf("deepl request: decode response: %w", err)
	}
	return parsed, nil
}
