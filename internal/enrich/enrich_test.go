package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"subcards/internal/corpus"
	"subcards/internal/vocab"
)

type stubDictionary struct {
	entries map[string][]Definition
	err     error
}

func (d stubDictionary) Lookup(headword, _ string) ([]Definition, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.entries[headword], nil
}

type recordingTranslator struct {
	calls  [][]string
	failOn int
	short  int
}

func (r *recordingTranslator) Translate(_ context.Context, texts []string, lang string) ([]string, error) {
	r.calls = append(r.calls, append([]string(nil), texts...))
	call := len(r.calls)
	if call == r.failOn {
		return nil, errors.New("quota exceeded")
	}
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		out = append(out, lang+":"+text)
	}
	if call == r.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func setWithExamples(n int, withExample func(i int) bool) *vocab.Set {
	r := vocab.NewReconciler(nil, nil)
	for i := range n {
		r.Add(vocab.Observation{Headword: fmt.Sprintf("w%03d", i)})
	}
	set := r.Finish()
	for i, entry := range set.Entries() {
		if withExample(i) {
			entry.SetExample(corpus.SourceLine{Text: fmt.Sprintf("sentence %d", i), Unit: "ep1", Ordinal: i + 1})
		}
	}
	return set
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestAttachTranslationsBatchesAndSurvivesFailedBatch(t *testing.T) {
	set := setWithExamples(120, func(int) bool { return true })
	tr := &recordingTranslator{failOn: 2}
	var sleeps []time.Duration

	stats, err := AttachTranslations(context.Background(), set, tr, TranslationOptions{
		TargetLang: "EN-US",
		BatchSize:  50,
		Delay:      500 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("AttachTranslations: %v", err)
	}
	if len(tr.calls) != 3 {
		t.Fatalf("expected 3 translator calls, got %d", len(tr.calls))
	}
	for i, want := range []int{50, 50, 20} {
		if got := len(tr.calls[i]); got != want {
			t.Fatalf("call %d size = %d, want %d", i+1, got, want)
		}
	}
	if len(sleeps) != 2 || sleeps[0] != 500*time.Millisecond {
		t.Fatalf("expected a fixed delay between batches, got %v", sleeps)
	}
	for i, entry := range set.Entries() {
		failed := i >= 50 && i < 100
		if failed && entry.TranslatedExample != "" {
			t.Fatalf("entry %d in failed batch was translated: %q", i, entry.TranslatedExample)
		}
		if !failed && entry.TranslatedExample != "EN-US:"+entry.Example.Text {
			t.Fatalf("entry %d translation = %q", i, entry.TranslatedExample)
		}
	}
	if stats != (TranslationStats{Pending: 120, Batches: 3, Failed: 1, Translated: 70}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAttachTranslationsSkipsEntriesWithoutExample(t *testing.T) {
	set := setWithExamples(6, func(i int) bool { return i%2 == 0 })
	tr := &recordingTranslator{}
	if _, err := AttachTranslations(context.Background(), set, tr, TranslationOptions{TargetLang: "DE", BatchSize: 2, Sleep: noSleep}); err != nil {
		t.Fatalf("AttachTranslations: %v", err)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(tr.calls))
	}
	if strings.Join(tr.calls[0], "|") != "sentence 0|sentence 2" {
		t.Fatalf("unexpected first batch %v", tr.calls[0])
	}
	for i, entry := range set.Entries() {
		if i%2 == 1 && entry.TranslatedExample != "" {
			t.Fatalf("entry without example translated: %+v", entry)
		}
	}
}

func TestAttachTranslationsLengthMismatchLeavesBatchEmpty(t *testing.T) {
	set := setWithExamples(4, func(int) bool { return true })
	tr := &recordingTranslator{short: 1}
	stats, err := AttachTranslations(context.Background(), set, tr, TranslationOptions{BatchSize: 2, Sleep: noSleep})
	if err != nil {
		t.Fatalf("AttachTranslations: %v", err)
	}
	entries := set.Entries()
	if entries[0].TranslatedExample != "" || entries[1].TranslatedExample != "" {
		t.Fatal("mismatched batch must stay empty")
	}
	if entries[2].TranslatedExample == "" || entries[3].TranslatedExample == "" {
		t.Fatal("later batch should still be translated")
	}
	if stats.Failed != 1 || stats.Translated != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAttachTranslationsCancellationKeepsProgress(t *testing.T) {
	set := setWithExamples(4, func(int) bool { return true })
	ctx, cancel := context.WithCancel(context.Background())
	tr := &recordingTranslator{}
	_, err := AttachTranslations(ctx, set, tr, TranslationOptions{
		BatchSize: 2,
		Delay:     time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(tr.calls) != 1 {
		t.Fatalf("expected one call before cancellation, got %d", len(tr.calls))
	}
	if set.Entries()[0].TranslatedExample == "" {
		t.Fatal("first batch translations must be retained")
	}
}

func TestAttachDefinitionsFiltersByPronunciation(t *testing.T) {
	r := vocab.NewReconciler(nil, nil)
	r.Add(vocab.Observation{Headword: "长", Pronunciation: "zhang3"})
	r.Add(vocab.Observation{Headword: "行", Pronunciation: "xing2"})
	r.Add(vocab.Observation{Headword: "了", Pronunciation: ""})
	r.Add(vocab.Observation{Headword: "无", Pronunciation: "wu2"})
	set := r.Finish()

	dict := stubDictionary{entries: map[string][]Definition{
		"长": {
			{Pronunciation: "chang2", Text: "long"},
			{Pronunciation: "zhang3", Text: "chief"},
			{Pronunciation: "Zhang3", Text: "surname Zhang"},
		},
		"行": {
			{Pronunciation: "hang2", Text: "row"},
		},
		"了": {
			{Pronunciation: "le5", Text: "completed action marker"},
			{Pronunciation: "liao3", Text: "to finish"},
		},
	}}
	stats, err := AttachDefinitions(context.Background(), set, dict, DefinitionOptions{})
	if err != nil {
		t.Fatalf("AttachDefinitions: %v", err)
	}
	tests := map[string]string{
		"长": "chief<br>surname Zhang",
		"行": "row",
		"了": "completed action marker<br>to finish",
		"无": "",
	}
	for headword, want := range tests {
		entry, _ := set.Get(headword)
		if entry.Definition != want {
			t.Errorf("definition for %s = %q, want %q", headword, entry.Definition, want)
		}
	}
	if stats != (DefinitionStats{Entries: 4, Found: 3}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAttachDefinitionsLookupErrorLeavesFieldEmpty(t *testing.T) {
	set := setWithExamples(2, func(int) bool { return false })
	stats, err := AttachDefinitions(context.Background(), set, stubDictionary{err: errors.New("corrupt")}, DefinitionOptions{Separator: " | "})
	if err != nil {
		t.Fatalf("AttachDefinitions: %v", err)
	}
	if stats.Failed != 2 {
		t.Fatalf("expected 2 failures, got %+v", stats)
	}
	for _, entry := range set.Entries() {
		if entry.Definition != "" {
			t.Fatalf("unexpected definition %q", entry.Definition)
		}
	}
}

func TestFilterByPronunciationContainment(t *testing.T) {
	results := []Definition{
		{Pronunciation: "ni3 hao3", Text: "hello"},
		{Pronunciation: "hao3", Text: "good"},
	}
	got := FilterByPronunciation(results, "Hao3")
	if len(got) != 2 {
		t.Fatalf("expected containment in either direction, got %+v", got)
	}
	got = FilterByPronunciation(results, "ni3hao3")
	if len(got) != 2 || got[0].Text != "hello" {
		t.Fatalf("unexpected filter result %+v", got)
	}
}
