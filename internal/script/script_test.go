package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTableLongestMatch(t *testing.T) {
	table := NewTable(map[string]string{
		"头":  "頭",
		"发":  "發",
		"头发": "頭髮",
		"么":  "麼",
	})
	tests := []struct {
		in   string
		want string
	}{
		{"头发", "頭髮"},
		{"头发发", "頭髮發"},
		{"什么头", "什麼頭"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := table.Convert(tt.in); got != tt.want {
			t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadDictionaryFirstCandidate(t *testing.T) {
	table := NewTable(nil)
	input := "# comment\n\n干\t幹 乾 干\n苏\t蘇 囌\n"
	if err := table.ReadDictionary(strings.NewReader(input), true); err != nil {
		t.Fatalf("ReadDictionary: %v", err)
	}
	if table.Len() != 2 || table.Convert("苏干") != "蘇幹" {
		t.Fatalf("unexpected table: len=%d convert=%q", table.Len(), table.Convert("苏干"))
	}
	if err := table.ReadDictionary(strings.NewReader("坏行\n"), true); err == nil {
		t.Fatal("expected error for line without tab")
	}
}

func TestLoadPhrasesOverrideCharacters(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "STCharacters.txt"), "后\t後 后\n面\t麪 面\n")
	write(t, filepath.Join(dir, "STPhrases.txt"), "后面\t後面\n皇后\t皇后\n")

	table, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table.Convert("皇后在后面"); got != "皇后在後面" {
		t.Fatalf("unexpected conversion %q", got)
	}
}

func TestLoadWithoutPhrases(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "STCharacters.txt"), "这\t這\n")
	table, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Convert("这") != "這" {
		t.Fatal("characters dictionary not applied")
	}
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error when STCharacters.txt is missing")
	}
}

func TestNew(t *testing.T) {
	conv, err := New("none", "")
	if err != nil || conv.Convert("苏") != "苏" {
		t.Fatalf("New(none) = %v, %v", conv, err)
	}
	if _, err := New("opencc", ""); err == nil {
		t.Fatal("expected error without dictionary dir")
	}
	if _, err := New("babel", ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
