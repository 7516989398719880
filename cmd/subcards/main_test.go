package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDictionary = "# CC-CEDICT\n" +
	"喜歡 喜欢 [xi3 huan5] /to like/to be fond of/\n" +
	"蘇打水 苏打水 [su1 da3 shui3] /soda water/\n"

type cliTestEnv struct {
	base       string
	configPath string
	vocabPath  string
	subsDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("DEEPL_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Chdir(base)

	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		vocabPath:  filepath.Join(base, "vocab.tsv"),
		subsDir:    filepath.Join(base, "subs"),
	}
	dictPath := filepath.Join(base, "cedict_ts.u8")
	config := fmt.Sprintf(`[paths]
cache_dir = %q
log_dir = %q

[dictionary]
path = %q
download_url = "http://127.0.0.1:1/unused.txt.gz"

[translation]
enabled = false
`, filepath.Join(base, "cache"), filepath.Join(base, "logs"), dictPath)

	files := map[string]string{
		env.configPath: config,
		dictPath:       testDictionary,
		env.vocabPath: "喜欢\t喜欢[喜歡]\txi3 huan5\n" +
			"苏打水\t苏打水[蘇打水]\tsu1 da3 shui3\n" +
			"苏\t苏[囌]\tSu1\n" +
			"苏\t苏[蘇]\tsu1\n",
		filepath.Join(env.subsDir, "ep01.srt"): "1\n00:00:01,000 --> 00:00:02,000\n我喜欢苏打水\n",
		filepath.Join(env.subsDir, "ep02.srt"): "1\n00:00:01,000 --> 00:00:02,000\n苏先生来了吗\n",
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return env
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Translation: off")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "DEEPL_API_KEY")
}

func TestGenerateWritesCards(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.base, "out", "cards.tsv")

	out, _, err := runCLI(t, env.configPath, "generate", env.vocabPath, env.subsDir, "-o", output)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Cards exported")
	requireContains(t, out, "Wrote "+output)

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus three cards, got %d lines:\n%s", len(lines), data)
	}
	first := strings.Split(lines[1], "\t")
	if first[0] != "我{{c1::喜欢}}苏打水" {
		t.Fatalf("unexpected cloze %q", first[0])
	}
	if first[8] != "to like; to be fond of" {
		t.Fatalf("unexpected definition %q", first[8])
	}
	su := strings.Split(lines[3], "\t")
	if su[2] != "苏" || su[3] != "苏 (蘇/囌)" || su[6] != "yes" || su[9] != "ep01" {
		t.Fatalf("unexpected reconciled entry %v", su)
	}
}

func TestGenerateWarnsWithoutTranslationKey(t *testing.T) {
	env := setupCLITestEnv(t)
	config := strings.Replace(mustRead(t, env.configPath), "enabled = false", "enabled = true", 1)
	if err := os.WriteFile(env.configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	out, stderr, err := runCLI(t, env.configPath, "generate", env.vocabPath, env.subsDir,
		"-o", filepath.Join(env.base, "cards.tsv"), "--no-definitions")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, stderr, "translation disabled")
	requireContains(t, stderr, "DEEPL_API_KEY")
	requireContains(t, out, "skipped")
}

func TestGenerateRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.base, "cards.tsv")

	_, _, err := runCLI(t, env.configPath, "generate", env.vocabPath, env.subsDir, "-o", output, "--min-length", "0")
	if err == nil {
		t.Fatal("expected min-length 0 to fail")
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("expected configuration exit code 2, got %d", code)
	}
	if _, _, err := runCLI(t, env.configPath, "generate", env.vocabPath, env.subsDir, "-o", output, "--provider", "babelfish"); err == nil {
		t.Fatal("expected unknown provider to fail")
	}
	_, _, err = runCLI(t, env.configPath, "generate", filepath.Join(env.base, "missing.tsv"), env.subsDir, "-o", output)
	if err == nil {
		t.Fatal("expected missing vocabulary to fail")
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("expected configuration exit code 2 for missing vocabulary, got %d", code)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("expected no output after failures, stat err %v", err)
	}
}

func TestExitCodeForRuntimeFailure(t *testing.T) {
	if code := exitCode(errors.New("disk full")); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestMergeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.base, "merged.txt")

	out, _, err := runCLI(t, env.configPath, "merge", env.subsDir, target)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "Merged 2 lines from 2 files")
	if got := mustRead(t, target); got != "我喜欢苏打水\n苏先生来了吗\n" {
		t.Fatalf("unexpected merged text %q", got)
	}
	requireContains(t, mustRead(t, filepath.Join(env.base, "merged_with_episodes.txt")), "ep02")
}

func TestVocabCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "vocab", env.vocabPath)
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	requireContains(t, out, "蘇")
	requireContains(t, out, "4 rows, 0 rejected, 3 entries, 1 names")
}

func TestDictLookupCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "dict", "lookup", "喜欢")
	if err != nil {
		t.Fatalf("dict lookup: %v", err)
	}
	requireContains(t, out, "xi3 huan5")
	requireContains(t, out, "to like; to be fond of")

	out, _, err = runCLI(t, env.configPath, "dict", "lookup", "没有")
	if err != nil {
		t.Fatalf("dict lookup miss: %v", err)
	}
	requireContains(t, out, "No entries for 没有")

	out, _, err = runCLI(t, env.configPath, "dict", "fetch")
	if err != nil {
		t.Fatalf("dict fetch: %v", err)
	}
	requireContains(t, out, "already present")
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "No cached translations")

	out, _, err = runCLI(t, env.configPath, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 0 cached translations")
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
