package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/screening"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSaveResumeAction(t *testing.T) {
	original := chooseCandidate
	defer func() { chooseCandidate = original }()

	var offered []string
	chooseCandidate = func(ranked []*candidates.Result) (string, error) {
		for _, r := range ranked {
			offered = append(offered, r.File)
		}
		return ranked[0].File, nil
	}

	dir := filepath.Join(t.TempDir(), "out")
	config := &Config{Export: &ExportConfig{Dir: dir}}
	results := candidates.NewResults("run-7")
	results.Append(&candidates.Result{File: "low.pdf", Name: "Sam Roe", Score: 40, Type: candidates.Complete})
	results.Append(&candidates.Result{File: "top.pdf", Name: "Jane Doe", Score: 90, Type: candidates.Complete})
	batch := &screening.Batch{RunID: "run-7", JobDescription: "job", Documents: []screening.Document{
		{Name: "top.pdf", Content: []byte("%PDF-old")},
		{Name: "low.pdf", Content: []byte("%PDF-low")},
		{Name: "top.pdf", Content: []byte("%PDF-top")},
	}}

	if err := handleAction(PromptSaveResume, config, results, batch, zap.NewNop()); err != nil {
		t.Fatalf("save résumé: %v", err)
	}
	if !reflect.DeepEqual(offered, []string{"top.pdf", "low.pdf"}) {
		t.Fatalf("expected candidates offered by rank, got %v", offered)
	}

	data, err := os.ReadFile(filepath.Join(dir, "screening_run-7_top.pdf"))
	if err != nil {
		t.Fatalf("read saved résumé: %v", err)
	}
	if string(data) != "%PDF-top" {
		t.Fatalf("expected the last document named top.pdf, got %q", data)
	}

	if _, err := saveDocument(dir, batch, "ghost.pdf"); err == nil {
		t.Fatalf("expected error for unknown document")
	}
}

func TestReadJob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jobFile := filepath.Join(dir, "job.txt")
	writeFile(t, jobFile, "  Seeking PHP/Laravel developer\n")
	emptyFile := filepath.Join(dir, "empty.txt")
	writeFile(t, emptyFile, " \n")

	tests := []struct {
		name    string
		text    string
		file    string
		want    string
		wantErr bool
	}{
		{name: "inline wins", text: "Go engineer", file: jobFile, want: "Go engineer"},
		{name: "from file", file: jobFile, want: "Seeking PHP/Laravel developer"},
		{name: "nothing", wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "nope.txt"), wantErr: true},
		{name: "empty file", file: emptyFile, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readJob(tt.text, tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("readJob() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestCollectFilesAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pdf"), "%PDF-b")
	writeFile(t, filepath.Join(dir, "a.PDF"), "%PDF-a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip me")
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	explicit := filepath.Join(t.TempDir(), "resume.docx")
	writeFile(t, explicit, "PK")

	files, err := collectFiles([]string{explicit, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{explicit, filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("collectFiles() = %v, want %v", files, want)
	}

	docs, err := loadDocuments(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 || docs[0].Name != "resume.docx" || string(docs[2].Content) != "%PDF-b" {
		t.Fatalf("unexpected documents %+v", docs)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := newProvider(context.Background(), &AIConfig{Provider: "claude"}); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}

	_, err := newProvider(context.Background(), &AIConfig{Provider: "openrouter"})
	if err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("expected missing key error naming the variable, got %v", err)
	}
	if _, err := newProvider(context.Background(), &AIConfig{Provider: "gemini"}); err == nil {
		t.Fatalf("expected missing gemini key error")
	}

	keyFile := filepath.Join(t.TempDir(), "key")
	writeFile(t, keyFile, "sk-test\n")
	provider, err := newProvider(context.Background(), &AIConfig{
		OpenRouter: &OpenRouterConfig{Model: "meta/llama", APIKeyFile: keyFile},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openrouter" || provider.Model() != "meta/llama" {
		t.Fatalf("unexpected provider %s/%s", provider.Name(), provider.Model())
	}
}

func TestGatewayOptions(t *testing.T) {
	t.Parallel()

	opts := gatewayOptions(&AIConfig{
		MaxAttempts:       5,
		BackoffBase:       time.Second,
		Cooldown:          3 * time.Second,
		RequestsPerMinute: 20,
	})
	if opts.Policy.MaxAttempts != 5 || opts.Policy.BaseDelay != time.Second || opts.Policy.MaxDelay != 10*time.Second {
		t.Fatalf("unexpected policy %+v", opts.Policy)
	}
	if opts.Cooldown != 3*time.Second || opts.RequestsPerMinute != 20 {
		t.Fatalf("unexpected options %+v", opts)
	}

	if def := gatewayOptions(nil); def.Policy.MaxAttempts != 3 {
		t.Fatalf("expected default policy, got %+v", def.Policy)
	}
}

func TestNewLookup(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "")

	lookup, err := newLookup(&SearchConfig{Enabled: false}, zap.NewNop())
	if err != nil || lookup != nil {
		t.Fatalf("expected disabled lookup, got %v, %v", lookup, err)
	}

	lookup, err = newLookup(&SearchConfig{Enabled: true, Provider: "duckduckgo", RequestsPerMinute: 30}, zap.NewNop())
	if err != nil || lookup == nil {
		t.Fatalf("expected duckduckgo lookup without key, got %v", err)
	}

	if _, err := newLookup(&SearchConfig{Enabled: true, Provider: "serper"}, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "SERPER_API_KEY") {
		t.Fatalf("expected missing serper key error, got %v", err)
	}

	if _, err := newLookup(&SearchConfig{Enabled: true, Provider: "altavista"}, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}
	if config.Search.RequestsPerMinute != 20 || config.Search.MaxAttempts != 3 {
		t.Fatalf("unexpected search defaults %+v", config.Search)
	}
	if config.AI.OpenRouter.APIURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected openrouter url %q", config.AI.OpenRouter.APIURL)
	}
}

func TestScreeningSettings(t *testing.T) {
	t.Parallel()

	got := screeningSettings(&ScreeningConfig{Workers: 2, MustHave: []string{" PHP ", "", "Laravel"}, JobMaxChars: 100})
	if got.Workers != 2 || got.JobMaxChars != 100 || !reflect.DeepEqual(got.MustHave, []string{"PHP", "Laravel"}) {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestHandleAction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	config := &Config{Export: &ExportConfig{Dir: dir}}
	results := candidates.NewResults("run-1")
	results.Append(&candidates.Result{File: "a.pdf", Name: "Jane Doe", Score: 80, Type: candidates.Complete})
	batch := &screening.Batch{RunID: "run-1", JobDescription: "job"}

	if err := handleAction(PromptExportCSV, config, results, batch, zap.NewNop()); err != nil {
		t.Fatalf("csv export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "screening_run-1.csv")); err != nil {
		t.Fatalf("expected csv file: %v", err)
	}

	if err := handleAction(PromptExportExcel, config, results, batch, zap.NewNop()); err != nil {
		t.Fatalf("excel export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "screening_run-1.xlsx")); err != nil {
		t.Fatalf("expected xlsx file: %v", err)
	}

	if err := handleAction(PromptExit, config, results, batch, zap.NewNop()); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
	if err := handleAction("dance", config, results, batch, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown action")
	}

	for format, action := range exportActions {
		if format == "" || action == "" {
			t.Fatalf("unexpected export mapping %q -> %q", format, action)
		}
	}
}
