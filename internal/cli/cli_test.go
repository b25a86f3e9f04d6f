package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/viper"

	"github.com/ppiankov/casewatch/internal/dashboard"
	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/store"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	configureEnv(v)

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Ingest.CaseDelay != 5*time.Second {
		t.Errorf("Expected case delay 5s, got %v", cfg.Ingest.CaseDelay)
	}
	if cfg.Store.Path != "courtlistener_cases.csv" {
		t.Errorf("Expected default store path, got %s", cfg.Store.Path)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CASEWATCH_LLM_MODEL", "gpt-4o")
	t.Setenv("CASEWATCH_INGEST_CASE_DELAY", "250ms")
	t.Setenv("CASEWATCH_INGEST_MAX_PAGES", "7")
	t.Setenv("COURTLISTENER_API_KEY", "cl-token")

	v := viper.New()
	configureEnv(v)
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %s", cfg.LLM.Model)
	}
	if cfg.Ingest.CaseDelay != 250*time.Millisecond {
		t.Errorf("Expected case delay 250ms, got %v", cfg.Ingest.CaseDelay)
	}
	if cfg.Ingest.MaxPages != 7 {
		t.Errorf("Expected max pages 7, got %d", cfg.Ingest.MaxPages)
	}
	if cfg.CourtListener.APIKey != "cl-token" {
		t.Errorf("Expected API key from COURTLISTENER_API_KEY, got %q", cfg.CourtListener.APIKey)
	}
}

func TestDefaultConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casewatch", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}

	v := viper.New()
	v.SetConfigFile(path)
	configureEnv(v)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}
	got, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	want := model.DefaultConfig()
	applyEnvAliases(want, func(string) string { return "" })
	got.CourtListener.APIKey, got.LLM.APIKey = "", ""
	got.ObjectStore.AccessKey, got.ObjectStore.SecretKey = "", ""
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnvAliases(t *testing.T) {
	env := map[string]string{
		"CLAUDE_API_KEY":  "claude-key",
		"OPENAI_API_KEY":  "openai-key",
		"GEMINI_API_KEY":  "gemini-key",
		"OLLAMA_BASE_URL": "http://ollama:11434",
	}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		provider string
		wantKey  string
		wantURL  string
	}{
		{"anthropic", "claude-key", ""},
		{"openai", "openai-key", ""},
		{"gemini", "gemini-key", ""},
		{"ollama", "", "http://ollama:11434"},
	}
	for _, tt := range tests {
		cfg := model.DefaultConfig()
		cfg.LLM.Provider = tt.provider
		applyEnvAliases(cfg, getenv)
		if cfg.LLM.APIKey != tt.wantKey {
			t.Errorf("%s: Expected key %q, got %q", tt.provider, tt.wantKey, cfg.LLM.APIKey)
		}
		if cfg.LLM.BaseURL != tt.wantURL {
			t.Errorf("%s: Expected base URL %q, got %q", tt.provider, tt.wantURL, cfg.LLM.BaseURL)
		}
	}

	// explicit values win
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "configured"
	applyEnvAliases(cfg, getenv)
	if cfg.LLM.APIKey != "configured" {
		t.Errorf("Expected configured key to win, got %q", cfg.LLM.APIKey)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := newLogger(model.LogConfig{Level: "debug", Format: format}, false)
		if err != nil {
			t.Errorf("%s: newLogger failed: %v", format, err)
			continue
		}
		if !logger.Core().Enabled(-1) {
			t.Errorf("%s: Expected debug level enabled", format)
		}
	}

	if _, err := newLogger(model.LogConfig{Level: "loud", Format: "console"}, false); err == nil {
		t.Error("Expected error for invalid level")
	}
	if _, err := newLogger(model.LogConfig{Level: "info", Format: "xml"}, false); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter([]string{"D. Md."}, "2025-01-01", "2025-06-30", "Non-US Citizen")
	if err != nil {
		t.Fatalf("buildFilter failed: %v", err)
	}
	if f.Citizenship != dashboard.CitizenshipNonUS {
		t.Errorf("Expected non-us, got %s", f.Citizenship)
	}
	if f.From.Format(model.DateLayout) != "2025-01-01" || f.To.Format(model.DateLayout) != "2025-06-30" {
		t.Errorf("Unexpected range %s..%s", f.From, f.To)
	}

	if _, err := buildFilter(nil, "01/01/2025", "", "all"); err == nil {
		t.Error("Expected error for malformed date")
	}
	if _, err := buildFilter(nil, "", "", "alien"); err == nil {
		t.Error("Expected error for unknown citizenship")
	}
}

func TestShowConfig_HidesKeys(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.CourtListener.APIKey = "secret-token"
	cfg.LLM.APIKey = "sk-secret"

	var buf bytes.Buffer
	if err := showConfig(&buf, cfg); err != nil {
		t.Fatalf("showConfig failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Errorf("Expected API keys to be hidden:\n%s", out)
	}
	if !strings.Contains(out, "courtlistener: set") {
		t.Errorf("Expected key state in output:\n%s", out)
	}
}

func TestIngest_WithoutLLMKeyStoresBlankRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/api/rest/v4/opinions/") {
			_ = json.NewEncoder(w).Encode(map[string]any{"plain_text": "The petitioner was removed."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"next":  nil,
			"results": []map[string]any{
				{"caseName": "Doe v. Noem", "docketNumber": "1:25-cv-1", "court": "D. Md.", "dateFiled": "2025-04-01",
					"absolute_url": "/opinion/10/doe-v-noem/", "cluster_id": 10, "opinions": []map[string]any{{"id": 100}}},
			},
		})
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	csvFile := filepath.Join(dir, "cases.csv")

	t.Setenv("CASEWATCH_COURTLISTENER_BASE_URL", server.URL)
	t.Setenv("CASEWATCH_COURTLISTENER_PAGE_RATE", "100")
	t.Setenv("CASEWATCH_LLM_PROVIDER", "")
	t.Setenv("CASEWATCH_LLM_API_KEY", "")
	t.Setenv("COURTLISTENER_API_KEY", "cl-token")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("CLAUDE_API_KEY", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ingest", "--config", cfgPath, "--csv", csvFile,
		"--case-delay", "0s", "--max-pages", "1", "--no-cache"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Expected ingest to succeed without an LLM key, got %v", err)
	}

	ds, err := store.Load(csvFile, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("Expected 1 stored row, got %d", ds.Len())
	}
	rec := ds.Records()[0]
	if rec.DocketNumber != "1:25-cv-1" {
		t.Errorf("Expected docket 1:25-cv-1, got %q", rec.DocketNumber)
	}
	if rec.HasAnalysis() {
		t.Errorf("Expected blank analysis fields, got %+v", rec)
	}
	if out.Len() == 0 {
		t.Error("Expected run report on stdout")
	}
}
