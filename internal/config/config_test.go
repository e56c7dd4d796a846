package config

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("unexpected provider: %q", cfg.LLMProvider)
	}
	if cfg.DBPath != "./qualityreport.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.LLMMaxTokens != 1000 || cfg.LLMTemperature != 0.3 {
		t.Fatalf("unexpected llm defaults: max_tokens=%d temperature=%f", cfg.LLMMaxTokens, cfg.LLMTemperature)
	}
	if cfg.ReportSchedule != "0 9 * * 1" {
		t.Fatalf("unexpected schedule default: %q", cfg.ReportSchedule)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if got := cfg.ExportPath("scan"); got != "ss.txt" {
		t.Fatalf("unexpected scan export path: %q", got)
	}
	if got := cfg.ExportPath("ci_backlog"); got != "" {
		t.Fatalf("backlog exports must not have a default, got %q", got)
	}
	if !cfg.NarrationEnabled() {
		t.Fatal("expected narration to be enabled with an anthropic key")
	}
	if cfg.SalesforceConfigured() || cfg.SlackConfigured() {
		t.Fatal("expected salesforce and slack to be unconfigured")
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
team_name: "YAML Team"
timezone: "America/Los_Angeles"
input_dir: "/data/exports"
exports:
  prb: "incidents.txt"
  ci_backlog: "/abs/ci_grouped.txt"
llm_provider: "gateway"
gateway_url: "https://gateway.example.com/v1/chat/completions"
gateway_api_key: "yaml-key"
db_path: "/tmp/yaml.db"
report_output_dir: "/tmp/yaml-reports"
external_http_timeout_seconds: 75
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("TEAM_NAME", "Env Team")
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("EXPORT_BUGS", "active_bugs.txt")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")

	cfg := LoadConfig()

	if cfg.TeamName != "Env Team" {
		t.Fatalf("expected team name from env override, got %q", cfg.TeamName)
	}
	if cfg.LLMProvider != "gateway" || cfg.LLMModel != "gpt-4o" {
		t.Fatalf("unexpected llm settings: provider=%q model=%q", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected db path from env override, got %q", cfg.DBPath)
	}
	if cfg.ReportOutputDir != "/tmp/yaml-reports" {
		t.Fatalf("expected report output dir from yaml, got %q", cfg.ReportOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if got := cfg.ExportPath("prb"); got != filepath.Join("/data/exports", "incidents.txt") {
		t.Fatalf("unexpected prb path: %q", got)
	}
	if got := cfg.ExportPath("bugs"); got != filepath.Join("/data/exports", "active_bugs.txt") {
		t.Fatalf("unexpected bugs path: %q", got)
	}
	if got := cfg.ExportPath("ci_backlog"); got != "/abs/ci_grouped.txt" {
		t.Fatalf("absolute export path must be kept, got %q", got)
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("QR_DOTENV_TEAM=DotEnv Team\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing-config.yaml"))
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Cleanup(func() { _ = os.Unsetenv("QR_DOTENV_TEAM") })

	cfg := LoadConfig()

	if got := os.Getenv("QR_DOTENV_TEAM"); got != "DotEnv Team" {
		t.Fatalf("expected .env value to be exported, got %q", got)
	}
	if cfg.NarrationEnabled() {
		t.Fatal("narration must be disabled without an api key")
	}
}

func TestLoadConfigKeepsExplicitZeroTemperature(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("llm_temperature: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()
	if cfg.LLMTemperature != 0 {
		t.Fatalf("explicit zero temperature must be kept, got %f", cfg.LLMTemperature)
	}

	t.Setenv("LLM_TEMPERATURE", "0.7")
	cfg = LoadConfig()
	if cfg.LLMTemperature != 0.7 {
		t.Fatalf("expected env temperature, got %f", cfg.LLMTemperature)
	}
}

func TestLoadConfigTemperatureOutOfRangeFatal(t *testing.T) {
	if os.Getenv("TEST_TEMPERATURE_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("ENV_FILE", filepath.Join(os.TempDir(), "no.env"))
		_ = os.Setenv("LLM_PROVIDER", "anthropic")
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("LLM_TEMPERATURE", "1.5")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigTemperatureOutOfRangeFatal")
	cmd.Env = append(os.Environ(), "TEST_TEMPERATURE_FATAL=1")
	var exitErr *exec.ExitError
	if err := cmd.Run(); !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("QR_TEST_STR", "value")
	envOverride(&s, "QR_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("QR_TEST_INT", "42")
	envOverrideInt(&i, "QR_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	f := 0.1
	t.Setenv("QR_TEST_FLOAT", "0.75")
	envOverrideFloat(&f, "QR_TEST_FLOAT")
	if f != 0.75 {
		t.Fatalf("envOverrideFloat failed, got %f", f)
	}
}

func TestLoadConfigInvalidTimezoneFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_TZ_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("ENV_FILE", filepath.Join(os.TempDir(), "no.env"))
		_ = os.Setenv("LLM_PROVIDER", "anthropic")
		_ = os.Setenv("TIMEZONE", "Mars/Colony")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidTimezoneFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_TZ_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigUnknownProviderFatal(t *testing.T) {
	if os.Getenv("TEST_UNKNOWN_PROVIDER_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("ENV_FILE", filepath.Join(os.TempDir(), "no.env"))
		_ = os.Setenv("LLM_PROVIDER", "openai")
		_ = os.Setenv("TIMEZONE", "UTC")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigUnknownProviderFatal")
	cmd.Env = append(os.Environ(), "TEST_UNKNOWN_PROVIDER_FATAL=1")
	var exitErr *exec.ExitError
	if err := cmd.Run(); !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
