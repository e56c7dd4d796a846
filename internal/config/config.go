package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
const defaultLLMTemperature = 0.3

// DefaultExportFiles names the file each export parser reads when the
// config does not say otherwise. Grouped backlog exports have no default.
var DefaultExportFiles = map[string]string{
	"prb":       "prb.txt",
	"bugs":      "bugs.txt",
	"ci":        "ci.txt",
	"leftshift": "leftshift.txt",
	"abs":       "abs.txt",
	"security":  "security.txt",
	"scan":      "ss.txt",
}

type Config struct {
	TeamName string `yaml:"team_name"`
	Timezone string `yaml:"timezone"`

	InputDir string `yaml:"input_dir"`
	// Exports maps a parser name (prb, bugs, ci, ...) to its export file.
	// Relative paths resolve against InputDir.
	Exports               map[string]string `yaml:"exports"`
	CoveragePath          string            `yaml:"coverage_path"`
	RisksPath             string            `yaml:"risks_path"`
	StaggerCSVPath        string            `yaml:"stagger_csv_path"`
	DeploymentSummaryPath string            `yaml:"deployment_summary_path"`
	PRBNotesPath          string            `yaml:"prb_notes_path"`

	SalesforceInstanceURL  string `yaml:"salesforce_instance_url"`
	SalesforceSessionID    string `yaml:"salesforce_session_id"`
	SalesforcePRBReportURL string `yaml:"salesforce_prb_report_url"`
	SalesforceBugReportURL string `yaml:"salesforce_bug_report_url"`

	LLMProvider     string  `yaml:"llm_provider"`
	LLMModel        string  `yaml:"llm_model"`
	LLMMaxTokens    int     `yaml:"llm_max_tokens"`
	LLMTemperature  float64 `yaml:"llm_temperature"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	GatewayURL      string  `yaml:"gateway_url"`
	GatewayAPIKey   string  `yaml:"gateway_api_key"`

	GitRepoPath string `yaml:"git_repo_path"`
	FleetSize   int    `yaml:"fleet_size"`

	DBPath                     string `yaml:"db_path"`
	ReportOutputDir            string `yaml:"report_output_dir"`
	ReportSchedule             string `yaml:"report_schedule"`
	ParseWorkers               int    `yaml:"parse_workers"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	envFile := ".env"
	if p := os.Getenv("ENV_FILE"); p != "" {
		envFile = p
	}
	if err := godotenv.Load(envFile); err == nil {
		log.Printf("Loaded environment from %s", envFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading %s: %v", envFile, err)
	}

	// Zero is a valid temperature, so its default is set before the YAML
	// file and environment are applied rather than filled in afterwards.
	cfg := Config{LLMTemperature: defaultLLMTemperature}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.TeamName, "TEAM_NAME")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.InputDir, "INPUT_DIR")
	envOverride(&cfg.CoveragePath, "COVERAGE_PATH")
	envOverride(&cfg.RisksPath, "RISKS_PATH")
	envOverride(&cfg.StaggerCSVPath, "STAGGER_CSV_PATH")
	envOverride(&cfg.DeploymentSummaryPath, "DEPLOYMENT_SUMMARY_PATH")
	envOverride(&cfg.PRBNotesPath, "PRB_NOTES_PATH")
	envOverride(&cfg.SalesforceInstanceURL, "SALESFORCE_INSTANCE_URL")
	envOverride(&cfg.SalesforceSessionID, "SALESFORCE_SESSION_ID")
	envOverride(&cfg.SalesforcePRBReportURL, "SALESFORCE_PRB_REPORT_URL")
	envOverride(&cfg.SalesforceBugReportURL, "SALESFORCE_BUG_REPORT_URL")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverrideInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	envOverrideFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.GatewayURL, "GATEWAY_URL")
	envOverride(&cfg.GatewayAPIKey, "GATEWAY_API_KEY")
	envOverride(&cfg.GitRepoPath, "GIT_REPO_PATH")
	envOverrideInt(&cfg.FleetSize, "FLEET_SIZE")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.ReportSchedule, "REPORT_SCHEDULE")
	envOverrideInt(&cfg.ParseWorkers, "PARSE_WORKERS")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")

	if cfg.Exports == nil {
		cfg.Exports = make(map[string]string)
	}
	for name, file := range DefaultExportFiles {
		if _, ok := cfg.Exports[name]; !ok {
			cfg.Exports[name] = file
		}
	}
	for name, file := range cfg.Exports {
		envOverride(&file, "EXPORT_"+strings.ToUpper(name))
		cfg.Exports[name] = file
	}

	if cfg.TeamName == "" {
		cfg.TeamName = "SDB"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.InputDir == "" {
		cfg.InputDir = "."
	}
	if cfg.CoveragePath == "" {
		cfg.CoveragePath = "coverage.txt"
	}
	if cfg.RisksPath == "" {
		cfg.RisksPath = "risks.txt"
	}
	if cfg.StaggerCSVPath == "" {
		cfg.StaggerCSVPath = "deployment.csv"
	}
	if cfg.DeploymentSummaryPath == "" {
		cfg.DeploymentSummaryPath = "deployment.txt"
	}
	if cfg.PRBNotesPath == "" {
		cfg.PRBNotesPath = "prb_augmentation.json"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModel(cfg.LLMProvider)
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 1000
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 1 {
		log.Fatalf("llm_temperature must be between 0 and 1, got %g", cfg.LLMTemperature)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./qualityreport.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.ReportSchedule == "" {
		cfg.ReportSchedule = "0 9 * * 1"
	}
	if cfg.ParseWorkers == 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Printf("WARNING: anthropic_api_key is not set. Narratives will be skipped.")
		}
	case "gateway":
		if cfg.GatewayURL == "" {
			log.Fatalf("gateway_url is required when llm_provider=gateway")
		}
		if cfg.GatewayAPIKey == "" {
			log.Printf("WARNING: gateway_api_key is not set. Narratives will be skipped.")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'gateway', got '%s'", cfg.LLMProvider)
	}

	sfFields := map[string]string{
		"salesforce_instance_url": cfg.SalesforceInstanceURL,
		"salesforce_session_id":   cfg.SalesforceSessionID,
	}
	if (cfg.SalesforceInstanceURL == "") != (cfg.SalesforceSessionID == "") {
		for name, val := range sfFields {
			if val == "" {
				log.Fatalf("Partial Salesforce config: '%s' is not set (salesforce_instance_url and salesforce_session_id are required together)", name)
			}
		}
	}
	if cfg.ReportChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("report_channel_id is set but slack_bot_token is not")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.FleetSize < 0 {
		log.Fatalf("invalid fleet_size '%d': must be >= 0", cfg.FleetSize)
	}
	if cfg.LLMMaxTokens < 1 {
		log.Fatalf("invalid llm_max_tokens '%d': must be >= 1", cfg.LLMMaxTokens)
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 1 {
		log.Fatalf("invalid llm_temperature '%f': must be between 0 and 1", cfg.LLMTemperature)
	}
	if cfg.ParseWorkers < 1 {
		log.Fatalf("invalid parse_workers '%d': must be >= 1", cfg.ParseWorkers)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}

	return cfg
}

func defaultModel(provider string) string {
	if provider == "gateway" {
		return "gpt-4o"
	}
	return "claude-sonnet-4-5"
}

// InputPath resolves a configured input file against InputDir.
func (c Config) InputPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.InputDir, path)
}

// ExportPath returns the resolved file for the named export, or "" when the
// export is not configured.
func (c Config) ExportPath(name string) string {
	return c.InputPath(c.Exports[name])
}

func (c Config) SalesforceConfigured() bool {
	return c.SalesforceInstanceURL != "" && c.SalesforceSessionID != ""
}

// NarrationEnabled reports whether the selected LLM provider has credentials.
func (c Config) NarrationEnabled() bool {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "gateway":
		return c.GatewayURL != "" && c.GatewayAPIKey != ""
	}
	return false
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
