package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

type Config struct {
	IssuesPath       string   `yaml:"issues_path"`
	DiscussionsPath  string   `yaml:"discussions_path"`
	PullRequestsPath string   `yaml:"pull_requests_path"`
	ResolvedStates   []string `yaml:"resolved_states"`

	ReportName           string `yaml:"report_name"`
	ReportOutputDir      string `yaml:"report_output_dir"`
	SamplePromptMaxChars int    `yaml:"sample_prompt_max_chars"`

	DBPath string `yaml:"db_path"`

	LLMSummaryEnabled bool   `yaml:"llm_summary_enabled"`
	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	RefreshSchedule            string `yaml:"refresh_schedule"`
	Timezone                   string `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	var cfg Config

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

	envOverride(&cfg.IssuesPath, "ISSUES_PATH")
	envOverride(&cfg.DiscussionsPath, "DISCUSSIONS_PATH")
	envOverrideAllowEmpty(&cfg.PullRequestsPath, "PULL_REQUESTS_PATH")
	envOverrideList(&cfg.ResolvedStates, "RESOLVED_STATES")
	envOverride(&cfg.ReportName, "REPORT_NAME")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverrideInt(&cfg.SamplePromptMaxChars, "SAMPLE_PROMPT_MAX_CHARS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideBool(&cfg.LLMSummaryEnabled, "LLM_SUMMARY_ENABLED")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.RefreshSchedule, "REFRESH_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if cfg.IssuesPath == "" {
		cfg.IssuesPath = "./snapshot/20230831_061759_issue_sharings.json"
	}
	if cfg.DiscussionsPath == "" {
		cfg.DiscussionsPath = "./snapshot/20230831_061926_discussion_sharings.json"
	}
	if len(cfg.ResolvedStates) == 0 {
		cfg.ResolvedStates = []string{"CLOSED"}
	}
	if cfg.ReportName == "" {
		cfg.ReportName = "DevGPT"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.SamplePromptMaxChars == 0 {
		cfg.SamplePromptMaxChars = 140
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./devgptstats.db"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	for i, s := range cfg.ResolvedStates {
		cfg.ResolvedStates[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	if cfg.LLMSummaryEnabled {
		switch cfg.LLMProvider {
		case "anthropic":
			if cfg.AnthropicAPIKey == "" {
				log.Fatalf("anthropic_api_key is required when llm_summary_enabled and llm_provider=anthropic")
			}
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				log.Fatalf("openai_api_key is required when llm_summary_enabled and llm_provider=openai")
			}
		default:
			log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
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

	if cfg.SamplePromptMaxChars < 20 {
		log.Fatalf("invalid sample_prompt_max_chars '%d': must be >= 20", cfg.SamplePromptMaxChars)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.RefreshSchedule != "" {
		if err := validateSchedule(cfg.RefreshSchedule); err != nil {
			log.Fatalf("invalid refresh_schedule '%s': %v", cfg.RefreshSchedule, err)
		}
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
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

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideList(field *[]string, envKey string) {
	val := os.Getenv(envKey)
	if val == "" {
		return
	}
	*field = nil
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*field = append(*field, part)
		}
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func (c Config) PullRequestsConfigured() bool {
	return strings.TrimSpace(c.PullRequestsPath) != ""
}

// ScheduleParser accepts standard 5-field cron expressions
// (minute hour day-of-month month day-of-week).
var ScheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func validateSchedule(s string) error {
	if _, err := ScheduleParser.Parse(s); err != nil {
		return fmt.Errorf("parse cron: %w", err)
	}
	return nil
}
