// Package config loads deskbot's configuration from a JSON file with
// environment-variable overrides. Required settings are validated once at
// startup so a misconfigured deployment fails fast instead of per message.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ConfigPath is resolved at init: a deskbot.json in the working directory
// wins, otherwise ~/.deskbot/config.json.
var ConfigPath string

func init() {
	pwd, _ := os.Getwd()
	projectConfig := filepath.Join(pwd, "deskbot.json")
	if _, err := os.Stat(projectConfig); err == nil {
		ConfigPath = projectConfig
	} else {
		homeDir, _ := os.UserHomeDir()
		ConfigPath = filepath.Join(homeDir, ".deskbot", "config.json")
	}
}

// Config is the full deskbot configuration.
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Teams     TeamsConfig     `json:"teams"`
	QuickBase QuickBaseConfig `json:"quickbase"`
	Server    ServerConfig    `json:"server"`
	Notify    NotifyConfig    `json:"notify"`
	Digest    DigestConfig    `json:"digest"`
	KBPath    string          `json:"kbPath,omitempty"`    // optional knowledge-base override file
	StorePath string          `json:"storePath,omitempty"` // sqlite path; defaults next to the config file
}

// LLMConfig configures the language-model providers.
type LLMConfig struct {
	Endpoint string `json:"endpoint"` // OpenAI-compatible base URL
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`

	// Optional fallback provider, used when the primary endpoint fails.
	AnthropicAPIKey  string `json:"anthropicApiKey,omitempty"`
	AnthropicBaseURL string `json:"anthropicBaseUrl,omitempty"`
	AnthropicModel   string `json:"anthropicModel,omitempty"`
}

// TeamsConfig holds Bot Framework credentials.
type TeamsConfig struct {
	AppID      string `json:"appId"`
	AppSecret  string `json:"appSecret"`
	TenantID   string `json:"tenantId"`
	ServiceURL string `json:"serviceUrl,omitempty"` // default service URL for proactive messages
}

// QuickBaseConfig holds the ticket-system connection settings.
type QuickBaseConfig struct {
	Realm         string `json:"realm"`
	UserToken     string `json:"userToken"`
	AppID         string `json:"appId"`
	TableID       string `json:"tableId"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
	BaseURL       string `json:"baseUrl,omitempty"` // override for testing, default api.quickbase.com/v1
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string   `json:"addr,omitempty"`        // default ":8080"
	DebugTokens []string `json:"debugTokens,omitempty"` // bearer tokens for /debug endpoints
}

// NotifyConfig configures IT-channel notifications.
type NotifyConfig struct {
	ITChannelWebhook string `json:"itChannelWebhook,omitempty"` // incoming-webhook URL
	ITChannelID      string `json:"itChannelId,omitempty"`      // Teams channel for bot-posted alerts
	Format           string `json:"format,omitempty"`           // "teams" (default), "slack", or "custom"
	HookScript       string `json:"hookScript,omitempty"`       // script run on ticket events
}

// DigestConfig configures the scheduled stats digest.
type DigestConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Schedule string `json:"schedule,omitempty"` // cron spec, default "0 8 * * *"
}

// Load reads the config file (missing file yields a zero config) and then
// applies environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads only the on-disk config, without environment overrides
// or defaults. Mutate-and-save flows go through this so env-derived
// secrets and synthesized defaults never end up written to disk.
func LoadFile() (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(ConfigPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ConfigPath, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration is fine.
	default:
		return nil, fmt.Errorf("read %s: %w", ConfigPath, err)
	}
	return &cfg, nil
}

// Save writes the config file, creating its directory if needed.
func Save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ConfigPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(ConfigPath, data, 0600)
}

func (c *Config) applyEnv() {
	setIfEnv(&c.LLM.Endpoint, "LLM_ENDPOINT")
	setIfEnv(&c.LLM.APIKey, "LLM_API_KEY")
	setIfEnv(&c.LLM.Model, "LLM_MODEL")
	setIfEnv(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setIfEnv(&c.LLM.AnthropicBaseURL, "ANTHROPIC_BASE_URL")
	setIfEnv(&c.LLM.AnthropicModel, "ANTHROPIC_MODEL")

	setIfEnv(&c.Teams.AppID, "TEAMS_APP_ID")
	setIfEnv(&c.Teams.AppSecret, "TEAMS_APP_SECRET")
	setIfEnv(&c.Teams.TenantID, "TEAMS_TENANT_ID")
	setIfEnv(&c.Teams.ServiceURL, "TEAMS_SERVICE_URL")

	setIfEnv(&c.QuickBase.Realm, "QB_REALM")
	setIfEnv(&c.QuickBase.UserToken, "QB_USER_TOKEN")
	setIfEnv(&c.QuickBase.AppID, "QB_APP_ID")
	setIfEnv(&c.QuickBase.TableID, "QB_TICKETS_TABLE_ID")
	setIfEnv(&c.QuickBase.WebhookSecret, "QB_WEBHOOK_SECRET")
	setIfEnv(&c.QuickBase.BaseURL, "QB_BASE_URL")

	setIfEnv(&c.Server.Addr, "DESKBOT_ADDR")
	setIfEnv(&c.Notify.ITChannelWebhook, "IT_CHANNEL_WEBHOOK")
	setIfEnv(&c.Notify.ITChannelID, "IT_CHANNEL_ID")
	setIfEnv(&c.Notify.HookScript, "DESKBOT_NOTIFY_HOOK")
	setIfEnv(&c.Digest.Schedule, "DESKBOT_DIGEST_SCHEDULE")
	if v := os.Getenv("DESKBOT_DIGEST_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Digest.Enabled = b
		}
	}
	setIfEnv(&c.KBPath, "DESKBOT_KB_PATH")
	setIfEnv(&c.StorePath, "DESKBOT_STORE_PATH")
}

func (c *Config) applyDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Notify.Format == "" {
		c.Notify.Format = "teams"
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 8 * * *"
	}
	if c.StorePath == "" {
		c.StorePath = filepath.Join(filepath.Dir(ConfigPath), "deskbot.db")
	}
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ValidateCore checks the settings the support chain cannot run without.
func (c *Config) ValidateCore() error {
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm endpoint not configured (set LLM_ENDPOINT or llm.endpoint in %s)", ConfigPath)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key not configured (set LLM_API_KEY or llm.apiKey in %s)", ConfigPath)
	}
	return nil
}

// ValidateServe checks everything the full server needs on top of the core.
func (c *Config) ValidateServe() error {
	if err := c.ValidateCore(); err != nil {
		return err
	}
	if c.Teams.AppID == "" || c.Teams.AppSecret == "" || c.Teams.TenantID == "" {
		return fmt.Errorf("teams credentials incomplete (appId/appSecret/tenantId)")
	}
	if c.QuickBase.Realm == "" || c.QuickBase.UserToken == "" || c.QuickBase.TableID == "" {
		return fmt.Errorf("quickbase settings incomplete (realm/userToken/tableId)")
	}
	return nil
}
