package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"deskbot/internal/config"
	"deskbot/internal/output"
	"deskbot/internal/ui"
)

// configKeys are the settings `config set` accepts. Credentials are
// deliberately excluded; those belong in the environment or the file.
var configKeys = []string{
	"server.addr",
	"notify.webhook",
	"notify.channelId",
	"notify.format",
	"notify.hookScript",
	"digest.enabled",
	"digest.schedule",
	"kbPath",
	"storePath",
}

// RunConfigShow prints the resolved configuration with secrets redacted.
func RunConfigShow() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}

	redacted := *cfg
	redacted.LLM.APIKey = redact(redacted.LLM.APIKey)
	redacted.LLM.AnthropicAPIKey = redact(redacted.LLM.AnthropicAPIKey)
	redacted.Teams.AppSecret = redact(redacted.Teams.AppSecret)
	redacted.QuickBase.UserToken = redact(redacted.QuickBase.UserToken)
	redacted.QuickBase.WebhookSecret = redact(redacted.QuickBase.WebhookSecret)
	for i := range redacted.Server.DebugTokens {
		redacted.Server.DebugTokens[i] = redact(redacted.Server.DebugTokens[i])
	}

	output.Print(redacted, func() {
		data, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			output.PrintError(err)
			return
		}
		fmt.Printf("Config file: %s\n\n%s\n", config.ConfigPath, data)
	})
}

// RunConfigSet sets one configuration value and saves the file. The raw
// file is mutated, not the effective config, so env overrides and
// defaults are not persisted as a side effect.
func RunConfigSet(key, value string) {
	cfg, err := config.LoadFile()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		return
	}

	switch key {
	case "server.addr":
		cfg.Server.Addr = value
	case "notify.webhook":
		cfg.Notify.ITChannelWebhook = value
	case "notify.channelId":
		cfg.Notify.ITChannelID = value
	case "notify.format":
		if value != "teams" && value != "slack" && value != "custom" {
			ui.ShowError(fmt.Sprintf("invalid format %q (teams, slack, or custom)", value), nil)
			return
		}
		cfg.Notify.Format = value
	case "notify.hookScript":
		cfg.Notify.HookScript = value
	case "digest.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			ui.ShowError(fmt.Sprintf("invalid boolean %q", value), nil)
			return
		}
		cfg.Digest.Enabled = b
	case "digest.schedule":
		cfg.Digest.Schedule = value
	case "kbPath":
		cfg.KBPath = value
	case "storePath":
		cfg.StorePath = value
	default:
		ui.ShowError(fmt.Sprintf("unknown key %q", key), nil)
		ui.ShowInfo("Valid keys: %v", configKeys)
		return
	}

	if err := config.Save(cfg); err != nil {
		ui.ShowError("Failed to save config", err)
		return
	}
	ui.ShowSuccess("%s = %s", key, value)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***REDACTED***"
}
