package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"deskbot/internal/config"
	"deskbot/internal/llm"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
	"deskbot/internal/teams"
	"deskbot/internal/ui"
)

// RunDoctor performs diagnostic checks on the deployment.
func RunDoctor() {
	ui.ShowHeader("Running Diagnostics")
	fmt.Println()

	passCount := 0
	failCount := 0
	warnCount := 0

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// 1. Configuration file
	fmt.Println("1. Checking configuration...")
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		failCount++
		fmt.Println()
		summarize(passCount, failCount, warnCount)
		return
	}
	ui.ShowSuccess("Config loaded: %s", config.ConfigPath)
	passCount++

	configDir := filepath.Dir(config.ConfigPath)
	if ui.CanWriteTo(configDir) {
		ui.ShowSuccess("Config directory writable: %s", configDir)
		passCount++
	} else {
		ui.ShowWarning("Config directory not writable: %s", configDir)
		warnCount++
	}
	fmt.Println()

	// 2. Model providers
	fmt.Println("2. Checking model providers...")
	if err := cfg.ValidateCore(); err != nil {
		ui.ShowError("Provider configuration", err)
		failCount++
	} else {
		provider, err := buildProvider(cfg)
		if err != nil {
			ui.ShowError("Failed to build provider", err)
			failCount++
		} else {
			ui.ShowInfo("Testing %s...", provider.Name())
			_, err := provider.Complete(ctx, llm.Request{
				System:    "Reply with the single word: ok",
				User:      "ping",
				MaxTokens: 8,
			})
			if err != nil {
				ui.ShowError("Model call failed", err)
				failCount++
			} else {
				ui.ShowSuccess("Model responding")
				passCount++
			}
		}
	}
	fmt.Println()

	// 3. Teams credentials
	fmt.Println("3. Checking Teams credentials...")
	if cfg.Teams.AppID == "" || cfg.Teams.AppSecret == "" || cfg.Teams.TenantID == "" {
		ui.ShowWarning("Teams credentials not configured (serve mode needs them)")
		warnCount++
	} else {
		if err := teams.NewClient(cfg.Teams).CheckAuth(ctx); err != nil {
			ui.ShowError("Bot Framework token fetch failed", err)
			failCount++
		} else {
			ui.ShowSuccess("Bot Framework token acquired")
			passCount++
		}
	}
	fmt.Println()

	// 4. Ticket system
	fmt.Println("4. Checking ticket system...")
	if cfg.QuickBase.Realm == "" || cfg.QuickBase.UserToken == "" || cfg.QuickBase.TableID == "" {
		ui.ShowWarning("QuickBase settings not configured (serve mode needs them)")
		warnCount++
	} else {
		stats, err := quickbase.NewClient(cfg.QuickBase).Stats(ctx)
		if err != nil {
			ui.ShowError("Ticket system query failed", err)
			failCount++
		} else {
			ui.ShowSuccess("Ticket system reachable (%d open tickets)", stats.TotalOpen)
			passCount++
		}
	}
	fmt.Println()

	// 5. Local storage
	fmt.Println("5. Checking local storage...")
	history, err := store.Open(cfg.StorePath)
	if err != nil {
		ui.ShowError("Failed to open store", err)
		ui.ShowInfo("Path: %s", cfg.StorePath)
		failCount++
	} else {
		history.Close()
		ui.ShowSuccess("Store OK: %s", cfg.StorePath)
		passCount++
	}
	fmt.Println()

	// 6. Knowledge base
	fmt.Println("6. Checking knowledge base...")
	knowledge, err := buildKnowledge(cfg)
	if err != nil {
		ui.ShowError("Failed to load knowledge base", err)
		failCount++
	} else {
		ui.ShowSuccess("%d knowledge base entries", knowledge.Len())
		passCount++
	}
	fmt.Println()

	summarize(passCount, failCount, warnCount)
}

func summarize(passCount, failCount, warnCount int) {
	ui.ShowHeader("Diagnostic Summary")
	fmt.Printf("  ✓ Passed: %d\n", passCount)
	if warnCount > 0 {
		fmt.Printf("  ! Warnings: %d\n", warnCount)
	}
	if failCount > 0 {
		fmt.Printf("  ✗ Failed: %d\n", failCount)
	}
	fmt.Println()

	if failCount > 0 {
		ui.ShowError("Deployment has critical issues", nil)
		os.Exit(1)
	} else if warnCount > 0 {
		ui.ShowWarning("Deployment has non-critical warnings")
	} else {
		ui.ShowSuccess("All checks passed!")
	}
}
