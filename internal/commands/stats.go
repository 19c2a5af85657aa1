package commands

import (
	"context"
	"fmt"
	"time"

	"deskbot/internal/config"
	"deskbot/internal/output"
	"deskbot/internal/quickbase"
)

// RunStats prints ticket queue statistics.
func RunStats() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	if cfg.QuickBase.Realm == "" || cfg.QuickBase.UserToken == "" || cfg.QuickBase.TableID == "" {
		output.PrintError(fmt.Errorf("quickbase settings incomplete (realm/userToken/tableId)"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := quickbase.NewClient(cfg.QuickBase)
	stats, err := client.Stats(ctx)
	if err != nil {
		output.PrintError(err)
		return
	}

	output.Print(stats, func() {
		fmt.Printf("Open tickets:      %d\n", stats.TotalOpen)
		fmt.Printf("Resolved today:    %d\n", stats.ResolvedToday)
		for _, p := range []string{"Critical", "High", "Medium", "Low"} {
			if n := stats.ByPriority[p]; n > 0 {
				fmt.Printf("  %-8s %d\n", p, n)
			}
		}
	})
}
