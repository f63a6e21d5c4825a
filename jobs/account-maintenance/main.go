package main

import (
	"log/slog"
	"time"
)

func main() {
	slog.Info("Starting account maintenance job")
	start := time.Now()

	if conf.RunTasks.CleanupExpiredResetTokens {
		cleanupExpiredResetTokens()
	}

	slog.Info("Account maintenance job completed", slog.Duration("duration", time.Since(start)))
}

func cleanupExpiredResetTokens() {
	slog.Debug("Start cleaning up expired reset tokens")

	count, err := userDBService.CleanupExpiredResetTokens()
	if err != nil {
		slog.Error("Error cleaning up expired reset tokens", slog.String("error", err.Error()))
		return
	}

	slog.Info("Clean up expired reset tokens finished", slog.Int("count", int(count)))
}
