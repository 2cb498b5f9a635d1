package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// seed inserts a small demo data set for local development. Running it twice
// is safe: records already present are skipped.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	userID := flag.String("user", "demo", "user to seed transactions for")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	now := time.Now()
	day := func(offset int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day()+offset, 12, 0, 0, 0, time.UTC)
	}

	demo := []core.Transaction{
		{UserID: *userID, Amount: core.Money{Cents: 320000}, Type: core.Income, Category: "Other", Description: "Monthly salary", Date: day(-20)},
		{UserID: *userID, Amount: core.Money{Cents: 8500}, Type: core.Expense, Category: "Food & Dining", Description: "Groceries", Date: day(-6)},
		{UserID: *userID, Amount: core.Money{Cents: 4200}, Type: core.Expense, Category: "Transportation", Description: "Fuel", Date: day(-4)},
		{UserID: *userID, Amount: core.Money{Cents: 12999}, Type: core.Expense, Category: "Shopping", Description: "Headphones", Date: day(-3)},
		{UserID: *userID, Amount: core.Money{Cents: 2500}, Type: core.Expense, Category: "Entertainment", Description: "Cinema", Date: day(-1)},
		{UserID: *userID, Amount: core.Money{Cents: 6000}, Type: core.Expense, Category: "Bills & Utilities", Description: "Internet", Date: day(0)},
		{UserID: *userID, Amount: core.Money{Cents: 15000}, Type: core.Income, Category: "Other", Description: "Freelance invoice", Date: day(0)},
	}

	inserted, err := repo.Seed(context.Background(), demo)
	if err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Seeding complete", "user", *userID, "inserted", inserted, "skipped", len(demo)-inserted)
}
