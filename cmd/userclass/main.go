package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"engine/internal/adapter/repo"
	"engine/internal/domain"
	"engine/internal/infra"
	"engine/internal/policy"
)

func main() {
	var (
		idFlag        string
		classFlag     string
		trialDaysFlag int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&classFlag, "class", "", "class to assign (core, plus, pro, cohort, admin, disabled, ...)")
	flag.IntVar(&trialDaysFlag, "trial-days", 0, "start a trial of this many days instead of assigning -class")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	class := domain.UserClass(strings.TrimSpace(strings.ToLower(classFlag)))

	if userID == "" {
		exitWithError(errors.New("-id is required"))
	}
	if trialDaysFlag <= 0 && class == "" {
		exitWithError(errors.New("either -class or -trial-days must be provided"))
	}
	if trialDaysFlag > 0 && class != "" && class != domain.UserClassTrial {
		exitWithError(errors.New("-class and -trial-days are mutually exclusive"))
	}
	if class != "" && !class.Valid() {
		exitWithError(fmt.Errorf("unsupported class %q", class))
	}
	if class == domain.UserClassTrial && trialDaysFlag <= 0 {
		exitWithError(errors.New("use -trial-days to start a trial"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "userclass")
	profiles := repo.NewProfileRepository(infra.NewSQLRunner(pool, logger))

	var updated *domain.UserAccount
	if trialDaysFlag > 0 {
		start := time.Now().UTC()
		updated, err = profiles.StartTrial(ctx, userID, start, start.AddDate(0, 0, trialDaysFlag))
	} else {
		updated, err = profiles.SetClass(ctx, userID, class)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("user %s not found", userID))
		}
		exitWithError(fmt.Errorf("failed to update user class: %w", err))
	}

	fmt.Printf("User %s is now %s (%s)\n", updated.ID, updated.UserClass, policy.DisplayName(updated.UserClass))
	if updated.TrialEndsAt != nil {
		fmt.Printf("trial_ends_at=%s\n", updated.TrialEndsAt.UTC().Format(time.RFC3339))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
