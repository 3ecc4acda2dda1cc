package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"eduquiz-service/internal/config"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
	pgstore "eduquiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads the demo quizzes into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo quizzes into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := openBun(cfg.Postgres.URL)
	defer db.Close()
	if err := migrateDB(ctx, db); err != nil {
		return err
	}

	store := pgstore.NewStore(db)
	for _, quiz := range memory.SampleQuizzes() {
		if _, err := store.GetQuiz(ctx, quiz.ID); err == nil {
			log.Printf("quiz %s already present, skipping", quiz.ID)
			continue
		} else if !errors.Is(err, domain.ErrQuizNotFound) {
			return err
		}
		if err := store.CreateQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("seed quiz %s: %w", quiz.ID, err)
		}
		log.Printf("seeded quiz %s (%s)", quiz.ID, quiz.Code)
	}
	return nil
}
