package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/database"
	"github.com/ieltsprep/ielts-backend/internal/logger"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/ieltsprep/ielts-backend/internal/service"
)

//go:embed sample_tests.json
var sampleTests []byte

type seedTest struct {
	Test    model.CreateTestRequest `json:"test"`
	Groups  []model.GroupInput      `json:"groups"`
	Publish bool                    `json:"publish"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON file of tests to seed (defaults to the bundled sample)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raw := sampleTests
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
		}
		raw = b
	}
	var seeds []seedTest
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	testRepo := repository.NewTestRepository(pool)
	setRepo := repository.NewQuestionSetRepository(pool)
	testService := service.NewTestService(testRepo, setRepo, rdb, log)

	fmt.Printf("=== Seeding %d Tests ===\n", len(seeds))

	successCount := 0
	for _, seed := range seeds {
		t, err := testService.Create(ctx, seed.Test, "seed")
		if err != nil {
			fmt.Printf("Error creating test %q: %v\n", seed.Test.Title, err)
			continue
		}

		set := model.ReplaceQuestionSetRequest{Groups: seed.Groups}.ToSet(t.ID).Renumbered()
		if err := set.Validate(); err != nil {
			fmt.Printf("Invalid question set for %q: %v\n", t.Title, err)
			continue
		}
		if err := setRepo.ReplaceAll(ctx, set); err != nil {
			fmt.Printf("Error saving question set for %q: %v\n", t.Title, err)
			continue
		}

		if seed.Publish {
			if _, err := testService.Publish(ctx, t.ID); err != nil {
				fmt.Printf("Error publishing %q: %v\n", t.Title, err)
				continue
			}
		}
		successCount++
		fmt.Printf("Seeded %s (%d questions)\n", t.Title, set.QuestionCount())
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d tests.\n", successCount, len(seeds))
}
