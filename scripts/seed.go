package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicleads/internal/adapters/database"
	"github.com/zatekoja/clinicleads/internal/adapters/seed"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
	"github.com/zatekoja/clinicleads/pkg/config"
)

// Applies the schema and loads doctor profiles into PostgreSQL.
// Usage: go run ./scripts/seed.go [doctors.yaml]
func main() {
	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("clinic-leads-seed", cfg.Env)

	path := "config/doctors.example.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	if err := database.EnsureSchema(ctx, pgClient.DB(), "postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	profiles, err := seed.LoadDoctors(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("failed to load doctors")
	}

	doctors := database.NewDoctorAdapterWithDB(pgClient.DB(), "postgres")
	for _, profile := range profiles {
		if err := doctors.Save(ctx, profile); err != nil {
			log.Fatal().Err(err).Str("doctor_id", profile.ID).Msg("failed to save doctor")
		}
		log.Info().Str("doctor_id", profile.ID).Str("name", profile.Name).Msg("seeded doctor")
	}

	log.Info().Int("count", len(profiles)).Msg("seeding complete")
}
