// seed inserts test users into the local dev database: one mid-onboarding
// and one with a completed profile.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/yoryor/auth-service/internal/domain"
	"github.com/yoryor/auth-service/internal/infrastructure/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	now := time.Now()

	// User stuck mid-onboarding: verified phone, no profile yet.
	partial, created, err := users.FindOrCreateByPhone(ctx, "+998901110001", now)
	if err != nil {
		log.Fatalf("seed partial user: %v", err)
	}
	log.Printf("partial user %s (created=%v)", partial.ID, created)

	// Fully registered user.
	full, _, err := users.FindOrCreateByPhone(ctx, "+998901110002", now)
	if err != nil {
		log.Fatalf("seed full user: %v", err)
	}

	email := "seed@test.local"
	status := "single"
	looking := true
	country := "UZ"
	city := "Tashkent"
	err = users.CompleteRegistration(ctx, full.ID, domain.RegistrationDetails{
		Email:                  &email,
		FirstName:              "Seed",
		LastName:               "User",
		DateOfBirth:            time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:                 "female",
		Status:                 &status,
		LookingForRelationship: &looking,
		Interests:              []string{"travel", "music", "coffee"},
		CountryCode:            &country,
		City:                   &city,
	})
	if err != nil {
		log.Fatalf("seed full user registration: %v", err)
	}
	log.Printf("registered user %s", full.ID)
}
