package main

import (
	"context"
	"errors"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type seedUser struct {
	req  types.RegisterRequest
	role models.UserRole
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seeded accounts share one password, overridable for shared environments.
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "testpassword123"
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, nil)
	ctx := context.Background()

	created := 0
	for _, u := range testUsers(password) {
		user, err := auth.CreateUser(ctx, &u.req, u.role)
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			logging.Info().Str("email", u.req.Email).Msg("user already exists, skipping")
			continue
		}
		if err != nil {
			logging.Fatal().Err(err).Str("email", u.req.Email).Msg("failed to create user")
		}
		logging.Info().Uint("user_id", user.ID).Str("email", user.Email).Str("role", string(user.Role)).Msg("created test user")
		created++
	}

	logging.Info().Int("created", created).Str("password", password).Msg("test user seeding complete")
}

func testUsers(password string) []seedUser {
	user := func(email, username, first, last string, role models.UserRole) seedUser {
		return seedUser{
			req: types.RegisterRequest{
				Email:     email,
				Username:  username,
				FirstName: first,
				LastName:  last,
				Password:  password,
			},
			role: role,
		}
	}
	return []seedUser{
		user("john.doe@example.com", "johndoe", "John", "Doe", models.RoleUser),
		user("jane.smith@example.com", "janesmith", "Jane", "Smith", models.RoleUser),
		user("bob.wilson@example.com", "bobwilson", "Bob", "Wilson", models.RoleUser),
		user("alice.cooper@example.com", "alicecooper", "Alice", "Cooper", models.RoleUser),
		user("admin@example.com", "admin", "Admin", "User", models.RoleAdmin),
	}
}
