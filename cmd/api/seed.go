package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/model"
	"github.com/offerhub/offer-portal/internal/repository"
	"github.com/offerhub/offer-portal/internal/service"
)

// seed creates the initial accounts and categories on an empty database.
// Categories are upserted on every start so new ones ship with deploys;
// users are only created when the table is empty.
func seed(ctx context.Context, users *repository.UserRepository, categories *repository.CategoryRepository) error {
	for _, c := range []model.Category{
		{ID: "dining", Name: "Dining", Icon: "utensils", Active: true},
		{ID: "retail", Name: "Retail", Icon: "shopping-bag", Active: true},
		{ID: "fitness", Name: "Fitness", Icon: "dumbbell", Active: true},
		{ID: "travel", Name: "Travel", Icon: "plane", Active: true},
		{ID: "entertainment", Name: "Entertainment", Icon: "film", Active: true},
		{ID: "services", Name: "Services", Icon: "wrench", Active: true},
	} {
		if err := categories.Upsert(ctx, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}

	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, u := range []struct {
		username string
		email    string
		name     string
		role     model.Role
		password string
	}{
		{"admin", "admin@offerportal.local", "Portal Admin", model.RoleAdmin, "admin123"},
		{"demo", "demo@offerportal.local", "Demo Employee", model.RoleEmployee, "demo1234"},
	} {
		hash, err := service.HashPassword(u.password)
		if err != nil {
			return err
		}
		if err := users.Insert(ctx, &model.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: hash,
			Name:         u.name,
			Role:         u.role,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
		log.Info().Str("username", u.username).Msg("seeded account")
	}
	log.Warn().Msg("seeded default accounts with development passwords, change them before exposing the portal")
	return nil
}
