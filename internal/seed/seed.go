// Package seed loads the demo roles, accounts and patients.
package seed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
)

const demoPassword = "1234"

type demoUser struct {
	username string
	email    string
	roles    []string
}

var (
	demoRoles = []string{"USER", "ADMIN"}
	demoUsers = []demoUser{
		{"user1", "user1@gmail.com", []string{"USER"}},
		{"user2", "user2@gmail.com", []string{"USER"}},
		{"admin", "admin@gmail.com", []string{"ADMIN"}},
	}
)

// Result counts what a run actually created.
type Result struct {
	Roles    int
	Users    int
	Patients int
}

// Run creates whatever demo data is missing. Existing roles and users are
// left alone, and patients are only added to an empty table, so running it
// twice is harmless.
func Run(ctx context.Context, accounts *services.AccountService, patients *services.PatientService, now time.Time) (Result, error) {
	var res Result

	for _, role := range demoRoles {
		_, err := accounts.AddRole(ctx, role)
		switch {
		case err == nil:
			res.Roles++
		case errors.Is(err, services.ErrConflict):
		default:
			return res, err
		}
	}

	for _, u := range demoUsers {
		_, err := accounts.AddUser(ctx, u.username, demoPassword, u.email, demoPassword)
		switch {
		case err == nil:
			res.Users++
		case errors.Is(err, services.ErrConflict):
		default:
			return res, err
		}
		for _, role := range u.roles {
			if err := accounts.AddRoleToUser(ctx, u.username, role); err != nil {
				return res, err
			}
		}
	}

	count, err := patients.Count(ctx)
	if err != nil {
		return res, err
	}
	if count == 0 {
		today := now.UTC().Format(services.DateLayout)
		for _, form := range []services.PatientForm{
			{Name: "Abderrahmane", DateOfBirth: today, Sick: false, Score: "90"},
			{Name: "Mohammed", DateOfBirth: today, Sick: true, Score: "90"},
		} {
			if _, err := patients.Save(ctx, form); err != nil {
				return res, err
			}
			res.Patients++
		}
	}

	slog.Info("seed complete", "roles", res.Roles, "users", res.Users, "patients", res.Patients)
	return res, nil
}
