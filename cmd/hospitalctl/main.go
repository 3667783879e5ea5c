package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/config"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/database"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/seed"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	logging.Setup()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hospitalctl",
		Short:         "Administer the hospital records database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(userCmd())
	root.AddCommand(roleCmd())
	return root
}

// openDB connects with the environment configuration and brings the schema
// up to date. The session secret is not needed here.
func openDB() (*gorm.DB, *config.Config, error) {
	cfg := config.Load()
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "unused"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return db, cfg, nil
}

func withAccounts(fn func(*services.AccountService, *services.PatientService) error) error {
	db, cfg, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	accounts := services.NewAccountService(db, auth.NewBcryptHasher(cfg.BcryptCost))
	patients := services.NewPatientService(repository.NewPatientRepository(db))
	return fn(accounts, patients)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close(db)
			slog.Info("migration complete")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo roles, users and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, patients *services.PatientService) error {
				_, err := seed.Run(cmd.Context(), accounts, patients, time.Now())
				return err
			})
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")
			roles, _ := cmd.Flags().GetStringSlice("role")
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				user, err := accounts.AddUser(cmd.Context(), args[0], password, email, password)
				if err != nil {
					return err
				}
				for _, role := range roles {
					if err := accounts.AddRoleToUser(cmd.Context(), user.Username, role); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	addCmd.Flags().String("password", "", "Password for the new user")
	addCmd.Flags().String("email", "", "Email address")
	addCmd.Flags().StringSlice("role", nil, "Role to grant, may be repeated")
	_ = addCmd.MarkFlagRequired("password")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users and their roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				users, err := accounts.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				for i := range users {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", users[i].Username, users[i].Email, users[i].RoleNames())
				}
				return nil
			})
		},
	})

	return cmd
}

func roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles and memberships",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <role>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				role, err := accounts.AddRole(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created role %s\n", role.RoleName)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				roles, err := accounts.ListRoles(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range roles {
					fmt.Fprintln(cmd.OutOrStdout(), r.RoleName)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <username> <role>",
		Short: "Give a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				return accounts.AddRoleToUser(cmd.Context(), args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <username> <role>",
		Short: "Take a role away from a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(accounts *services.AccountService, _ *services.PatientService) error {
				return accounts.RemoveRoleFromUser(cmd.Context(), args[0], args[1])
			})
		},
	})

	return cmd
}
