package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/internal/service"
	"github.com/noah-isme/aac-therapy-api/pkg/config"
	"github.com/noah-isme/aac-therapy-api/pkg/database"
	"github.com/noah-isme/aac-therapy-api/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck
			return runServer(cmd.Context(), cfg, logr)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			db, err := database.NewPostgres(ctx, cfg.Database, logr)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			applied, err := database.Migrate(ctx, db, logr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID   string
		role     string
		fullName string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			userRole := models.UserRole(role)
			if !userRole.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			auth := service.NewAuthService(logr, authConfig(cfg))
			token, expires, err := auth.IssueToken(userID, userRole, fullName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			logr.Info("token issued", zap.String("user_id", userID), zap.String("role", role), zap.Time("expires_at", expires))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTherapist), "ADMIN, THERAPIST, PATIENT or PARENT")
	cmd.Flags().StringVar(&fullName, "name", "", "display name")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

func authConfig(cfg *config.Config) service.AuthConfig {
	return service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	}
}
