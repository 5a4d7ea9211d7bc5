package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lingobox/lingobox/internal/auth"
	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository/sqlstore"
	"github.com/lingobox/lingobox/internal/scheduler"
	"github.com/lingobox/lingobox/internal/services"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.close()

			applied, err := d.AppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func newImportCardsCmd(a *app) *cobra.Command {
	var (
		userID string
		bookID int64
	)
	cmd := &cobra.Command{
		Use:   "import-cards --user <id> [--book <id>] <file>",
		Short: "Import flashcards from an .xlsx or .csv template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.close()

			clk := clock.Real{}
			if err := services.NewUserService(sqlstore.NewUserRepository(d), clk).
				Ensure(ctx, models.User{ID: userID, Role: models.RoleUser}); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var book *int64
			if bookID > 0 {
				book = &bookID
			}
			cards := sqlstore.NewCardRepository(d)
			books := sqlstore.NewBookRepository(d)
			res, err := services.NewImportService(d, cards, books, clk).
				ImportCards(ctx, userID, book, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows=%d created=%d skipped=%d\n", res.TotalRows, res.Created, res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintln(out, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	cmd.Flags().Int64Var(&bookID, "book", 0, "book id to attach the cards to")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newReaggregateCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "reaggregate",
		Short: "Fold uncounted activity events into their daily rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			ctx := cmd.Context()
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.close()

			locker, closeLocker, err := a.locker(ctx)
			if err != nil {
				return err
			}
			defer closeLocker()

			clk := clock.Real{}
			sweeper := scheduler.NewSweeper(a.activityService(d, locker, clk), clk,
				time.Duration(days)*24*time.Hour, a.cfg.SweepConcurrency)
			res, err := sweeper.Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "days=%d failed=%d\n", res.Days, res.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 2, "how many days back to look for uncounted events")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token --user <id> [--role admin]",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToLower(role)
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("--role must be %s or %s", models.RoleUser, models.RoleAdmin)
			}
			jwtAuth := auth.NewJWTAuthenticator(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.TokenTTL, clock.Real{})
			tok, err := jwtAuth.Issue(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "user or admin")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
