package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/config"
	"github.com/noah-isme/credit-ledger-api/internal/database"
	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
	"github.com/noah-isme/credit-ledger-api/internal/service"
)

// connector opens the ledger database; tests swap it for an in-memory store.
type connector func(cfg config.Config, logger zerolog.Logger) (*gorm.DB, error)

func connectDatabase(cfg config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	return database.ConnectPostgres(cfg.DatabaseURL, cfg.DatabaseMaxRetries, logger)
}

func newRootCommand(logger zerolog.Logger) *cobra.Command {
	return buildRootCommand(logger, connectDatabase, os.Stdout)
}

func buildRootCommand(logger zerolog.Logger, connect connector, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Maintenance tool for the credit ledger",
		SilenceUsage: true,
	}
	root.SetOut(out)

	open := func() (*gorm.DB, config.Config, error) {
		cfg, err := config.LoadMaintenance()
		if err != nil {
			return nil, config.Config{}, err
		}
		db, err := connect(cfg, logger)
		if err != nil {
			return nil, config.Config{}, err
		}
		return db, cfg, nil
	}

	root.AddCommand(
		migrateCommand(open, logger),
		importHistoricalCommand(open, logger),
		leaderboardCommand(open, logger),
		practitionerCommand(open),
	)

	return root
}

type opener func() (*gorm.DB, config.Config, error)

func migrateCommand(open opener, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Msg("schema up to date")
			return nil
		},
	}
}

func importHistoricalCommand(open opener, logger zerolog.Logger) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-historical FILE",
		Short: "Import legacy point totals from a .csv or .xlsx sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := open()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			importer := service.NewHistoricalImportService(
				repository.NewHistoricalPointsRepository(db),
				repository.NewPractitionerRepository(db),
				service.NewAuditService(repository.NewAuditLogRepository(db), logger),
				logger,
			)

			result, err := importer.Import(commandContext(cmd), service.SystemActor, args[0], file, dryRun)
			if err != nil {
				return err
			}

			for _, row := range result.Rows {
				if row.Status != service.ImportRowMatched {
					fmt.Fprintf(cmd.OutOrStdout(), "line %d %s %s: %s %s\n", row.Line, row.FirstName, row.LastName, row.Status, row.Message)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported=%d matched=%d unmatched=%d rejected=%d dry_run=%t\n",
				result.Imported, result.Matched, result.Unmatched, result.Rejected, result.DryRun)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and match rows without writing them")

	return cmd
}

func leaderboardCommand(open opener, logger zerolog.Logger) *cobra.Command {
	var (
		year   int
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the approved-credit ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cfg, err := open()
			if err != nil {
				return err
			}

			reports := service.NewReportService(
				repository.NewLedgerReportRepository(db),
				repository.NewHistoricalPointsRepository(db),
				repository.NewPractitionerRepository(db),
				validator.New(validator.WithRequiredStructEnabled()),
				cfg.CycleTarget,
				logger,
			)

			req := dto.LeaderboardRequest{Limit: limit}
			if year > 0 {
				req.Year = &year
			}

			entries, err := reports.Leaderboard(commandContext(cmd), req)
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(entries)
			}

			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-32s %6d\n", entry.Rank, entry.Name, entry.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "restrict to one period year")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the top N practitioners")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")

	return cmd
}

func practitionerCommand(open opener) *cobra.Command {
	parent := &cobra.Command{
		Use:   "practitioner",
		Short: "Manage the practitioner directory",
	}

	var first, last, email, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a practitioner so imports and rankings can resolve the name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if first == "" || last == "" {
				return fmt.Errorf("--first and --last are required")
			}
			switch role {
			case models.RolePractitioner, models.RoleModerator, models.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			db, _, err := open()
			if err != nil {
				return err
			}

			practitioner := models.Practitioner{FirstName: first, LastName: last, Email: email, Role: role}
			if err := repository.NewPractitionerRepository(db).Create(commandContext(cmd), &practitioner); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "practitioner %d created\n", practitioner.ID)
			return nil
		},
	}
	add.Flags().StringVar(&first, "first", "", "first name")
	add.Flags().StringVar(&last, "last", "", "last name")
	add.Flags().StringVar(&email, "email", "", "contact email")
	add.Flags().StringVar(&role, "role", models.RolePractitioner, "practitioner, moderator or admin")

	parent.AddCommand(add)
	return parent
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
