package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/timebill/internal/api"
	"github.com/terraincognita07/timebill/internal/config"
	"github.com/terraincognita07/timebill/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRootCommand builds the timebill command tree. Output of the operator commands goes
// to out; logs go to stderr.
func NewRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "timebill",
		Short:         "Time tracking and billing service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newBillSummaryCommand(),
		newDeleteBillCommand(),
		newResolveRatesCommand(),
		newIssueTokenCommand(),
		newCreateUserCommand(),
		newCreateClientCommand(),
	)
	return root
}

// runtime is what every command needs: settings, a logger and an open database.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	database *gorm.DB
	repos    *db.Repositories
}

func openRuntime(applyMigrations bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	open := db.OpenSQLite
	if !applyMigrations {
		open = db.OpenSQLiteWithoutMigrations
	}
	database, err := open(cfg.DBPath, zap.NewStdLog(logger.Named("gorm")))
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		database: database,
		repos:    db.NewRepositories(database),
	}, nil
}

func (rt *runtime) dependencies() api.Dependencies {
	return api.NewDependencies(rt.repos, rt.logger)
}

func (rt *runtime) Close() {
	if sqlDB, err := rt.database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.logger.Sync()
}

func parseIDArg(raw string, name string) (uint, error) {
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(value), nil
}
