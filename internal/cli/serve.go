package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/timebill/internal/api"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			secret, err := rt.cfg.Secret()
			if err != nil {
				return err
			}
			location, err := rt.cfg.Location()
			if err != nil {
				rt.logger.Warn("invalid TZ, falling back to UTC", zap.String("tz", rt.cfg.TimeZone), zap.Error(err))
			}

			app, err := NewServer(rt.dependencies(), secret, location, rt.logger)
			if err != nil {
				return err
			}

			sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stopSignals()
			return serveUntilDone(sigCtx, app, ":"+rt.cfg.Port, rt.logger)
		},
	}
}

// NewServer builds the fiber app with recovery, access logging and every route.
func NewServer(deps api.Dependencies, secret string, location *time.Location, log *zap.Logger) (*fiber.App, error) {
	handler, err := api.NewHandler(deps, secret, location)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "timebill",
		DisableStartupMessage: true,
		ErrorHandler:          jsonErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())
	api.RegisterRoutes(app, handler)
	return app, nil
}

func serveUntilDone(ctx context.Context, app *fiber.App, address string, log *zap.Logger) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("timebill listening", zap.String("address", address))
	if err := app.Listen(address); err != nil {
		return err
	}
	log.Info("timebill stopped")
	return nil
}

func jsonErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("unhandled request error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}
