package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BDNK1/flowendpoint/plugins/flight"
	"github.com/BDNK1/flowendpoint/runtime"
	"github.com/BDNK1/flowendpoint/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the flow endpoint HTTP server",
	Long: `Serve loads the flow tables, connects the prefetch cache and listens for
flow requests until SIGINT or SIGTERM.

Example:
  flowendpoint serve
  PORT=8080 FLIGHT_SELECTION_API_URL=https://api.example.com/getflightdata flowendpoint serve
`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := runtime.NewLogger(os.Stdout, settings.Server.LogFormat, settings.Server.LogLevel, serviceName, settings.Server.Env)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	if settings.Server.TraceOutput != "" {
		if err := tracing.Init(serviceName, Version, settings.Server.TraceOutput); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApp(l)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}

	client := flight.NewClient(settings.Flight, l)
	store := flight.NewStore(settings.Cache, l)

	if err := app.RegisterComponent("flight", client); err != nil {
		return err
	}
	if err := app.RegisterComponent("prefetch", store); err != nil {
		return err
	}

	if err := app.Container.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	dispatcher, err := app.NewDispatcher(client, store)
	if err != nil {
		return err
	}

	router := runtime.NewRouter(l)
	runtime.NewHttpHandler(dispatcher, store, runtime.PlainEnvelope{}, l, router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", settings.Server.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		l.Info("Server is listening", "port", settings.Server.Port, "env", settings.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		l.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := app.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}

	return errors.Join(errs...)
}
