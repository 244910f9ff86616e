package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/internal/version"
	"github.com/hrygo/wealthsense/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "wealthsense",
		Short: `Natural-language questions over a wealth management book: client profiles, transactions and relationship managers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only load .env for direct binary execution (not when running as systemd service)
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return setupLogger(viper.GetString("log-level"))
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := loadProfile()
			if err != nil {
				slog.Error("invalid configuration", "error", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			application, err := newApp(ctx, instanceProfile)
			if err != nil {
				cancel()
				printDatabaseError(err, instanceProfile)
				slog.Error("failed to initialize", "error", err)
				os.Exit(1)
			}

			s, err := server.NewServer(ctx, instanceProfile, application.store, application.orchestrator, application.metrics)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				os.Exit(1)
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("failed to start server", "error", err)
					cancel()
					os.Exit(1)
				}
			}

			printGreetings(instanceProfile, application)

			go func() {
				<-c
				s.Shutdown(ctx)
				application.closeAgent()
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8000)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8000, "port of server")
	flags.String("data", "", "data directory (sqlite)")
	flags.String("driver", "sqlite", "relational database driver (mysql, postgres, sqlite)")
	flags.String("dsn", "", "relational database source name (aka. DSN)")
	flags.String("agent-dsn", "", "DSN used for model-generated SQL, ideally a read-only account (default: --dsn)")
	flags.String("mongo-uri", "", "document store connection URI; empty disables it")
	flags.String("mongo-database", "", "document store database name")
	flags.String("jwt-secret", "", "HS256 secret for verifying bearer tokens; empty disables identity checks outside prod")
	flags.StringSlice("cors-origins", nil, "allowed frontend origins (default: localhost:3000-3002)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("agent-max-rounds", 0, "language model calls per SQL agent run (default: 5)")
	flags.Int("agent-max-rows", 0, "row cap for SQL agent results (default: 100)")
	flags.String("agent-mode", "", `when the SQL agent runs: "fallback", "prefer" or "off" (default: fallback)`)
	flags.Int("query-concurrency", 0, "maximum queries processed at once (default: 8)")
	flags.Float64("query-rate-limit", 0, "query requests per second per caller (default: 5)")

	for _, key := range []string{
		"mode", "addr", "port", "data", "driver", "dsn", "agent-dsn", "mongo-uri", "mongo-database",
		"jwt-secret", "cors-origins", "log-level", "agent-max-rounds", "agent-max-rows", "agent-mode",
		"query-concurrency", "query-rate-limit",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("wealthsense")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(versionCmd, checkCmd)
}

// loadProfile builds the instance profile from flags, environment and .env.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:             viper.GetString("mode"),
		Addr:             viper.GetString("addr"),
		Port:             viper.GetInt("port"),
		Data:             viper.GetString("data"),
		Driver:           viper.GetString("driver"),
		DSN:              viper.GetString("dsn"),
		AgentDSN:         viper.GetString("agent-dsn"),
		MongoURI:         viper.GetString("mongo-uri"),
		MongoDatabase:    viper.GetString("mongo-database"),
		JWTSecret:        viper.GetString("jwt-secret"),
		CORSOrigins:      viper.GetStringSlice("cors-origins"),
		AgentMaxRounds:   viper.GetInt("agent-max-rounds"),
		AgentMaxRows:     viper.GetInt("agent-max-rows"),
		AgentMode:        viper.GetString("agent-mode"),
		QueryConcurrency: viper.GetInt("query-concurrency"),
		QueryRateLimit:   viper.GetFloat64("query-rate-limit"),
		LogLevel:         viper.GetString("log-level"),
		Version:          version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func printGreetings(profile *profile.Profile, a *app) {
	fmt.Printf("WealthSense %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Document store: %s\n", enabledString(a.store.HasDocuments()))
	fmt.Printf("Language model: %s\n", enabledString(a.llm != nil))
	fmt.Printf("SQL agent: %s (mode %s)\n", enabledString(a.agent != nil), profile.AgentMode)
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access WealthSense at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access WealthSense at: http://%s:%d\n", profile.Addr, profile.Port)
	}
}

func enabledString(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError provides user-friendly error messages for database connection issues
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase Connection Failed")
	fmt.Fprintln(os.Stderr, strings.Repeat("-", 40))

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintf(os.Stderr, "\n%s is not reachable. Check that it is running and that the DSN points at it.\n", profile.Driver)
		fmt.Fprintf(os.Stderr, "\nOr use SQLite for development:\n")
		fmt.Fprintf(os.Stderr, "  WEALTHSENSE_DRIVER=sqlite ./wealthsense --data=./data\n")

	case strings.Contains(errMsg, "Access denied") || strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "\nAuthentication failed. Check the credentials in the DSN or .env file.")

	case strings.Contains(errMsg, "unable to access data folder"):
		fmt.Fprintln(os.Stderr, "\nThe data directory does not exist. Create it or pass --data.")

	default:
		fmt.Fprintln(os.Stderr, "\nError:", errMsg)
	}

	if _, statErr := os.Stat(".env"); statErr == nil {
		fmt.Fprintf(os.Stderr, "\nFound .env file - configuration loaded from current directory.\n")
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("-", 40))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
