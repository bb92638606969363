package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/internal/version"
	"github.com/hrygo/staynest/server"
	"github.com/hrygo/staynest/store"
	"github.com/hrygo/staynest/store/db"
)

// terminationSignals trigger a graceful shutdown. Process managers (systemd, kubernetes) send SIGTERM.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

var (
	rootCmd = &cobra.Command{
		Use:   "staynest",
		Short: `AI service for StayNest: listing recommendations, semantic search and a travel chat assistant.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Systemd units provide the environment themselves.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			setupLogger(viper.GetString("log-level"), viper.GetString("mode"))
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				_ = storeInstance.Close()
				return fmt.Errorf("failed to create server: %w", err)
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				_ = storeInstance.Close()
				return fmt.Errorf("failed to start server: %w", err)
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "mongo")
	viper.SetDefault("port", 8000)
	viper.SetDefault("log-level", "info")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8000, "port of server")
	flags.String("data", "", "data directory for the sqlite driver")
	flags.String("driver", "mongo", "database driver (mongo, postgres, sqlite)")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("database", "", "mongo database holding the listings")
	flags.String("collection", "", "collection or table holding the listings")
	flags.String("vector-index", "", "name of the Atlas vector search index")
	flags.StringSlice("allowed-origins", nil, "browser origins allowed to call the API (default any)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "database", "collection", "vector-index", "allowed-origins", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("staynest")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(backfillCmd, importCmd, probeCmd, versionCmd)
}

// loadProfile builds the instance profile from flags, environment and defaults.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:           viper.GetString("mode"),
		Addr:           viper.GetString("addr"),
		Port:           viper.GetInt("port"),
		Data:           viper.GetString("data"),
		Driver:         viper.GetString("driver"),
		DSN:            viper.GetString("dsn"),
		Database:       viper.GetString("database"),
		Collection:     viper.GetString("collection"),
		VectorIndex:    viper.GetString("vector-index"),
		AllowedOrigins: viper.GetStringSlice("allowed-origins"),
		LogLevel:       viper.GetString("log-level"),
		Version:        version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return instanceProfile, nil
}

// openStore connects the configured driver and prepares its schema.
func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(ctx, instanceProfile)
	if err != nil {
		printDatabaseError(err, instanceProfile)
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return storeInstance, nil
}

func setupLogger(level, mode string) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("StayNest AI %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Database driver: %s\n", profile.Driver)
	if profile.Driver == "mongo" {
		fmt.Printf("Collection: %s.%s (index %s)\n", profile.Database, profile.Collection, profile.VectorIndex)
	} else {
		fmt.Printf("Table: %s\n", profile.Collection)
	}
	fmt.Printf("Embedding model: %s (%d dims)\n", profile.EmbeddingModel, profile.EmbeddingDimensions)
	if profile.IsLLMConfigured() {
		fmt.Printf("Chat model: %s/%s\n", profile.LLMProvider, profile.LLMModel)
	} else {
		fmt.Println("Chat model: not configured, /chat is disabled")
	}
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access StayNest AI at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access StayNest AI at: http://%s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError provides user-friendly error messages for database connection issues
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "server selection") || strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host"):
		fmt.Fprintf(os.Stderr, "\n  The %s server is not reachable.\n", profile.Driver)
		if profile.Driver == "mongo" {
			fmt.Fprintf(os.Stderr, "  Check MONGO_ATLAS_URL or --dsn and the Atlas network access list.\n")
		}
		fmt.Fprintf(os.Stderr, "\n  Or use SQLite for local development:\n")
		fmt.Fprintf(os.Stderr, "    staynest --driver=sqlite --data=./data\n")

	case strings.Contains(errMsg, "auth"):
		fmt.Fprintf(os.Stderr, "\n  Authentication failed. Check the credentials in the DSN or .env file.\n")

	case strings.Contains(errMsg, "dsn required"):
		fmt.Fprintf(os.Stderr, "\n  No DSN configured. Set STAYNEST_DSN, MONGO_ATLAS_URL or --dsn.\n")

	default:
		fmt.Fprintln(os.Stderr, "\n  Error:", errMsg)
	}

	if _, statErr := os.Stat(".env"); statErr != nil {
		fmt.Fprintf(os.Stderr, "\n  Tip: create a .env file for local configuration.\n")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
