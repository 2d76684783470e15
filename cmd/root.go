package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yhlin/sitecal/internal/google"
	"github.com/yhlin/sitecal/internal/store"
)

var debugMode bool

// rootCmd represents the base command for the sitecal application
var rootCmd = &cobra.Command{
	Use:   "sitecal",
	Short: "Unified calendar for small construction businesses",
	Long: `sitecal merges projects, payment stages, work dispatches, approved
leaves, site visits, and custom events into one agenda, and keeps custom
events and backups synchronized with Google Calendar and Google Drive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return initConfig()
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "sitecal version %s\n" .Version}}`)

	// If no subcommand is provided, show the agenda by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "agenda")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newAgendaCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newEventCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func setupLogging() {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// initConfig loads the user config file, creating one with defaults on first
// run.
func initConfig() error {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	configFile := filepath.Join(configHome, "sitecal", "sitecal.yml")
	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	viper.SetDefault("data_file", defaultDataFile())
	viper.SetDefault("calendar_id", "primary")
	viper.SetDefault("token_file", google.DefaultTokenFile())
	viper.SetDefault("google_client_id", "")
	viper.SetDefault("google_client_secret", "")

	viper.SetEnvPrefix("SITECAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			slog.Debug("config file not found, creating one with defaults",
				slog.String("path", configFile))
			if err := viper.WriteConfigAs(configFile); err != nil {
				return fmt.Errorf("error creating config file: %w", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func defaultDataFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "sitecal_data.json"
	}
	return filepath.Join(homeDir, ".local", "share", "sitecal", "data.json")
}

// openStorage returns the local snapshot storage configured by data_file.
func openStorage() *store.Storage {
	return store.NewStorage(viper.GetString("data_file"))
}

// newTokenManager builds the OAuth token manager from config. The client ID
// and secret come from the config file or the SITECAL_GOOGLE_CLIENT_ID and
// SITECAL_GOOGLE_CLIENT_SECRET environment variables.
func newTokenManager() (*google.Manager, error) {
	clientID := viper.GetString("google_client_id")
	clientSecret := viper.GetString("google_client_secret")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("google_client_id and google_client_secret must be configured")
	}

	authorizer := google.NewFlowAuthorizer(clientID, clientSecret, viper.GetString("token_file"), stdinCodePrompt)
	manager := google.NewManager(authorizer, slog.Default())
	if err := manager.Initialize(clientID); err != nil {
		return nil, err
	}
	return manager, nil
}

// stdinCodePrompt asks the user to visit the consent URL and paste the
// authorization code.
func stdinCodePrompt(authURL string) (string, error) {
	fmt.Fprintf(os.Stderr, "Visit this URL to authorize sitecal:\n\n  %s\n\nThen paste the authorization code: ", authURL)
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
