package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/api"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/config"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/gateway"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/service"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/source"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/streaming"
)

// cfgFile holds the path to the config file specified by the user
var cfgFile string

// logLevel and logFormat configure logrus for the whole run
var logLevel string
var logFormat string

// logApiFlag holds the value of the --log-api flag
var logApiFlag bool

// sourceFlag selects which catalogs to query (jamendo, archive, all)
var sourceFlag string

// timeoutFlag overrides the HTTP client timeout in seconds
var timeoutFlag int

// globalConfig holds the loaded configuration
var globalConfig models.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "media-library",
	Short: "A personal library over free music catalogs",
	Long: `Media Library browses, searches and plays tracks from free music
catalogs (Jamendo and the Internet Archive's live music collection) and keeps
a record of what you have downloaded.`,
	PersistentPreRunE: loadGlobalConfig, // Load config before any command runs
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.toml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logging format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&logApiFlag, "log-api", false, "Log API requests/responses to api.log (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Catalogs to query: jamendo, archive or all (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", -1, "HTTP client timeout in seconds (overrides config, -1 uses config default)")

	// Hook to configure logging before any command runs
	cobra.OnInitialize(initLogging)
}

// initLogging configures logrus based on persistent flags
func initLogging() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Warnf("Invalid log level '%s', using default 'info'", logLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	switch logFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.Warnf("Invalid log format '%s', using default 'text'", logFormat)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// loadGlobalConfig attempts to load the configuration and applies flag overrides.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	var err error
	globalConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		// Commands should check the fields they need from globalConfig.
		log.WithError(err).Warnf("Failed to load configuration from %s", cfgFile)
		config.ApplyDefaults(&globalConfig)
	}

	// Feed the same file to viper so per-command sections (e.g. [play],
	// [serve]) back the bound command flags.
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Debugf("No per-command config sections loaded from %s", cfgFile)
	}

	if cmd.Flags().Changed("log-api") {
		globalConfig.LogApiRequests = logApiFlag
		log.Debugf("Overriding LogApiRequests based on --log-api flag: %t", logApiFlag)
	}

	if cmd.Flags().Changed("source") {
		switch sourceFlag {
		case "jamendo", "archive", "all":
			globalConfig.Source = sourceFlag
		default:
			log.Warnf("--source flag value '%s' invalid (jamendo, archive, all), using config value: %s", sourceFlag, globalConfig.Source)
		}
	}

	if cmd.Flags().Changed("timeout") {
		if timeoutFlag > 0 {
			globalConfig.HTTPTimeoutSec = timeoutFlag
		} else {
			log.Warnf("--timeout flag provided with invalid value %d, using config value: %d sec", timeoutFlag, globalConfig.HTTPTimeoutSec)
		}
	}

	return nil
}

// newHTTPClient builds the shared outbound client per the loaded config.
func newHTTPClient() *http.Client {
	return api.NewHTTPClient(time.Duration(globalConfig.HTTPTimeoutSec)*time.Second, globalConfig.LogApiRequests)
}

// newOnlineSource assembles the configured catalogs behind the composite.
func newOnlineSource(client *http.Client) *source.Composite {
	var members []source.ContentSource
	switch globalConfig.Source {
	case "jamendo":
		members = append(members, source.NewJamendo(globalConfig, client))
	case "archive":
		members = append(members, source.NewArchive(globalConfig, client))
	default:
		members = append(members,
			source.NewJamendo(globalConfig, client),
			source.NewArchive(globalConfig, client),
		)
	}
	return source.NewComposite(members...)
}

// newGateway builds the persistence gateway over the shared client.
func newGateway(client *http.Client, details gateway.DetailsFetcher) *gateway.Client {
	return gateway.New(globalConfig.GatewayURL, client, details, globalConfig.StorageQuotaBytes)
}

// newMediaService wires the full service stack for a command invocation.
// The returned streaming adapter is also handed back for commands that drive
// playback directly.
func newMediaService() (*service.MediaService, *streaming.Adapter, *gateway.Client) {
	client := newHTTPClient()
	online := newOnlineSource(client)
	gw := newGateway(client, online)
	player := streaming.NewAdapter(online, nil, nil)
	return service.New(online, gw, player), player, gw
}
