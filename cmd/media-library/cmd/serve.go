package cmd

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/database"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/records"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download record store (the gateway's backend)",
	Long: `Serve runs the HTTP record store the persistence gateway talks to.
It exposes GET and POST /api/downloads backed by the local database.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := globalConfig.ListenAddr
	if boundAddr := viper.GetString("serve.listen"); boundAddr != "" {
		addr = boundAddr
	}

	path := globalConfig.DatabasePath
	if path == "" {
		path = "media-library.db"
	}
	db, err := database.Open(path)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Error closing database")
		}
	}()

	store := records.NewStore(db)
	server := records.NewServer(store)

	log.WithField("addr", addr).Info("Record store listening")
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		return fmt.Errorf("record store failed: %w", err)
	}
	return nil
}
