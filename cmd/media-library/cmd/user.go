package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/database"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/userstore"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show or update the local user profile",
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the local profile and preferences",
	RunE:  runUserShow,
}

var userSetQualityCmd = &cobra.Command{
	Use:   "set-quality QUALITY",
	Short: "Set the preferred playback/download quality",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSetQuality,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userSetQualityCmd)
}

// openUserStore opens the preference store over the configured database.
// The returned func closes the database.
func openUserStore() (*userstore.Store, func(), error) {
	path := globalConfig.DatabasePath
	if path == "" {
		path = "media-library.db"
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Error closing database")
		}
	}
	return userstore.New(db), closeDB, nil
}

func runUserShow(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openUserStore()
	if err != nil {
		return err
	}
	defer closeDB()

	profile, err := store.CurrentUser()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", profile.ID)
	fmt.Fprintf(tw, "Username:\t%s\n", profile.Username)
	fmt.Fprintf(tw, "Preferred quality:\t%s\n", profile.Preferences.PreferredQuality)
	return tw.Flush()
}

func runUserSetQuality(cmd *cobra.Command, args []string) error {
	quality, err := models.ParseQuality(args[0])
	if err != nil {
		return err
	}

	store, closeDB, err := openUserStore()
	if err != nil {
		return err
	}
	defer closeDB()

	profile, err := store.UpdatePreferences(models.UserPreferences{PreferredQuality: quality})
	if err != nil {
		return err
	}
	fmt.Printf("Preferred quality set to %s.\n", profile.Preferences.PreferredQuality)
	return nil
}
