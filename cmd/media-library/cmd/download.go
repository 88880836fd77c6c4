package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/index"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/helpers"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/service"
)

var downloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Save an item to the local library",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List saved downloads, newest first",
	RunE:  runDownloads,
}

var downloadsSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search over saved downloads",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownloadsSearch,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(downloadsCmd)
	downloadsCmd.AddCommand(downloadsSearchCmd)

	downloadCmd.Flags().StringP("quality", "q", "", "Quality tier to record (low, medium, high, ultra); defaults to the user preference")
	viper.BindPFlag("download.quality", downloadCmd.Flags().Lookup("quality"))
}

func runDownload(cmd *cobra.Command, args []string) error {
	mediaID := args[0]
	svc, _, _ := newMediaService()

	quality, err := resolveQualityFlag()
	if err != nil {
		return err
	}

	ok, err := svc.DownloadMedia(cmd.Context(), mediaID, quality)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return fmt.Errorf("media %s not found", mediaID)
		case errors.Is(err, service.ErrInsufficientStorage):
			return fmt.Errorf("not enough storage space for %s", mediaID)
		default:
			return err
		}
	}
	if !ok {
		return fmt.Errorf("download of %s was not saved", mediaID)
	}
	fmt.Printf("Saved %s at %s quality.\n", mediaID, quality)

	updateDownloadIndex()
	return nil
}

// resolveQualityFlag reads the bound quality setting (--quality flag or the
// [download] config section), falling back to the stored preference.
func resolveQualityFlag() (models.Quality, error) {
	if value := viper.GetString("download.quality"); value != "" {
		return models.ParseQuality(value)
	}

	store, closeDB, err := openUserStore()
	if err != nil {
		log.WithError(err).Warn("Preference store unavailable, defaulting to high")
		return models.QualityHigh, nil
	}
	defer closeDB()

	profile, err := store.CurrentUser()
	if err != nil {
		log.WithError(err).Warn("Could not load user preferences, defaulting to high")
		return models.QualityHigh, nil
	}
	return profile.Preferences.PreferredQuality, nil
}

// updateDownloadIndex refreshes the bleve index from the gateway's view of
// the record store. Index failures are reported but never fail the download.
func updateDownloadIndex() {
	client := newHTTPClient()
	gw := newGateway(client, nil)

	idx, err := index.OpenOrCreateIndex(globalConfig.BleveIndexPath)
	if err != nil {
		log.WithError(err).Warn("Search index unavailable, skipping update")
		return
	}
	defer idx.Close()

	for _, m := range gw.ListDownloads(context.Background()) {
		item := index.Item{
			ID:      m.ID,
			Title:   m.Title,
			Slug:    helpers.ConvertToSlug(m.Title),
			Kind:    string(m.Kind),
			Quality: string(m.Metadata.Quality),
			Format:  m.Metadata.Format,
		}
		if err := index.IndexItem(idx, item); err != nil {
			log.WithError(err).WithField("media", m.ID).Warn("Failed to index download")
		}
	}
}

func runDownloads(cmd *cobra.Command, args []string) error {
	client := newHTTPClient()
	gw := newGateway(client, nil)

	items := gw.ListDownloads(cmd.Context())
	if len(items) == 0 {
		fmt.Println("No downloads recorded.")
		return nil
	}

	printMediaTable(items)
	fmt.Printf("Storage used: %s\n", helpers.BytesToSize(uint64(gw.UsedStorage(cmd.Context()))))
	return nil
}

func runDownloadsSearch(cmd *cobra.Command, args []string) error {
	idx, err := index.OpenOrCreateIndex(globalConfig.BleveIndexPath)
	if err != nil {
		return fmt.Errorf("could not open search index: %w", err)
	}
	defer idx.Close()

	query := strings.Join(args, " ")
	results, err := index.SearchIndex(idx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if results.Total == 0 {
		fmt.Printf("No downloads match %q.\n", query)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tKIND\tQUALITY")
	for _, hit := range results.Hits {
		title, _ := hit.Fields["title"].(string)
		kind, _ := hit.Fields["kind"].(string)
		quality, _ := hit.Fields["quality"].(string)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", hit.ID, truncate(title, 60), kind, quality)
	}
	if err := tw.Flush(); err != nil {
		log.WithError(err).Warn("Error flushing output")
	}
	fmt.Printf("\n%d of %d hit(s)\n", len(results.Hits), results.Total)
	return nil
}
