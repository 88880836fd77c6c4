package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/helpers"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merged library (online catalogs plus downloads)",
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search the online catalogs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show full details for one item",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)

	searchCmd.Flags().StringP("kind", "k", "", "Filter results by kind (movie, show, music)")
	viper.BindPFlag("search.kind", searchCmd.Flags().Lookup("kind"))
}

func runList(cmd *cobra.Command, args []string) error {
	svc, _, _ := newMediaService()

	items := svc.GetAllMedia(cmd.Context())
	if len(items) == 0 {
		fmt.Println("Library is empty.")
		return nil
	}
	printMediaTable(items)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, _, _ := newMediaService()
	query := strings.Join(args, " ")

	kindValue := viper.GetString("search.kind")
	var kind models.MediaKind
	if kindValue != "" {
		kind = models.MediaKind(kindValue)
		switch kind {
		case models.KindMovie, models.KindShow, models.KindMusic:
		default:
			return fmt.Errorf("unknown kind %q (expected movie, show or music)", kindValue)
		}
	}

	results, err := svc.SearchMedia(cmd.Context(), query, kind)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Printf("No results for %q.\n", query)
		return nil
	}
	printMediaTable(results)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	svc, _, _ := newMediaService()

	media, err := svc.GetMediaByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", media.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", media.Title)
	fmt.Fprintf(tw, "Kind:\t%s\n", media.Kind)
	fmt.Fprintf(tw, "Duration:\t%s\n", helpers.FormatDuration(media.Metadata.DurationSeconds))
	fmt.Fprintf(tw, "Size:\t%s\n", helpers.BytesToSize(uint64(media.Metadata.FileSizeBytes)))
	fmt.Fprintf(tw, "Format:\t%s\n", media.Format())
	fmt.Fprintf(tw, "Qualities:\t%s\n", joinQualities(media.AvailableQualities))
	fmt.Fprintf(tw, "Downloaded:\t%t\n", media.Downloaded)
	fmt.Fprintf(tw, "Playable:\t%t\n", media.Playable())
	if media.Metadata.StreamingURL != "" {
		fmt.Fprintf(tw, "Stream:\t%s\n", media.Metadata.StreamingURL)
	}
	if err := tw.Flush(); err != nil {
		log.WithError(err).Warn("Error flushing output")
	}
	return nil
}

func printMediaTable(items []models.MediaDescriptor) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tKIND\tDURATION\tSIZE\tQUALITIES\tDL")
	for _, m := range items {
		downloaded := ""
		if m.Downloaded {
			downloaded = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID,
			truncate(m.Title, 60),
			m.Kind,
			helpers.FormatDuration(m.Metadata.DurationSeconds),
			helpers.BytesToSize(uint64(m.Metadata.FileSizeBytes)),
			joinQualities(m.AvailableQualities),
			downloaded,
		)
	}
	if err := tw.Flush(); err != nil {
		log.WithError(err).Warn("Error flushing output")
	}
	fmt.Printf("\n%d item(s)\n", len(items))
}

func joinQualities(qualities []models.Quality) string {
	parts := make([]string, len(qualities))
	for i, q := range qualities {
		parts[i] = string(q)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
