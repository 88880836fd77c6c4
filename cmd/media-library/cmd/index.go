package cmd

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/index"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/database"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/helpers"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/records"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the download search index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from the record database",
	RunE:  runIndexRebuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
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

	rows, err := records.NewStore(db).List()
	if err != nil {
		return fmt.Errorf("could not read download records: %w", err)
	}

	if globalConfig.BleveIndexPath != "" {
		if dir := filepath.Dir(globalConfig.BleveIndexPath); dir != "." && !helpers.CheckAndMakeDir(dir) {
			return fmt.Errorf("could not create index directory %s", dir)
		}
	}
	if err := index.DeleteIndex(globalConfig.BleveIndexPath); err != nil {
		log.WithError(err).Warn("Could not remove old index, rebuilding in place")
	}
	idx, err := index.OpenOrCreateIndex(globalConfig.BleveIndexPath)
	if err != nil {
		return fmt.Errorf("could not create search index: %w", err)
	}
	defer idx.Close()

	indexed := 0
	for _, row := range rows {
		if err := index.IndexItem(idx, index.ItemFromRow(row)); err != nil {
			log.WithError(err).WithField("media", row.MediaID).Warn("Failed to index record")
			continue
		}
		indexed++
	}
	fmt.Printf("Indexed %d of %d record(s).\n", indexed, len(rows))
	return nil
}
