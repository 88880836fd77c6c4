package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/helpers"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/service"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/streaming"
)

var playCmd = &cobra.Command{
	Use:   "play ID",
	Short: "Play an item, showing live session telemetry",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("quality", "q", "", "Playback quality (low, medium, high, ultra); inferred from connection speed when omitted")
	playCmd.Flags().DurationP("duration", "d", 0, "Stop after this long (0 plays to the end of the track)")
	viper.BindPFlag("play.quality", playCmd.Flags().Lookup("quality"))
}

func runPlay(cmd *cobra.Command, args []string) error {
	mediaID := args[0]
	svc, player, _ := newMediaService()

	var quality models.Quality
	if value := viper.GetString("play.quality"); value != "" {
		parsed, err := models.ParseQuality(value)
		if err != nil {
			return err
		}
		quality = parsed
	}

	err := svc.StartPlayback(cmd.Context(), mediaID, quality)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return fmt.Errorf("media %s not found", mediaID)
		case errors.Is(err, service.ErrQualityUnavailable):
			return fmt.Errorf("requested quality is not available for %s", mediaID)
		case errors.Is(err, streaming.ErrNoStream):
			return fmt.Errorf("%s has no playable stream", mediaID)
		default:
			return err
		}
	}
	defer player.StopPlayback()

	maxDuration, _ := cmd.Flags().GetDuration("duration")

	// Live telemetry line, refreshed until the track (or the budget) ends.
	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	started := time.Now()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			fmt.Fprintln(writer, "Playback interrupted.")
			return nil
		case <-ticker.C:
		}

		position := player.CurrentPlaybackTime()
		total := player.Duration()
		health := player.StreamHealth()

		fmt.Fprintf(writer, "Playing %s  %s / %s  buffer %.0f%%  %s\n",
			mediaID,
			helpers.FormatDuration(int(position)),
			helpers.FormatDuration(int(total)),
			player.BufferStatus(),
			helpers.BytesToSize(uint64(health.BitrateBPS/8))+"/s",
		)

		if total > 0 && position >= total {
			fmt.Fprintf(writer.Newline(), "Finished %s.\n", mediaID)
			return nil
		}
		if maxDuration > 0 && time.Since(started) >= maxDuration {
			fmt.Fprintf(writer.Newline(), "Stopped %s after %s.\n", mediaID, maxDuration)
			return nil
		}
	}
}
