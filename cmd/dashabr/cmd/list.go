package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peymanj-dashabr/dashabr/internal/catalog"
)

var listMPD string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch a manifest and print its representations",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listMPD, "mpd", "", "MPD manifest URL (required)")
	listCmd.MarkFlagRequired("mpd")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newHTTPClient(cfg.HTTP, "", 0)
	adapter := catalog.NewMPDAdapter(client)

	cat, err := adapter.Fetch(context.Background(), listMPD)
	if err != nil {
		return fmt.Errorf("fetching manifest: %w", err)
	}

	fmt.Printf("%-12s %-10s %-10s %s\n", "bandwidth", "segments", "init", "first segment")
	for _, bw := range cat.Bitrates() {
		rep, ok := cat.Representation(bw)
		if !ok {
			continue
		}
		first := ""
		if len(rep.Segments) > 0 {
			first = rep.Segments[0]
		}
		fmt.Printf("%-12d %-10d %-10s %s\n", bw, rep.SegmentCount(), rep.InitURL, first)
	}
	fmt.Printf("\nsegment_duration=%.3fs min_buffer_time=%.3fs playback_duration=%.3fs\n",
		cat.SegmentDuration, cat.MinBufferTime, cat.PlaybackDuration)

	appLogger.Debug("manifest listed", slog.String("url", listMPD), slog.Int("representations", len(cat.Bitrates())))
	return nil
}
