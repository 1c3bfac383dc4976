package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/peymanj-dashabr/dashabr/internal/abr"
	"github.com/peymanj-dashabr/dashabr/internal/buffer"
	"github.com/peymanj-dashabr/dashabr/internal/catalog"
	"github.com/peymanj-dashabr/dashabr/internal/config"
	"github.com/peymanj-dashabr/dashabr/internal/downloader"
	"github.com/peymanj-dashabr/dashabr/internal/report"
	"github.com/peymanj-dashabr/dashabr/internal/scheduler"
	"github.com/peymanj-dashabr/dashabr/internal/statusserver"
	"github.com/peymanj-dashabr/dashabr/internal/store"
	"github.com/peymanj-dashabr/dashabr/internal/throughput"
	"github.com/peymanj-dashabr/dashabr/pkg/httpclient"
)

// playbackTick is how often the playback timer drains the buffer; a real
// player would pace this off the media clock, this session paces off a
// wall-clock interval shorter than any segment duration.
const playbackTick = 100 * time.Millisecond

// bulkParallelism bounds the "all" playback mode's concurrent fetch count;
// it is not the ABR MAX_PARALLEL knob since the bulk downloader never
// consults the adaptive loop.
const bulkParallelism = 4

var (
	playMPD           string
	playStrategy      string
	playSegmentLimit  int
	playDownload      bool
	playUsePEP        bool
	playPEPHost       string
	playPEPPort       int
	playBufferSize    int
	playUseConcurrent bool
	playStatusAddr    string
	playHistoryDB     string
	playPEPMaxConns   int
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a DASH manifest end to end with adaptive bitrate selection",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playMPD, "mpd", "", "MPD manifest URL (required)")
	playCmd.MarkFlagRequired("mpd")
	playCmd.Flags().StringVar(&playStrategy, "playback", "", "ABR strategy: basic, sara, netflix, or all (default from config)")
	playCmd.Flags().IntVar(&playSegmentLimit, "segment-limit", 0, "stop after N segments (0 = whole catalog)")
	playCmd.Flags().BoolVar(&playDownload, "download", false, "keep downloaded segments on disk after the session ends")
	playCmd.Flags().BoolVar(&playUsePEP, "use-pep", false, "route segment fetches through a CONNECT proxy")
	playCmd.Flags().StringVar(&playPEPHost, "pep-host", "", "PEP proxy host")
	playCmd.Flags().IntVar(&playPEPPort, "pep-port", 0, "PEP proxy port")
	playCmd.Flags().IntVar(&playBufferSize, "buffer-size", 0, "PEP socket buffer bytes (0 = OS default)")
	playCmd.Flags().BoolVar(&playUseConcurrent, "use-concurrent", false, "enable MAX_PARALLEL=2 and throughput-window gating")
	playCmd.Flags().StringVar(&playStatusAddr, "status-addr", "", "serve a live status report on this address (empty falls back to the status.* config)")
	playCmd.Flags().StringVar(&playHistoryDB, "history-db", "", "sqlite DSN for session-history persistence (empty falls back to the store.* config)")
	playCmd.Flags().IntVar(&playPEPMaxConns, "pep-max-conns", 0, "accepted but not used by play; dashpep --max-conns bounds PEP tunnels")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyPlayFlags(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	destDir, err := os.MkdirTemp(cfg.Playback.OutputDir, "TEMP_*")
	if err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	if !cfg.Playback.KeepSegments {
		defer os.RemoveAll(destDir)
	}

	proxyAddr := ""
	if cfg.PEP.Enabled {
		proxyAddr = fmt.Sprintf("%s:%d", cfg.PEP.ListenHost, cfg.PEP.ListenPort)
	}
	client := newHTTPClient(cfg.HTTP, proxyAddr, playBufferSize)

	adapter := catalog.NewMPDAdapter(client)
	cat, err := adapter.Fetch(ctx, cfg.Playback.ManifestURL)
	if err != nil {
		return fmt.Errorf("fetching manifest: %w", err)
	}
	if cfg.Playback.SegmentDuration > 0 {
		cat.SegmentDuration = cfg.Playback.SegmentDuration.Seconds()
	}

	rep := report.New(cfg.Playback.ManifestURL, cfg.ABR.Strategy, cat.Bitrates())
	hostStart, hostErr := report.CollectHostSnapshot(ctx, nil)
	if hostErr != nil {
		appLogger.Debug("host network counters unavailable", slog.Any("error", hostErr))
	}

	var sessionStore *store.Store
	if playHistoryDB != "" || cfg.Store.Enabled {
		storeCfg := cfg.Store
		if playHistoryDB != "" {
			storeCfg.Enabled = true
			storeCfg.DSN = playHistoryDB
		}
		sessionStore, err = store.Open(storeCfg, appLogger)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer sessionStore.Close()
	}

	if playStatusAddr != "" || cfg.Status.Enabled {
		addr := cfg.Status.Addr
		if playStatusAddr != "" {
			addr = playStatusAddr
		}
		statusSrv := statusserver.New(statusserver.Config{Addr: addr}, func() any { return rep }, appLogger)
		go func() {
			if srvErr := statusSrv.Start(); srvErr != nil {
				appLogger.Error("status server stopped", slog.Any("error", srvErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), statusserver.DefaultShutdownTimeout)
			defer cancel()
			_ = statusSrv.Shutdown(shutdownCtx)
		}()
	}

	histRec := &store.SessionRecord{
		StartedAt:       time.Now(),
		ManifestURL:     cfg.Playback.ManifestURL,
		Strategy:        cfg.ABR.Strategy,
		MinBitrate:      cat.MinBitrate(),
		MaxBitrate:      cat.MaxBitrate(),
		FinalBitrate:    cat.MinBitrate(),
		PEPEnabled:      cfg.PEP.Enabled,
		ConcurrentFetch: cfg.ABR.MaxParallel > 1,
	}

	var session *scheduler.SessionContext
	if cfg.ABR.Strategy == "all" {
		err = runBulkDownload(ctx, cat, client, destDir, rep)
	} else {
		session, err = runAdaptiveSession(ctx, cfg, cat, client, destDir, rep)
	}

	histRec.FinishedAt = time.Now()
	histRec.SegmentsPlayed = len(rep.Segments)
	for _, seg := range rep.Segments {
		histRec.BytesDownloaded += seg.Size
	}
	histRec.ShiftUps = rep.ShiftUps
	histRec.ShiftDowns = rep.ShiftDowns
	if session != nil {
		histRec.FinalBitrate = session.CurrentBitrate()
	}
	if err != nil {
		histRec.Aborted = true
		histRec.AbortReason = err.Error()
	}
	if sessionStore != nil {
		if recErr := sessionStore.Record(ctx, histRec); recErr != nil {
			appLogger.Error("recording session history", slog.Any("error", recErr))
		}
	}

	if hostStart != nil {
		if hostEnd, endErr := report.CollectHostSnapshot(context.Background(), hostStart); endErr == nil {
			rep.SetHostNetwork(hostEnd)
		}
	}

	if writeErr := writeReportFile(cfg.Playback.OutputDir, rep); writeErr != nil {
		appLogger.Error("writing report", slog.Any("error", writeErr))
	}

	if err != nil {
		return fmt.Errorf("playback session: %w", err)
	}
	return nil
}

// applyPlayFlags overrides cfg's fields with any play-specific flags the
// user set explicitly, following the same direct-assignment pattern
// loadConfig uses for the persistent logging flags.
func applyPlayFlags(cfg *config.Config) {
	cfg.Playback.ManifestURL = playMPD
	if playStrategy != "" {
		cfg.ABR.Strategy = playStrategy
	}
	if playUsePEP {
		cfg.PEP.Enabled = true
		if playPEPHost != "" {
			cfg.PEP.ListenHost = playPEPHost
		}
		if playPEPPort > 0 {
			cfg.PEP.ListenPort = playPEPPort
		}
	}
	if playUseConcurrent {
		cfg.ABR.MaxParallel = 2
	}
	if playDownload {
		cfg.Playback.KeepSegments = true
	}
}

// runAdaptiveSession drives the normal scheduler loop against one ABR
// strategy, then runs a playback timer that drains the buffer in step
// with the segment clock, folding every dequeued record into rep.
func runAdaptiveSession(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, client *httpclient.Client, destDir string, rep *report.Report) (*scheduler.SessionContext, error) {
	windowSize := cfg.Buffer.ThroughputW
	if windowSize <= 0 {
		windowSize = throughput.DefaultWindowSize
	}

	netflixParams := abr.DefaultNetflixParams(cfg.Buffer.InitialFill)
	netflixParams.Reservoir = cfg.ABR.NetflixReservoir
	netflixParams.Cushion = cfg.ABR.NetflixCushion
	netflixParams.InitialFactor = cfg.ABR.NetflixInitialFactor
	session := scheduler.NewSessionContext(cat, abr.Strategy(cfg.ABR.Strategy), netflixParams, cfg.ABR.SARASafety, windowSize)

	buf := buffer.New(buffer.Config{
		Capacity:        cfg.Buffer.Size,
		InitialBuffer:   cfg.Buffer.InitialFill,
		SegmentLimit:    playSegmentLimit,
		SegmentDuration: cat.SegmentDuration,
	})

	dl := downloader.New(client, session.Window,
		downloader.WithTimeout(cfg.HTTP.Timeout),
		downloader.WithSampleInterval(cfg.HTTP.SampleInterval),
		downloader.WithLogger(appLogger))

	sched := scheduler.New(session, buf, dl, scheduler.Config{
		MaxParallel:  cfg.ABR.MaxParallel,
		SegmentLimit: playSegmentLimit,
		DestDir:      destDir,
	}, appLogger)

	var wg sync.WaitGroup
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = sched.Run(ctx)
	}()

	playoutDone := make(chan struct{})
	go func() {
		defer close(playoutDone)
		playoutReport(buf, cat, rep)
	}()

	wg.Wait()
	buf.Stop() // unblocks the playout loop if the scheduler exited before the buffer drained
	<-playoutDone

	shiftUps, shiftDowns, _ := session.Stats()
	rep.SetShiftCounts(shiftUps, shiftDowns)

	return session, runErr
}

// playoutReport ticks the playback buffer at playbackTick cadence,
// recording every dequeued segment into rep, until the buffer reaches a
// terminal state.
func playoutReport(buf *buffer.Buffer, cat *catalog.Catalog, rep *report.Report) {
	for {
		if rec, ok := buf.Tick(playbackTick.Seconds()); ok {
			url := segmentURL(cat, rec.Bitrate, rec.Index)
			rep.AddSegment(url, rec.SizeBytes, rec.DownloadSeconds, time.Now())
		}
		if buf.IsTerminal() {
			return
		}
		time.Sleep(playbackTick)
	}
}

func segmentURL(cat *catalog.Catalog, bitrate int64, index int) string {
	rep, ok := cat.Representation(bitrate)
	if !ok {
		return ""
	}
	offset := index - rep.Start
	if offset < 0 || offset >= len(rep.Segments) {
		return ""
	}
	return rep.Segments[offset]
}

// runBulkDownload implements the "all" playback mode: every representation
// is fetched in full with bounded parallelism, bypassing the ABR loop and
// the playback buffer entirely.
func runBulkDownload(ctx context.Context, cat *catalog.Catalog, client *httpclient.Client, destDir string, rep *report.Report) error {
	window := throughput.NewWindow(throughput.DefaultWindowSize)
	dl := downloader.New(client, window, downloader.WithLogger(appLogger))

	sem := semaphore.NewWeighted(bulkParallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, bw := range cat.Bitrates() {
		repVariant, ok := cat.Representation(bw)
		if !ok {
			continue
		}
		for offset, segURL := range repVariant.Segments {
			index := repVariant.Start + offset
			segURL := segURL

			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				start := time.Now()
				res, err := dl.Fetch(ctx, index, segURL, destDir)
				if err != nil {
					appLogger.Warn("bulk segment failed", slog.Int("index", index), slog.Any("error", err))
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}

				mu.Lock()
				rep.AddSegment(segURL, res.BytesWritten, res.Duration.Seconds(), start)
				mu.Unlock()
			}()
		}
	}

	wg.Wait()
	return firstErr
}

// writeReportFile writes rep as JSON into outputDir (or the working
// directory when outputDir is unset).
func writeReportFile(outputDir string, rep *report.Report) error {
	path := "dashabr-report.json"
	if outputDir != "" {
		path = filepath.Join(outputDir, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	return rep.WriteJSON(f)
}
