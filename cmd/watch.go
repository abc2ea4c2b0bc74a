package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sealwatch/internal/crypt"
	"sealwatch/internal/daemon"
	"sealwatch/internal/logger"
	"sealwatch/internal/pipeline"
	"sealwatch/internal/sink"
	"sealwatch/internal/watcher"
)

var (
	useGDrive  bool
	useDropbox bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured directory and seal new files",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	// CLI selector overrides config; choosing one provider disables the other.
	if useGDrive {
		cfg.GDrive.Enabled = true
		cfg.Dropbox.Enabled = false
	}
	if useDropbox {
		cfg.Dropbox.Enabled = true
		cfg.GDrive.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	sealer, err := crypt.NewSealer(cfg.KeyringDir, cfg.KeyID)
	if err != nil {
		return err
	}

	snk, err := newSink()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := snk.Connect(ctx); err != nil {
		return err
	}

	w, err := watcher.New(cfg.BufferSize)
	if err != nil {
		return err
	}
	if err := w.Watch(cfg.WatchDir); err != nil {
		return err
	}

	events := pipeline.Filter(
		pipeline.Debounce(w.Events(), cfg.DebounceDelay),
		cfg.Extensions)

	proc := pipeline.NewProcessor(cfg, sealer, snk)
	results := proc.Run(ctx, events)

	state := daemon.NewState(cfg.WatchDir, snk.Name(), snk.Remote())
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for result := range results {
			state.Record(result)
		}
	}()

	srv := daemon.NewServer(state, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("sealwatch started",
		zap.String("watch_dir", cfg.WatchDir),
		zap.String("key_id", sealer.KeyID()),
		zap.String("sink", snk.Name()),
		zap.Bool("delete_original", cfg.DeleteOriginal))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	// Stop accepting events immediately, then let in-flight workers finish
	// their current stage before exiting.
	w.Stop()
	<-drained

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}

	logger.Log.Info("sealwatch stopped")
	return nil
}

func newSink() (sink.Sink, error) {
	switch {
	case cfg.GDrive.Enabled:
		return sink.NewGDrive(cfg.GDrive.Folder, cfg.GDrive.Credentials), nil
	case cfg.Dropbox.Enabled:
		return sink.NewDropbox(cfg.Dropbox.Folder, cfg.Dropbox.AccessToken), nil
	default:
		return sink.NewLocal(cfg.DestDir)
	}
}

func init() {
	watchCmd.Flags().BoolVar(&useGDrive, "gdrive", false, "Deliver to Google Drive")
	watchCmd.Flags().BoolVar(&useDropbox, "dropbox", false, "Deliver to Dropbox")
	watchCmd.MarkFlagsMutuallyExclusive("gdrive", "dropbox")
	rootCmd.AddCommand(watchCmd)
}
