package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sealwatch/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap daemon.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Printf("watching: %s\n", snap.WatchDir)
		fmt.Printf("sink:     %s (remote: %t)\n", snap.Sink, snap.Remote)
		fmt.Printf("uptime:   %s\n", time.Since(snap.StartedAt).Round(time.Second))
		fmt.Printf("sealed:   %d\n", snap.Sealed)
		fmt.Printf("failed:   %d\n", snap.Failed)

		if snap.LastDelivery != nil {
			fmt.Printf("last delivery: %s\n", snap.LastDelivery.Format("2006-01-02 15:04:05"))
		}
		if snap.LastError != "" {
			fmt.Printf("last error: %s\n", snap.LastError)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
