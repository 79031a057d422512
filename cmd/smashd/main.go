// Command smashd runs the HTTP/WebSocket front end: a session registry
// reachable over the network.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smash-term/smash/pkg/config"
	"github.com/smash-term/smash/pkg/server"
	"github.com/smash-term/smash/pkg/termsession"
)

var cfg = config.DefaultConfig()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smashd",
	Short: "smash terminal server",
	Long:  "Serves terminal sessions over HTTP and WebSocket for remote viewers.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "server port")
	rootCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "bind address")
	rootCmd.Flags().StringVar(&cfg.BasicAuthUsername, "username", "", "basic auth username")
	rootCmd.Flags().StringVar(&cfg.BasicAuthPassword, "password", "", "basic auth password")
	rootCmd.Flags().StringVar(&cfg.ControlDir, "control-dir", cfg.ControlDir, "directory for session control files")
}

func run(cmd *cobra.Command, args []string) error {
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !cfg.HasAuth() {
		log.Println("WARNING: no authentication configured")
		log.Println("set SMASH_USERNAME and SMASH_PASSWORD, or --username/--password")
	}

	if err := os.MkdirAll(cfg.ControlDir, 0755); err != nil {
		return fmt.Errorf("failed to create control directory: %v", err)
	}

	registry := termsession.NewRegistry()

	watcher := termsession.NewDirWatcher(cfg.ControlDir, func(id string) {
		// The Create event fires on the session directory itself; its
		// session.json is written a moment later, so give it a few
		// short retries before giving up.
		var err error
		for attempt := 0; attempt < 5; attempt++ {
			if _, err = registry.Reattach(cfg.ControlDir, id); err == nil {
				log.Printf("smashd: reattached external session %s", id)
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		log.Printf("smashd: failed to reattach external session %s: %v", id, err)
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start control directory watcher: %v", err)
	}
	defer watcher.Stop()

	srv := server.New(cfg, registry)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("smashd listening on %s:%d", cfg.Host, cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		log.Println("shutting down")
		return nil
	}
}
