package commands

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/poku-e/partyloader/internal/printer"
	"github.com/poku-e/partyloader/internal/server"
)

var (
	serveRoot string
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a character site with data filled in",
	Long: `Serve the files under --root. Every HTML page is rendered with its party
data before it is returned; other files are served as they are.

GET /api/characters lists the character keys in the data file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRoot, "root", "", "Site root directory (default \".\")")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default \":8080\")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("root") {
		cfg.Root = serveRoot
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return printer.Error("Site root not found", root)
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(server.Options{
			FS:     os.DirFS(root),
			Source: cfg.SourceOptions(),
			Logger: printer.Logger(cfg.Quiet),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-cmd.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	printer.Step("serving %s\n", root)
	log.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
