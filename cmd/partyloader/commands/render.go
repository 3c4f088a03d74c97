package commands

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/poku-e/partyloader/internal/binding"
	"github.com/poku-e/partyloader/internal/printer"
	"github.com/poku-e/partyloader/internal/source"
)

var (
	renderOut string
	renderURL string
)

var renderCmd = &cobra.Command{
	Use:   "render PAGE",
	Short: "Render one character page",
	Long: `Render a character page with its party data filled in.

PAGE is a local HTML file or an http(s) URL. The party data file is located
relative to the page (or --url when given), so a local page under
site/dnd/characters/ reads site/dnd/party.json.

The rendered document is written to --out, or stdout when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default stdout)")
	renderCmd.Flags().StringVar(&renderURL, "url", "", "URL the page is served at, used to locate the data file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	page, err := openPage(cmd, args[0], renderURL)
	if err != nil {
		return err
	}

	outcomes := newEngine().Run(cmd.Context(), page)

	out, err := page.Doc.Html()
	if err != nil {
		return fmt.Errorf("render %s: %w", args[0], err)
	}
	if err := writeOutput(renderOut, cmd.OutOrStdout(), []byte(out)); err != nil {
		return err
	}
	if renderOut != "" && !cfg.Quiet {
		printer.Success("%d bindings -> %s\n", len(outcomes), renderOut)
	}
	return nil
}

// openPage reads and parses target. base, when set, replaces the URL the
// page is considered to be served at.
func openPage(cmd *cobra.Command, target, base string) (binding.Page, error) {
	b, u, err := source.ReadPage(cmd.Context(), nil, target)
	if err != nil {
		return binding.Page{}, err
	}
	if base != "" {
		if u, err = url.Parse(base); err != nil {
			return binding.Page{}, fmt.Errorf("parse --url: %w", err)
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return binding.Page{}, fmt.Errorf("parse %s: %w", target, err)
	}
	return binding.Page{Doc: doc, URL: u}, nil
}

func newEngine() *binding.Engine {
	return &binding.Engine{
		Loader:  source.SchemeLoader{},
		Options: cfg.SourceOptions(),
		Logger:  printer.Logger(cfg.Quiet),
	}
}

func writeOutput(path string, stdout io.Writer, b []byte) error {
	if path == "" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
