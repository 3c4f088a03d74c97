package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poku-e/partyloader/internal/config"
)

var (
	configPath string
	flagSource string
	flagNS     string
	flagFile   string
	flagQuiet  bool

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partyloader",
	Short: "Inject party member data into character pages",
	Long: `partyloader binds a party data file (party.json) to data-path markers in
character pages. Each page is rendered in one pass: the character is taken
from a data-character attribute or the page file name, its record is read
from the data file, and every marked element is filled in.

If anything goes wrong the page keeps its hardcoded content.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a partyloader.yml settings file")
	pf.StringVar(&flagSource, "source", "", "Party data location, overriding the derived one")
	pf.StringVar(&flagNS, "namespace", "", "Directory name marking the site root (default \"dnd\")")
	pf.StringVar(&flagFile, "data-file", "", "Party data file name (default \"party.json\")")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress loader log output")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pf := cmd.Flags()
	if pf.Changed("source") {
		c.Source = flagSource
	}
	if pf.Changed("namespace") {
		c.Namespace = flagNS
	}
	if pf.Changed("data-file") {
		c.DataFile = flagFile
	}
	if pf.Changed("quiet") {
		c.Quiet = flagQuiet
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = c
	return nil
}
