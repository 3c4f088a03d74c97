package commands

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/poku-e/partyloader/internal/printer"
	"github.com/poku-e/partyloader/internal/record"
	"github.com/poku-e/partyloader/internal/source"
)

var pathsCmd = &cobra.Command{
	Use:   "paths DATA [CHARACTER]",
	Short: "List the bindable paths of a character",
	Long: `Read a party data file (local path or http(s) URL) and print every path
of CHARACTER's record with its value, ready to use in data-path attributes.

Without CHARACTER the keys of all characters are listed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	loc, err := dataURL(args[0])
	if err != nil {
		return err
	}
	ds, err := source.SchemeLoader{}.Load(cmd.Context(), loc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		for _, k := range ds.Keys() {
			fmt.Fprintln(out, k)
		}
		return nil
	}

	key := strings.ToLower(args[1])
	rec, ok := ds.Character(key)
	if !ok {
		return printer.Error(fmt.Sprintf("Character %q not found", key), "known: "+strings.Join(ds.Keys(), ", "))
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range record.Flatten(rec.Value) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Path, l.Value.Kind(), l.Value.String())
	}
	return tw.Flush()
}

func dataURL(arg string) (*url.URL, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return url.Parse(arg)
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	return source.FileURL(abs), nil
}
