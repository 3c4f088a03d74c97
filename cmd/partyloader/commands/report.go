package commands

import (
	"github.com/spf13/cobra"

	"github.com/poku-e/partyloader/internal/printer"
	"github.com/poku-e/partyloader/internal/record"
	"github.com/poku-e/partyloader/internal/report"
)

var (
	reportOut string
	reportURL string
)

var reportCmd = &cobra.Command{
	Use:   "report PAGE",
	Short: "Write a table of every binding on a page",
	Long: `Run one rendering pass over PAGE and write what each marked element
resolved to and what was done with it.

--out must end in .csv or .xlsx. The xlsx report also lists every path in
the character's record on a second sheet, which helps when writing
data-path attributes.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Report file, .csv or .xlsx (required)")
	reportCmd.Flags().StringVar(&reportURL, "url", "", "URL the page is served at, used to locate the data file")
	_ = reportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	page, err := openPage(cmd, args[0], reportURL)
	if err != nil {
		return err
	}

	var leaves []record.Leaf
	e := newEngine()
	e.OnLoad = func(_ string, rec *record.Record) {
		leaves = record.Flatten(rec.Value)
	}
	outcomes := e.Run(cmd.Context(), page)

	if err := report.Write(reportOut, outcomes, leaves); err != nil {
		return printer.Error("Report failed", err.Error())
	}
	if !cfg.Quiet {
		printer.Success("%d bindings -> %s\n", len(outcomes), reportOut)
	}
	return nil
}
