package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certportal/certportal/internal/bulk"
	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/issuance"
)

var (
	bulkCSV    string
	bulkIDs    []string
	bulkFormat string
	bulkOut    string
	bulkPacing time.Duration
	bulkName   string
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Bulk certificate creation and downloads",
}

var bulkCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create certificates from a CSV file",
	Long: `Creates certificates from a CSV with the columns
Name,Phone,Course,Category,Batch,IssueDate. A header row is optional.
Rows without a name or phone are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bulkCSV == "" {
			return errors.New("--csv is required")
		}
		f, err := os.Open(bulkCSV)
		if err != nil {
			return err
		}
		defer f.Close()

		parsed, err := bulk.ParseCSV(f)
		if err != nil {
			return err
		}
		if parsed.Skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d rows without name or phone\n", parsed.Skipped)
		}
		if len(parsed.Records) == 0 {
			return errors.New("no usable rows in CSV")
		}

		rep, createErr := bulk.NewCreator(newClient(), logger.Named("bulk")).Create(rootCtx, parsed.Records)
		if err := render(cmd.OutOrStdout(), viper.GetString(keyOutput), rep, func(w io.Writer) {
			printReport(w, rep)
		}); err != nil {
			return err
		}
		return createErr
	},
}

var bulkDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download documents one at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(bulkIDs) == 0 {
			return errors.New("--ids is required")
		}
		format := domain.DownloadFormat(bulkFormat)
		if format != domain.FormatPDF && format != domain.FormatJPG {
			return fmt.Errorf("unknown format %q (want pdf or jpg)", bulkFormat)
		}

		dl := bulk.NewDownloader(newClient(), issuance.DirSaver{Dir: bulkOut},
			bulk.WithPacing(bulkPacing),
			bulk.WithDownloadLogger(logger.Named("download")),
		)
		rep, err := dl.DownloadEach(rootCtx, bulkIDs, format)
		if rerr := render(cmd.OutOrStdout(), viper.GetString(keyOutput), rep, func(w io.Writer) {
			printReport(w, rep)
		}); rerr != nil {
			return rerr
		}
		return err
	},
}

var bulkZipCmd = &cobra.Command{
	Use:   "zip",
	Short: "Download documents as a single zip archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		dl := bulk.NewDownloader(newClient(), issuance.DirSaver{Dir: bulkOut},
			bulk.WithDownloadLogger(logger.Named("download")))
		path, err := dl.DownloadZip(rootCtx, bulkIDs, bulkName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

func init() {
	bulkCreateCmd.Flags().StringVar(&bulkCSV, "csv", "", "CSV file to upload")

	for _, c := range []*cobra.Command{bulkDownloadCmd, bulkZipCmd} {
		c.Flags().StringSliceVar(&bulkIDs, "ids", nil, "document IDs, comma separated")
		c.Flags().StringVar(&bulkOut, "out", ".", "output directory")
	}
	bulkDownloadCmd.Flags().StringVar(&bulkFormat, "format", string(domain.FormatPDF), "pdf or jpg")
	bulkDownloadCmd.Flags().DurationVar(&bulkPacing, "pacing", bulk.DefaultPacing, "pause between downloads")
	bulkZipCmd.Flags().StringVar(&bulkName, "name", "", "archive file name")

	bulkCmd.AddCommand(bulkCreateCmd, bulkDownloadCmd, bulkZipCmd)
}
