package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/3Eeeecho/go-datahub/internal/apiclient"
	"github.com/3Eeeecho/go-datahub/internal/ingest"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/spf13/cobra"
)

func UploadCmd(c *cli) *cobra.Command {
	var (
		workers   int
		noPreview bool
	)
	cmd := &cobra.Command{
		Use:   "upload <dataset-id> <folder>",
		Short: "Upload a local folder into a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireToken(); err != nil {
				return err
			}
			id, folder := args[0], args[1]
			if info, err := os.Stat(folder); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", folder)
			}

			client := c.client()
			if _, err := client.GetDataset(cmd.Context(), id); err != nil {
				if apiclient.IsNotFound(err) {
					return fmt.Errorf("dataset %q not found, create it first with: datahub create", id)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(filepath.Join(folder, ".git")); err == nil {
				fmt.Fprintln(out, "Note: .git directory detected and will be ignored")
			}
			files, err := ingest.Scan(folder)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No files to upload after filtering")
				return nil
			}
			total := len(files)
			fmt.Fprintf(out, "Uploading %d files (%s) to %s\n", total, utils.FormatFileSize(ingest.TotalSize(files)), id)

			opts := ingest.Options{Workers: workers}
			if !noPreview {
				opts.Previewer = ingest.NewDuckDBPreviewer()
			}
			var done atomic.Int64
			opts.Progress = func(f ingest.LocalFile, err error) {
				n := done.Add(1)
				status := "ok"
				if err != nil {
					status = "FAILED: " + err.Error()
				}
				fmt.Fprintf(out, "[%d/%d] %s %s\n", n, total, f.RelPath, status)
			}

			res, err := ingest.Upload(cmd.Context(), client, id, files, opts)
			for _, f := range res.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.File.RelPath, f.Err)
			}
			if errors.Is(err, ingest.ErrAllFailed) {
				return fmt.Errorf("all %d files failed to upload", total)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Uploaded %d files (%s), %d failed\n", res.Registered, utils.FormatFileSize(res.TotalSize), len(res.Failed))
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", ingest.DefaultWorkers, "number of parallel uploads")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "skip parquet preview extraction")
	return cmd
}
