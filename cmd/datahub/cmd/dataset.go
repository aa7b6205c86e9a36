package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/spf13/cobra"
)

func ListCmd(c *cli) *cobra.Command {
	var (
		query  string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.client().ListDatasets(cmd.Context(), query, limit, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list.Items) == 0 {
				fmt.Fprintln(out, "No datasets found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tSIZE\tDOWNLOADS\tUPDATED")
			for _, d := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", d.ID, d.Name, d.Author, d.Size, d.Downloads, d.UpdatedAt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d datasets\n", len(list.Items), list.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search keyword")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of datasets to skip")
	return cmd
}

func InfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info <dataset-id>",
		Short: "Show dataset details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.client().GetDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if d.Dataset == nil {
				return fmt.Errorf("dataset %s: empty response", args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			rows := [][2]string{
				{"ID", d.ID},
				{"Name", d.Name},
				{"Author", d.Author},
				{"Description", truncate(d.Description, 100)},
				{"Tags", strings.Join(d.Tags, ", ")},
				{"Task", d.Task},
				{"Format", d.Format},
				{"License", d.License},
				{"Language", d.Language},
				{"Size", d.Size},
				{"Rows", fmt.Sprint(d.Rows)},
				{"Files", fmt.Sprint(d.FileCount)},
				{"Downloads", fmt.Sprint(d.Downloads)},
				{"Likes", fmt.Sprint(d.Likes)},
				{"Updated", d.UpdatedAt},
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
			}
			for _, s := range d.Splits {
				fmt.Fprintf(w, "Split\t%s (%d rows)\n", s.Name, s.Rows)
			}
			for _, f := range d.Features {
				fmt.Fprintf(w, "Feature\t%s: %s\n", f.Name, f.Type)
			}
			return w.Flush()
		},
	}
}

func CreateCmd(c *cli) *cobra.Command {
	var req models.CreateDatasetRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dataset (metadata only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireToken(); err != nil {
				return err
			}
			d, err := c.client().CreateDataset(cmd.Context(), &req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset created: %s\n", d.ID)
			fmt.Fprintf(out, "Upload files with: datahub upload %s /path/to/folder\n", d.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "dataset name")
	f.StringVar(&req.Author, "author", "", "author or organization")
	f.StringVar(&req.Description, "description", "", "markdown description")
	f.StringSliceVar(&req.Tags, "tags", nil, "comma separated tags")
	f.StringVar(&req.License, "license", "", "license, defaults to MIT on the server")
	f.StringVar(&req.Task, "task", "", "task category")
	f.StringVar(&req.Format, "format", "", "data format, defaults to parquet on the server")
	f.StringVar(&req.Language, "language", "", "language")
	for _, name := range []string{"name", "author", "description"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func DeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <dataset-id>",
		Short: "Delete a dataset and all of its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireToken(); err != nil {
				return err
			}
			id := args[0]
			if !yes {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete dataset %q? [y/N] ", id)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			if err := c.client().DeleteDataset(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
