package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/3Eeeecho/go-datahub/internal/apiclient"
	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/navigator"
	"github.com/spf13/cobra"
)

func LsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ls <dataset-id> [path]",
		Short: "List one folder of a dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			nav := navigator.New(c.client(), args[0], limit)
			st, err := nav.LoadAll(cmd.Context(), path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, item := range st.Children {
				if item.IsDirectory {
					fmt.Fprintf(w, "%s/\t%d files\n", item.Name, item.ChildCount)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.Name, item.Size, item.Type)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "page size used while walking the folder")
	return cmd
}

func TreeCmd(c *cli) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree <dataset-id> [path]",
		Short: "Print the folder tree of a dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			out := cmd.OutOrStdout()
			nav := navigator.New(c.client(), args[0], 200)
			return nav.Walk(cmd.Context(), path, depth, func(item models.FileTreeItem, level int) error {
				indent := strings.Repeat("  ", level)
				if item.IsDirectory {
					_, err := fmt.Fprintf(out, "%s%s/ (%d)\n", indent, item.Name, item.ChildCount)
					return err
				}
				_, err := fmt.Fprintf(out, "%s%s  %s\n", indent, item.Name, item.Size)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", -1, "maximum depth below the start folder, -1 for unlimited")
	return cmd
}

func PreviewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <dataset-id> <path>",
		Short: "Print the preview of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.client().GetPreview(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), p)
		},
	}
}

func printPreview(out io.Writer, p *apiclient.Preview) error {
	switch p.Type {
	case models.FileTypeJSON, models.FileTypeMarkdown:
		fmt.Fprintln(out, p.Content)
		if p.ParseError {
			fmt.Fprintln(out, "(not valid JSON, shown as text)")
		}
		if p.Truncated {
			fmt.Fprintln(out, "(truncated)")
		}
	case models.FileTypeMP4:
		fmt.Fprintf(out, "Video URL: %s\n", p.VideoURL)
	case models.FileTypeParquet:
		if p.Error != "" || len(p.ParquetPreview) == 0 {
			fmt.Fprintln(out, p.Error)
			return nil
		}
		var table models.ParquetPreview
		if err := json.Unmarshal(p.ParquetPreview, &table); err != nil {
			return fmt.Errorf("decode parquet preview: %w", err)
		}
		return printTable(out, &table)
	default:
		fmt.Fprintln(out, p.Error)
	}
	return nil
}

func printTable(out io.Writer, t *models.ParquetPreview) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = truncate(formatCell(row[col]), 40)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d rows\n", len(t.Rows), t.TotalRows)
	return nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
