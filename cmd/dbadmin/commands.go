package main

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hatlonely/dbadmin/app"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/admin"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP admin server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summaries, err := a.Admin.ListTables(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, summaries)
			})
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				table, ok, err := a.Admin.GetTableMetadata(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return rdb.ErrTableNotFound(args[0])
				}
				return printJSON(cmd, table)
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		page   int
		limit  int
		sort   string
		desc   bool
		filter string
	)
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List one page of rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := admin.QuerySpec{Page: page, Limit: limit, Filter: filter}
			if sort != "" {
				spec.Sort = &admin.Sort{Column: sort, Direction: admin.SortAsc}
				if desc {
					spec.Sort.Direction = admin.SortDesc
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Admin.List(ctx, args[0], spec)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", admin.DefaultLimit, "Rows per page, at most 100")
	cmd.Flags().StringVar(&sort, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort in descending order")
	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive substring matched against text columns")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Show a row by primary key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				row, err := a.Admin.Get(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd, row)
			})
		},
	}
}

func newInsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Insert a row and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data record.Record
			if err := parseJSON(args[1], &data); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				row, err := a.Admin.Insert(ctx, args[0], data)
				if err != nil {
					return err
				}
				return printJSON(cmd, row)
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <json>",
		Short: "Update the given columns of a row",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data record.Record
			if err := parseJSON(args[2], &data); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				row, err := a.Admin.UpdateRow(ctx, args[0], args[1], data)
				if err != nil {
					return err
				}
				return printJSON(cmd, row)
			})
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <table> <id> <column> <json-value>",
		Short: "Update a single cell",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := parseJSON(args[3], &value); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				row, err := a.Admin.UpdateCell(ctx, args[0], args[1], args[2], value)
				if err != nil {
					return err
				}
				return printJSON(cmd, row)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a row by primary key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Admin.Delete(ctx, args[0], args[1]); err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"deleted": args[1]})
			})
		},
	}
}

// parseJSON 数字保留为 json.Number
func parseJSON(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(err, "invalid json %q", s)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
