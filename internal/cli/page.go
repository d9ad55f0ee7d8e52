package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/cursor"
	"github.com/roach88/timeline/internal/paging"
	"github.com/roach88/timeline/internal/record"
)

// PageOptions holds flags for the page command.
type PageOptions struct {
	*RootOptions
	Database string
	Before   string
	After    string
	Limit    int
	OrderBy  string
}

// PageResult is the output of the page command.
type PageResult struct {
	Collection string          `json:"collection"`
	OrderField string          `json:"order_field"`
	Records    []record.Record `json:"records"`
	Older      string          `json:"older_cursor,omitempty"`
	Newer      string          `json:"newer_cursor,omitempty"`
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "page <collection>",
		Short: "Print one page of a collection",
		Long: `Print one page of a collection, newest first.

Without a cursor the newest page is printed. Pass the older cursor of a
page as --before to continue towards older records, or the newer cursor
as --after to walk back.

Example:
  timeline page notes --limit 10
  timeline page notes --before "2024-01-01+00%3A00%3A14.000000"
  timeline page notes --order-by created_at --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPage(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "cursor: show records at or before this point")
	cmd.Flags().StringVar(&opts.After, "after", "", "cursor: show records at or after this point")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (default from config)")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "order field: updated_at or created_at (default from config)")
	cmd.MarkFlagsMutuallyExclusive("before", "after")

	return cmd
}

func runPage(opts *PageOptions, collection string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(opts.Database)
	if err != nil {
		return err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())
	out := opts.formatter(cmd)

	if !cfg.AllowsCollection(collection) {
		return fail(out, codeNotFound, ExitCommandError,
			fmt.Errorf("collection %q is not served", collection))
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	q := paging.Query{
		Collection: collection,
		OrderField: cfg.OrderField(),
		PageSize:   cfg.Paging.DefaultPageSize,
		Before:     opts.Before,
		After:      opts.After,
	}
	if opts.Limit != 0 {
		q.PageSize = opts.Limit
	}
	if opts.OrderBy != "" {
		q.OrderField = record.Field(opts.OrderBy)
	}

	p := paging.New(st,
		paging.WithMaxPageSize(cfg.Paging.MaxPageSize),
		paging.WithLogger(logger),
	)
	page, err := p.FetchPage(cmd.Context(), q)
	if err != nil {
		return failFor(out, err)
	}

	out.VerboseLog("fetched %d record(s) from %s", len(page.Records), collection)
	return out.Success(&PageResult{
		Collection: collection,
		OrderField: string(q.OrderField),
		Records:    page.Records,
		Older:      page.Older,
		Newer:      page.Newer,
	})
}

// WriteText renders the page as a table followed by its cursors.
func (r *PageResult) WriteText(w io.Writer) error {
	if len(r.Records) == 0 {
		fmt.Fprintln(w, "No records.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED_AT\tUPDATED_AT\tATTRS")
		for _, rec := range r.Records {
			attrs, err := record.MarshalCanonical(rec.Attrs)
			if err != nil {
				return fmt.Errorf("record %q: %w", rec.ID, err)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				rec.ID,
				rec.CreatedAt.Format(cursor.Layout),
				rec.UpdatedAt.Format(cursor.Layout),
				attrs)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if r.Older != "" {
		fmt.Fprintf(w, "older: --before %s\n", r.Older)
	}
	if r.Newer != "" {
		fmt.Fprintf(w, "newer: --after %s\n", r.Newer)
	}
	return nil
}
