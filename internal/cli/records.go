package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/cursor"
	"github.com/roach88/timeline/internal/paging"
	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/store"
)

// Error codes in JSON output.
const (
	codeInvalidAttrs  = "INVALID_ATTRS"
	codeInvalidRecord = "INVALID_RECORD"
	codeNotFound      = "NOT_FOUND"
	codeUnavailable   = "UNAVAILABLE"
	codeInternal      = "INTERNAL"
)

// RecordOptions holds flags for the add and touch commands.
type RecordOptions struct {
	*RootOptions
	Database string
	Attrs    string
}

// RecordResult is the output of the add and touch commands.
type RecordResult struct {
	record.Record
}

// WriteText prints the record's identity and timestamps.
func (r *RecordResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s created_at=%s updated_at=%s\n",
		r.Collection, r.ID,
		r.CreatedAt.Format(cursor.Layout),
		r.UpdatedAt.Format(cursor.Layout))
	return err
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Add a record to a collection",
		Long: `Add a record to a collection.

The record gets a new UUIDv7 ID and both timestamps set to now.

Example:
  timeline add notes --attrs '{"title":"groceries","done":false}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Attrs, "attrs", "{}", "record attributes as JSON")

	return cmd
}

// NewTouchCommand creates the touch command.
func NewTouchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "touch <id>",
		Short: "Refresh a record's updated_at",
		Long: `Refresh a record's updated_at to now, moving it to the front of
updated_at ordered pages. With --attrs the record's attributes are replaced.

Example:
  timeline touch 01936f7e-8f4a-7cc1-a4b5-4b8d2c6e1f00
  timeline touch 01936f7e-8f4a-7cc1-a4b5-4b8d2c6e1f00 --attrs '{"done":true}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTouch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Attrs, "attrs", "", "replacement attributes as JSON (default: keep)")

	return cmd
}

func runAdd(opts *RecordOptions, collection string, cmd *cobra.Command) error {
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

	attrs, err := record.ParseAttrs([]byte(opts.Attrs))
	if err != nil {
		return fail(out, codeInvalidAttrs, ExitCommandError, fmt.Errorf("invalid --attrs: %w", err))
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	rec, err := st.CreateRecord(cmd.Context(), collection, attrs)
	if err != nil {
		return failFor(out, err)
	}
	logger.Debug("record created", "collection", collection, "id", rec.ID)

	return out.Success(&RecordResult{Record: rec})
}

func runTouch(opts *RecordOptions, id string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(opts.Database)
	if err != nil {
		return err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())
	out := opts.formatter(cmd)

	var attrs record.Attrs
	if opts.Attrs != "" {
		if attrs, err = record.ParseAttrs([]byte(opts.Attrs)); err != nil {
			return fail(out, codeInvalidAttrs, ExitCommandError, fmt.Errorf("invalid --attrs: %w", err))
		}
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	rec, err := st.TouchRecord(cmd.Context(), id, attrs)
	if err != nil {
		return failFor(out, err)
	}
	logger.Debug("record touched", "id", rec.ID, "updated_at", rec.UpdatedAt)

	return out.Success(&RecordResult{Record: rec})
}

// failFor classifies a paging or store error and reports it.
func failFor(out *OutputFormatter, err error) error {
	var perr *paging.Error
	switch {
	case errors.As(err, &perr):
		return fail(out, string(perr.Code), ExitCommandError, err)
	case errors.Is(err, store.ErrInvalid):
		return fail(out, codeInvalidRecord, ExitCommandError, err)
	case errors.Is(err, store.ErrNotFound):
		return fail(out, codeNotFound, ExitCommandError, err)
	case errors.Is(err, store.ErrUnavailable):
		return fail(out, codeUnavailable, ExitFailure, err)
	default:
		return fail(out, codeInternal, ExitFailure, err)
	}
}

// fail writes the JSON error envelope in JSON mode and returns an
// ExitError. Text mode leaves printing to main.
func fail(out *OutputFormatter, code string, exitCode int, err error) error {
	if out.Format == "json" {
		if werr := out.Error(code, err.Error(), nil); werr != nil {
			return werr
		}
	}
	return WrapExitError(exitCode, code, err)
}
