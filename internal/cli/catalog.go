package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/builder"
	"github.com/roach88/tracegraph/internal/store"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Database string
	Partial  bool
	Encoding string
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Store trace documents in a SQLite catalog",
		Long: `Keep validated trace documents by name in a SQLite database.

Documents are stored as compressed canonical JSON together with their
content digest, so identical traces stored under different names can be
found.

Examples:
  tracegraph catalog put simple "sample:Simple graph" --db ./traces.db
  tracegraph catalog list --db ./traces.db
  tracegraph catalog get simple --db ./traces.db --encoding yaml
  tracegraph catalog rm simple --db ./traces.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	put := &cobra.Command{
		Use:           "put <name> <document>",
		Short:         "Validate a document and store it under name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogPut(opts, args[0], args[1], cmd)
		},
	}
	put.Flags().BoolVar(&opts.Partial, "partial", false, "load missing or malformed sections as empty")

	get := &cobra.Command{
		Use:           "get <name>",
		Short:         "Print a stored document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogGet(opts, args[0], cmd)
		},
	}
	get.Flags().StringVar(&opts.Encoding, "encoding", "json", "document encoding (json|yaml|cue)")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored documents, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}

	rm := &cobra.Command{
		Use:           "rm <name>",
		Short:         "Remove a stored document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogRemove(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(put, get, list, rm)
	return cmd
}

func openCatalog(opts *CatalogOptions, formatter *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, reportError(formatter, "failed to open database",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	return st, nil
}

func runCatalogPut(opts *CatalogOptions, name, source string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	tr, err := loadForCommand(opts.RootOptions, source, opts.Partial, cmd)
	if err != nil {
		return reportError(formatter, "failed to load trace", err)
	}

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := st.Put(ctx, name, tr.Document())
	if err != nil {
		return reportError(formatter, "failed to store document",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	same, err := st.FindByDigest(ctx, entry.Digest)
	if err != nil {
		return reportError(formatter, "failed to look up digest",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	for _, other := range same {
		if other.Name != name {
			logger.Info("identical document already stored",
				slog.String("name", name),
				slog.String("other", other.Name),
				slog.String("digest", entry.Digest))
		}
	}

	return formatter.Result(entry, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "stored %s (%d nodes, %d modifications) %s\n",
			entry.Name, entry.Nodes, entry.Modifications, entry.Digest)
		return err
	})
}

func runCatalogGet(opts *CatalogOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, _, err := st.Get(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return reportError(formatter, "document not found",
			&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no document named %q", name)})
	}
	if err != nil {
		return reportError(formatter, "failed to read document",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	data, err := builder.EncodeDocument(doc, builder.Format(opts.Encoding))
	if err != nil {
		return reportError(formatter, "failed to encode document", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runCatalogList(opts *CatalogOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(ctx)
	if err != nil {
		return reportError(formatter, "failed to list documents",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	return formatter.Result(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No documents stored.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tNODES\tMODIFICATIONS\tINCREMENTS\tDIGEST")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", e.Name, e.Nodes, e.Modifications, e.Increments, e.Digest)
		}
		return tw.Flush()
	})
}

func runCatalogRemove(opts *CatalogOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.Delete(ctx, name)
	if err != nil {
		return reportError(formatter, "failed to remove document",
			&LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	if !removed {
		return reportError(formatter, "document not found",
			&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no document named %q", name)})
	}

	return formatter.Result(map[string]string{"removed": name}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "removed %s\n", name)
		return err
	})
}
