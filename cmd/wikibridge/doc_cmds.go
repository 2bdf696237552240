package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/store"
)

type documentList []types.DocumentRecord

func (l documentList) header() []string {
	return []string{"ID", "Reference", "Language", "Title", "Objects", "Updated"}
}

func (l documentList) rows() [][]string {
	var rows [][]string
	for _, r := range l {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Reference,
			r.Language,
			r.Title,
			strconv.Itoa(len(r.Objects)),
			r.UpdatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func records(docs []*types.Document) documentList {
	out := documentList{}
	for _, d := range docs {
		out = append(out, d.Record())
	}
	return out
}

func (cli *CLI) docCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Manage stored documents",
	}
	cmd.AddCommand(cli.docSaveCommand(), cli.docGetCommand(), cli.docListCommand(), cli.docRemoveCommand(),
		cli.docExportCommand(), cli.docImportCommand(), cli.docSearchCommand())
	return cmd
}

func (cli *CLI) docSaveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <document>",
		Short: "Create or update a document",
		Long: `Save stores a document translation. Title and content come from the flags
or from --file, a YAML or JSON document record whose objects replace the
objects of the stored document. Flags win over the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.ResolveDocument(args[0], cli.defaultDocument())
			if err != nil {
				return NewReferenceError("save document", args[0], err)
			}
			lang, _ := cmd.Flags().GetString("lang")
			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			doc, err := st.Load(ctx, ref, lang)
			switch {
			case errors.Is(err, store.ErrNotFound):
				doc = types.NewDocument(ref, lang)
			case err != nil:
				return NewStoreError("load document", err)
			}

			if file, _ := cmd.Flags().GetString("file"); file != "" {
				update, err := readRecord(cmd.InOrStdin(), file)
				if err != nil {
					return &CLIError{Operation: "read " + file, Cause: "invalid document record", Details: err.Error(), Underlying: err}
				}
				update.Reference, update.Language = ref.String(), doc.Language
				if err := mergeRecord(doc, update); err != nil {
					return &CLIError{Operation: "read " + file, Cause: "invalid document record", Details: err.Error(), Underlying: err}
				}
			}
			if cmd.Flags().Changed("title") {
				doc.Title, _ = cmd.Flags().GetString("title")
			}
			if cmd.Flags().Changed("content") {
				doc.Content, _ = cmd.Flags().GetString("content")
			}

			if err := st.Save(ctx, doc); err != nil {
				return NewStoreError("save document", err)
			}
			return cli.render(cmd.OutOrStdout(), documentList{doc.Record()})
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation")
	cmd.Flags().String("title", "", "Document title")
	cmd.Flags().String("content", "", "Document content")
	cmd.Flags().String("file", "", "Document record to read, - for stdin")
	return cmd
}

// readRecord decodes a document record. JSON is valid YAML, so both are read
// with the YAML decoder.
func readRecord(stdin io.Reader, file string) (types.DocumentRecord, error) {
	var rec types.DocumentRecord
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return rec, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
		return rec, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// mergeRecord copies title, content and objects of rec into doc. Objects of
// doc missing from rec are removed.
func mergeRecord(doc *types.Document, rec types.DocumentRecord) error {
	update, err := rec.Document()
	if err != nil {
		return err
	}
	if rec.Title != "" {
		doc.Title = update.Title
	}
	if rec.Content != "" {
		doc.Content = update.Content
	}
	for _, old := range doc.Objects {
		if _, kept := update.Object(old.Reference); !kept {
			doc.RemovedObjects = append(doc.RemovedObjects, old)
		}
	}
	doc.Objects = update.Objects
	return nil
}

func (cli *CLI) docGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document|id>",
		Short: "Show a document",
		Long: `Get shows a document translation. A numeric argument is a document id;
negative ids go after "--".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			var doc *types.Document
			if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
				doc, err = st.LoadByID(cmd.Context(), id)
			} else {
				ref, refErr := reference.ResolveDocument(args[0], cli.defaultDocument())
				if refErr != nil {
					return NewReferenceError("get document", args[0], refErr)
				}
				lang, _ := cmd.Flags().GetString("lang")
				doc, err = st.Load(cmd.Context(), ref, lang)
			}
			if err != nil {
				return NewStoreError("get document", err)
			}
			if cli.v.GetString("format") == "table" {
				return cli.render(cmd.OutOrStdout(), documentList{doc.Record()})
			}
			return cli.render(cmd.OutOrStdout(), doc.Record())
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation")
	return cmd
}

func (cli *CLI) docListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts types.ListOptions
			opts.Wiki, _ = cmd.Flags().GetString("wiki")
			opts.Space, _ = cmd.Flags().GetString("space")
			if opts.Space != "" && opts.Wiki == "" {
				return errUsage("--space needs --wiki")
			}
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				opts.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				offset, _ := cmd.Flags().GetInt("offset")
				opts.Offset = &offset
			}

			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			docs, err := st.List(cmd.Context(), opts)
			if err != nil {
				return NewStoreError("list documents", err)
			}
			return cli.render(cmd.OutOrStdout(), records(docs))
		},
	}
	cmd.Flags().String("wiki", "", "Only documents of this wiki")
	cmd.Flags().String("space", "", "Only documents of this space")
	cmd.Flags().Int("limit", 0, "Maximum number of documents")
	cmd.Flags().Int("offset", 0, "Number of documents to skip")
	return cmd
}

func (cli *CLI) docRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <document>",
		Aliases: []string{"delete"},
		Short:   "Delete a document translation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.ResolveDocument(args[0], cli.defaultDocument())
			if err != nil {
				return NewReferenceError("delete document", args[0], err)
			}
			lang, _ := cmd.Flags().GetString("lang")
			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			if err := st.Delete(cmd.Context(), ref, lang); err != nil {
				return NewStoreError("delete document", err)
			}
			cli.logger.Info("document deleted", "reference", ref, "language", lang)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", ref)
			return err
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation")
	return cmd
}
