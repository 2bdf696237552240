package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celements/wikibridge/formats"
	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/search"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/store"
)

// contentFormat picks the format named by --as, else the one matching file,
// else markdown.
func contentFormat(cmd *cobra.Command, file string) (*formats.Format, error) {
	name, _ := cmd.Flags().GetString("as")
	switch {
	case name != "":
		f, err := formats.Default.Get(name)
		if err != nil {
			return nil, errUsage("%v (available: %s)", err, strings.Join(formats.Default.Names(), ", "))
		}
		return f, nil
	case file != "" && file != "-":
		f, err := formats.Default.ForFile(file)
		if err != nil {
			return nil, errUsage("%v, use --as", err)
		}
		return f, nil
	}
	return formats.Markdown, nil
}

func (cli *CLI) docExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Write a document title and content as a text file",
		Long: `Export writes the title and content of a document translation in one of
the text formats (markdown, plaintext, xwiki). The file header records the
document reference and language so that import can find the document again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.ResolveDocument(args[0], cli.defaultDocument())
			if err != nil {
				return NewReferenceError("export document", args[0], err)
			}
			output, _ := cmd.Flags().GetString("output")
			format, err := contentFormat(cmd, output)
			if err != nil {
				return err
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
			doc, err := st.Load(cmd.Context(), ref, lang)
			if err != nil {
				return NewStoreError("export document", err)
			}

			meta := formats.Metadata{formats.MetaReference: ref.String()}
			if doc.Language != "" {
				meta[formats.MetaLanguage] = doc.Language
			}
			text := format.Serialize(doc.Title, doc.Content, meta)
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), text+"\n")
				return err
			}
			if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
				return &CLIError{Operation: "export document", Cause: "cannot write " + output, Underlying: err}
			}
			cli.logger.Info("document exported", "reference", ref, "language", lang, "format", format.Name, "file", output)
			return nil
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation")
	cmd.Flags().String("as", "", "Format name; defaults to the output extension, then markdown")
	cmd.Flags().StringP("output", "o", "", "File to write instead of stdout")
	return cmd
}

func (cli *CLI) docImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> [document]",
		Short: "Set a document title and content from a text file",
		Long: `Import reads a file written by export, or by hand, and saves its title and
content. The target document and language default to the file header.
Objects of an existing document are kept. Use - to read stdin.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			format, err := contentFormat(cmd, file)
			if err != nil {
				return err
			}
			var data []byte
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return &CLIError{Operation: "import document", Cause: "cannot read " + file, Underlying: err}
			}
			title, content, meta, err := format.Deserialize(string(data))
			if err != nil {
				return &CLIError{Operation: "import document", Cause: "invalid " + format.Name + " file", Details: err.Error(), Underlying: err}
			}

			target := meta[formats.MetaReference]
			if len(args) == 2 {
				target = args[1]
			}
			if target == "" {
				return errUsage("%s has no %s header, name the document", file, formats.MetaReference)
			}
			ref, err := reference.ResolveDocument(target, cli.defaultDocument())
			if err != nil {
				return NewReferenceError("import document", target, err)
			}
			lang := meta[formats.MetaLanguage]
			if cmd.Flags().Changed("lang") {
				lang, _ = cmd.Flags().GetString("lang")
			}

			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			doc, err := st.Load(cmd.Context(), ref, lang)
			switch {
			case errors.Is(err, store.ErrNotFound):
				doc = types.NewDocument(ref, lang)
			case err != nil:
				return NewStoreError("import document", err)
			}
			doc.Title, doc.Content = title, content
			if err := st.Save(cmd.Context(), doc); err != nil {
				return NewStoreError("import document", err)
			}
			return cli.render(cmd.OutOrStdout(), documentList{doc.Record()})
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation, overrides the file header")
	cmd.Flags().String("as", "", "Format name; defaults to the file extension")
	return cmd
}

type searchHit struct {
	Reference     string            `json:"reference" yaml:"reference"`
	Language      string            `json:"language,omitempty" yaml:"language,omitempty"`
	Title         string            `json:"title,omitempty" yaml:"title,omitempty"`
	Score         float64           `json:"score" yaml:"score"`
	Match         search.MatchType  `json:"match" yaml:"match"`
	MatchedFields []string          `json:"matched_fields" yaml:"matched_fields"`
	Highlights    map[string]string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

type searchHits []searchHit

func (h searchHits) header() []string {
	return []string{"Reference", "Language", "Title", "Score", "Match", "Fields"}
}

func (h searchHits) rows() [][]string {
	var rows [][]string
	for _, hit := range h {
		rows = append(rows, []string{
			hit.Reference,
			hit.Language,
			hit.Title,
			strconv.FormatFloat(hit.Score, 'f', 2, 64),
			string(hit.Match),
			strings.Join(hit.MatchedFields, ", "),
		})
	}
	return rows
}

func (cli *CLI) docSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find documents by title, content, page name or object property",
		Long: fmt.Sprintf(`Search matches the query against the %s, %s and %s of every document
and against object properties, addressed as <class>.<property> with --field.`,
			search.FieldTitle, search.FieldContent, search.FieldName),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := search.Options{Query: args[0]}
			options.Fields, _ = cmd.Flags().GetStringSlice("field")
			options.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
			options.ExactMatch, _ = cmd.Flags().GetBool("exact")
			options.Highlight, _ = cmd.Flags().GetBool("highlight")
			options.MaxResults, _ = cmd.Flags().GetInt("limit")

			var filter types.ListOptions
			filter.Wiki, _ = cmd.Flags().GetString("wiki")
			filter.Space, _ = cmd.Flags().GetString("space")
			if filter.Space != "" && filter.Wiki == "" {
				return errUsage("--space needs --wiki")
			}

			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			results, err := search.NewEngine(st, search.WithLogger(cli.logger)).Search(cmd.Context(), options, filter)
			if err != nil {
				return NewStoreError("search documents", err)
			}

			hits := searchHits{}
			for _, r := range results {
				hits = append(hits, searchHit{
					Reference:     r.Document.Reference.String(),
					Language:      r.Document.Language,
					Title:         r.Document.Title,
					Score:         r.Score,
					Match:         r.MatchType,
					MatchedFields: r.MatchedFields,
					Highlights:    r.Highlights,
				})
			}
			return cli.render(cmd.OutOrStdout(), hits)
		},
	}
	cmd.Flags().StringSlice("field", nil, "Fields to search, repeatable")
	cmd.Flags().Bool("case-sensitive", false, "Match case")
	cmd.Flags().Bool("exact", false, "Require the whole field to match")
	cmd.Flags().Bool("highlight", false, "Include highlighted matches (json and yaml output)")
	cmd.Flags().Int("limit", 0, "Maximum number of results")
	cmd.Flags().String("wiki", "", "Only documents of this wiki")
	cmd.Flags().String("space", "", "Only documents of this space")
	return cmd
}
