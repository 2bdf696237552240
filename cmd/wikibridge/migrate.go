package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celements/wikibridge/internal/validation"
	"github.com/celements/wikibridge/types"
)

func (cli *CLI) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate --to <path>",
		Short: "Copy every document into another store",
		Long: `Migrate copies all documents of the store into the store at --to, keeping
their ids. Documents already present in the target are replaced. Use it to
move a JSON store into SQLite or back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			toBackend, _ := cmd.Flags().GetString("to-backend")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if to == "" {
				return errUsage("--to is required")
			}

			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			docs, err := st.List(cmd.Context(), types.ListOptions{})
			if err != nil {
				return NewStoreError("list documents", err)
			}
			if dryRun {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "would copy %d documents to %s (DRY RUN)\n", len(docs), to)
				return err
			}

			target, err := openBackend(toBackend, to, cli.logger)
			if err != nil {
				return err
			}
			defer func() { _ = target.Close() }()
			for _, doc := range docs {
				if err := target.Put(cmd.Context(), doc); err != nil {
					return NewStoreError(fmt.Sprintf("copy %s", doc.Reference), err)
				}
				cli.logger.Debug("document copied", "reference", doc.Reference, "language", doc.Language, "id", doc.ID)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "copied %d documents to %s\n", len(docs), to)
			return err
		},
	}
	cmd.Flags().String("to", "", "Path of the target store")
	cmd.Flags().String("to-backend", "", "Backend of the target store (json|sqlite)")
	cmd.Flags().BoolP("dry-run", "n", false, "Only count the documents")
	return cmd
}

type problem struct {
	Reference string `json:"reference" yaml:"reference"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	Error     string `json:"error" yaml:"error"`
}

type problemList []problem

func (l problemList) header() []string { return []string{"Reference", "Language", "Error"} }

func (l problemList) rows() [][]string {
	var rows [][]string
	for _, p := range l {
		rows = append(rows, []string{p.Reference, p.Language, p.Error})
	}
	return rows
}

func (cli *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cli.app()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			docs, err := st.List(cmd.Context(), types.ListOptions{})
			if err != nil {
				return NewStoreError("list documents", err)
			}
			problems := problemList{}
			for _, doc := range docs {
				if err := validation.Validate(doc); err != nil {
					problems = append(problems, problem{Reference: doc.Reference.String(), Language: doc.Language, Error: err.Error()})
				}
			}
			if err := cli.render(cmd.OutOrStdout(), problems); err != nil {
				return err
			}
			if len(problems) > 0 {
				return &CLIError{
					Operation: "validate store",
					Cause:     fmt.Sprintf("%d of %d documents are invalid", len(problems), len(docs)),
				}
			}
			return nil
		},
	}
}
