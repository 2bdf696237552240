package main

import (
	"github.com/spf13/cobra"

	"github.com/celements/wikibridge/reference"
)

type nameList struct {
	column string
	Names  []string `json:"names" yaml:"names"`
}

func (l nameList) header() []string { return []string{l.column} }

func (l nameList) rows() [][]string {
	var rows [][]string
	for _, n := range l.Names {
		rows = append(rows, []string{n})
	}
	return rows
}

func (cli *CLI) wikiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Inspect the wikis of the store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List wikis, including the main wiki",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cli.app()
			if err != nil {
				return err
			}
			svc, err := a.wikis()
			if err != nil {
				return err
			}
			wikis, err := svc.Wikis(cmd.Context())
			if err != nil {
				return NewStoreError("list wikis", err)
			}
			return cli.render(cmd.OutOrStdout(), nameList{column: "Wiki", Names: wikis})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "spaces [wiki]",
		Short: "List the spaces of a wiki, the main wiki by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cli.app()
			if err != nil {
				return err
			}
			svc, err := a.wikis()
			if err != nil {
				return err
			}
			name := svc.MainWiki()
			if len(args) == 1 {
				name = args[0]
			}
			wiki, err := reference.NewWikiReference(name)
			if err != nil {
				return NewReferenceError("list spaces", name, err)
			}
			spaces, err := svc.Spaces(cmd.Context(), wiki)
			if err != nil {
				return NewStoreError("list spaces", err)
			}
			out := nameList{column: "Space", Names: []string{}}
			for _, s := range spaces {
				out.Names = append(out.Names, s.String())
			}
			return cli.render(cmd.OutOrStdout(), out)
		},
	})
	return cmd
}
