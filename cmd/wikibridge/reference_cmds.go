package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/xwiki/ids"
)

type detection struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

type detections []detection

func (d detections) header() []string { return []string{"Name", "Type"} }

func (d detections) rows() [][]string {
	var rows [][]string
	for _, r := range d {
		rows = append(rows, []string{r.Name, r.Type})
	}
	return rows
}

func (cli *CLI) detectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <name>...",
		Short: "Detect which kind of entity names refer to",
		Long: `Detect matches each name against the name patterns of the entity types.
A name matching several patterns is reported as the first type in
wiki, space, document, attachment order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out detections
			for _, name := range args {
				typ := "unknown"
				if t, ok := reference.DetectTypeFromName(name); ok {
					typ = strings.ToLower(t.String())
				}
				out = append(out, detection{Name: name, Type: typ})
			}
			return cli.render(cmd.OutOrStdout(), out)
		},
	}
}

type chainEntry struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

type resolution struct {
	Reference string       `json:"reference" yaml:"reference"`
	Type      string       `json:"type" yaml:"type"`
	Local     string       `json:"local" yaml:"local"`
	UID       string       `json:"uid" yaml:"uid"`
	Chain     []chainEntry `json:"chain" yaml:"chain"`
}

func (r resolution) header() []string { return []string{"Level", "Name"} }

func (r resolution) rows() [][]string {
	rows := [][]string{{"reference", r.Reference}, {"local", r.Local}, {"uid", r.UID}}
	for _, c := range r.Chain {
		rows = append(rows, []string{c.Type, c.Name})
	}
	return rows
}

// base returns the reference partial input is resolved against: the given
// document, or the default document of the model context.
func (cli *CLI) base(s string) (reference.Reference, error) {
	if s != "" {
		return reference.ResolveDocument(s, cli.defaultDocument())
	}
	return cli.defaultDocument(), nil
}

func (cli *CLI) defaultDocument() reference.DocumentReference {
	ref, err := reference.BuildRef[reference.DocumentReference](reference.NewRefBuilder().Defaults(cli.model()))
	if err != nil {
		cli.logger.Warn("invalid default document", "error", err)
		ref, _ = reference.NewDocumentReference("xwiki", "Main", "WebHome")
	}
	return ref
}

func (cli *CLI) resolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Resolve a reference string",
		Long: `Resolve parses a serialized reference of the given type. Levels missing
from the string are taken from --base, or from the configured default wiki,
space and document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, _ := cmd.Flags().GetString("type")
			typ, err := reference.ParseEntityType(typeName)
			if err != nil {
				return NewTypeError("resolve reference", typeName)
			}
			baseName, _ := cmd.Flags().GetString("base")
			base, err := cli.base(baseName)
			if err != nil {
				return NewReferenceError("resolve base reference", baseName, err)
			}
			ref, err := reference.Resolve(args[0], typ, base)
			if err != nil {
				return NewReferenceError("resolve reference", args[0], err)
			}
			out := resolution{
				Reference: reference.Serialize(ref),
				Type:      strings.ToLower(ref.Type().String()),
				Local:     reference.SerializeLocal(ref),
				UID:       reference.SerializeUID(ref),
			}
			for _, level := range ref.Chain() {
				out.Chain = append(out.Chain, chainEntry{Type: strings.ToLower(level.Type().String()), Name: level.Name()})
			}
			return cli.render(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringP("type", "t", "document", "Entity type of the reference")
	cmd.Flags().String("base", "", "Document the reference is relative to")
	return cmd
}

type idReport struct {
	Reference string `json:"reference" yaml:"reference"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	LocalUID  string `json:"local_uid" yaml:"local_uid"`
	Version   string `json:"version" yaml:"version"`
	ID        int64  `json:"id" yaml:"id"`
	Collision int    `json:"collision_count" yaml:"collision_count"`
	Object    int    `json:"object_count" yaml:"object_count"`
}

func (r idReport) header() []string { return []string{"Field", "Value"} }

func (r idReport) rows() [][]string {
	return [][]string{
		{"reference", r.Reference},
		{"language", r.Language},
		{"local uid", r.LocalUID},
		{"version", r.Version},
		{"id", strconv.FormatInt(r.ID, 10)},
		{"collision count", strconv.Itoa(r.Collision)},
		{"object count", strconv.Itoa(r.Object)},
	}
}

func (cli *CLI) idCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id <document>",
		Short: "Compute the id of a document translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			collision, _ := cmd.Flags().GetInt("collision")
			object, _ := cmd.Flags().GetInt("object")

			doc, err := reference.ResolveDocument(args[0], cli.defaultDocument())
			if err != nil {
				return NewReferenceError("compute id", args[0], err)
			}
			computer := ids.NewUniqueHashComputer()
			id, err := computer.ComputeID(doc, lang, collision, object)
			if err != nil {
				return &CLIError{
					Operation:   "compute id",
					Cause:       "invalid id input",
					Details:     err.Error(),
					Underlying:  err,
					Suggestions: []string{"The collision count ranges from 0 to 3, the object count from 0 to 4095"},
				}
			}
			cli.logger.Debug("id computed", "reference", doc, "language", lang, "id", id)
			return cli.render(cmd.OutOrStdout(), idReport{
				Reference: doc.String(),
				Language:  lang,
				LocalUID:  ids.LocalUID(doc, lang),
				Version:   computer.IDVersion().String(),
				ID:        id,
				Collision: ids.ExtractCollisionCount(id),
				Object:    ids.ExtractObjectCount(id),
			})
		},
	}
	cmd.Flags().StringP("lang", "l", "", "Language of the translation")
	cmd.Flags().Int("collision", 0, "Collision count (0-3)")
	cmd.Flags().Int("object", 0, "Object count (0-4095)")
	return cmd
}

// errUsage is returned for flag combinations cobra cannot check.
func errUsage(format string, args ...any) error {
	return &CLIError{Cause: fmt.Sprintf(format, args...), Suggestions: []string{"Run with --help for usage"}}
}
