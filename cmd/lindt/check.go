package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/lindt-go/rdf"
)

func newCheckCmd(a *app) *cobra.Command {
	var formatName string
	var canonical bool

	cmd := &cobra.Command{
		Use:   "check [FILE...]",
		Short: "Validate the linked-datatype literals of RDF documents",
		Long: `Validate every literal of a linked datatype found in the given N-Triples,
N-Quads or JSON-LD documents. Standard datatypes (xsd:, rdf:langString) are
skipped. Reads stdin when no file is given; --format is then required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var forced rdf.Format
			if formatName != "" {
				f, ok := rdf.ParseFormat(formatName)
				if !ok {
					return fmt.Errorf("unknown format %q", formatName)
				}
				forced = f
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				c := &checker{session: s, out: cmd.OutOrStdout(), canonical: canonical}
				if len(args) == 0 {
					if forced == "" {
						return fmt.Errorf("--format is required when reading stdin")
					}
					if err := c.check(ctx, "-", cmd.InOrStdin(), forced); err != nil {
						return err
					}
				}
				for _, path := range args {
					format := forced
					if format == "" {
						f, ok := rdf.FormatFromPath(path)
						if !ok {
							return fmt.Errorf("%s: cannot infer format, use --format", path)
						}
						format = f
					}
					if err := c.checkFile(ctx, path, format); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d literals checked, %d invalid, %d unresolved\n",
					c.checked, c.invalid, c.unresolved)
				if c.invalid > 0 {
					return errFindings
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "input format: ntriples, nquads, jsonld")
	cmd.Flags().BoolVar(&canonical, "canonical", false, "also print the canonical form of non-canonical literals")
	return cmd
}

type checker struct {
	session   *session
	out       io.Writer
	canonical bool

	checked    int
	invalid    int
	unresolved int
}

func (c *checker) checkFile(ctx context.Context, path string, format rdf.Format) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.check(ctx, path, f, format)
}

func (c *checker) check(ctx context.Context, name string, r io.Reader, format rdf.Format) error {
	engine := c.session.engine
	return rdf.ParseLiterals(ctx, r, format, func(occ rdf.Occurrence) error {
		lit := occ.Literal
		if lit.IsBuiltin() {
			return nil
		}
		c.checked++
		if _, ok := engine.Datatype(ctx, lit.DatatypeURI()); !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.unresolved++
			c.session.logger.Info("datatype unavailable", "file", name, "datatype", lit.DatatypeURI())
			return nil
		}
		if !engine.IsValidLiteral(ctx, lit) {
			c.invalid++
			fmt.Fprintf(c.out, "%s: invalid literal: %s\n", name, occ)
			return nil
		}
		if c.canonical {
			if canon := engine.CanonicalLiteral(ctx, lit); canon.Lexical != lit.Lexical {
				fmt.Fprintf(c.out, "%s: %s canonicalizes to %s\n", name, lit, canon)
			}
		}
		return nil
	})
}
