package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

type filterFlags struct {
	subject string
	grade   int
	domain  string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject code filter, e.g. FRA")
	cmd.Flags().IntVar(&f.grade, "grade", 0, "grade filter")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain filter")
}

func (f *filterFlags) filter(cmd *cobra.Command) domain.OutcomeFilter {
	out := domain.OutcomeFilter{Subject: f.subject, Domain: f.domain}
	if cmd.Flags().Changed("grade") {
		g := f.grade
		out.Grade = &g
	}
	return out
}

func outcomeCmd() *cobra.Command {
	outcome := &cobra.Command{Use: "outcome", Short: "Curriculum outcome catalog and coverage"}
	outcome.AddCommand(outcomeImportCmd())
	outcome.AddCommand(outcomeListCmd())
	outcome.AddCommand(outcomeCoverageCmd())
	return outcome
}

func outcomeImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import outcomes from a YAML catalog (upsert by id)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			outcomes, err := engine.ParseCatalog(data)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.ImportOutcomes(ctx, outcomes, actorID())
				if err != nil {
					return err
				}
				fmt.Printf("imported %d outcomes from %s\n", n, file)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func outcomeListCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListOutcomes(ctx, f.filter(cmd))
				if err != nil {
					return err
				}
				return render(items, table.Row{"Code", "Subject", "Grade", "Domain", "Description"}, func(tw table.Writer) {
					for _, o := range items {
						tw.AppendRow(table.Row{o.Code, o.Subject, o.Grade, o.Domain, o.Description})
					}
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func outcomeCoverageCmd() *cobra.Command {
	var (
		f      filterFlags
		limit  int
		cursor string
		gaps   bool
	)
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Show which outcomes are covered by activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				page, err := e.Coverage(ctx, engine.CoverageQuery{Filter: f.filter(cmd), Limit: limit, Cursor: cursor})
				if err != nil {
					return err
				}
				err = render(page, table.Row{"Code", "Covered", "Activities"}, func(tw table.Writer) {
					for _, item := range page.Items {
						if gaps && item.IsCovered {
							continue
						}
						titles := ""
						for i, ref := range item.CoveredBy {
							if i > 0 {
								titles += ", "
							}
							titles += ref.Title
						}
						tw.AppendRow(table.Row{item.Code, yesNo(item.IsCovered), titles})
					}
					s := page.Summary
					tw.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d", s.Covered, s.Total), fmt.Sprintf("%d%%", s.Percent)})
				})
				if err == nil && page.NextCursor != "" && !isJSON() {
					fmt.Printf("more results: --cursor %q\n", page.NextCursor)
				}
				return err
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 = all)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue after this cursor")
	cmd.Flags().BoolVar(&gaps, "gaps", false, "only show uncovered outcomes")
	return cmd
}
