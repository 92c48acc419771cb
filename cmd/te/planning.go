package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
)

func subjectCmd() *cobra.Command {
	subject := &cobra.Command{Use: "subject", Short: "Manage subjects"}
	subject.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.CreateSubject(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSON(s)
			})
		},
	})
	subject.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subjects with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListSubjects(ctx)
				if err != nil {
					return err
				}
				return render(items, table.Row{"ID", "Name", "Complete", "Counted", "Empty", "Progress"}, func(tw table.Writer) {
					for _, s := range items {
						p := s.Progress
						tw.AppendRow(table.Row{s.ID, s.Name, p.CompletedMilestones, p.CountedMilestones, p.EmptyMilestones, fmt.Sprintf("%d%%", p.Percent)})
					}
				})
			})
		},
	})
	subject.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.RenameSubject(ctx, id, args[1], actorID())
				if err != nil {
					return err
				}
				return printJSON(s)
			})
		},
	})
	subject.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subject with its milestones and activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteSubject(ctx, id, actorID())
			})
		},
	})
	subject.AddCommand(&cobra.Command{
		Use:   "progress <id>",
		Short: "Show subject progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SubjectProgress(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	})
	return subject
}

func milestoneCmd() *cobra.Command {
	milestone := &cobra.Command{Use: "milestone", Short: "Manage milestones"}
	milestone.AddCommand(milestoneCreateCmd())
	milestone.AddCommand(milestoneListCmd())
	milestone.AddCommand(milestoneUpdateCmd())
	milestone.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a milestone with its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteMilestone(ctx, id, actorID())
			})
		},
	})
	milestone.AddCommand(&cobra.Command{
		Use:   "progress <id>",
		Short: "Show milestone progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.MilestoneProgress(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	})
	return milestone
}

func milestoneCreateCmd() *cobra.Command {
	var opts engine.MilestoneCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = actorID()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.CreateMilestone(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
	cmd.Flags().Int64Var(&opts.SubjectID, "subject", 0, "subject id")
	cmd.Flags().StringVar(&opts.Title, "title", "", "milestone title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringArrayVar(&opts.OutcomeIDs, "outcome", nil, "linked outcome id (repeatable)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func milestoneListCmd() *cobra.Command {
	var subjectID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List milestones with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListMilestones(ctx, subjectID)
				if err != nil {
					return err
				}
				return render(items, table.Row{"ID", "Subject", "Title", "Done", "Total", "Progress"}, func(tw table.Writer) {
					for _, m := range items {
						tw.AppendRow(table.Row{m.ID, m.SubjectID, m.Title, m.Progress.Completed, m.Progress.Total, fmt.Sprintf("%d%%", m.Progress.Percent)})
					}
				})
			})
		},
	}
	cmd.Flags().Int64Var(&subjectID, "subject", 0, "subject id filter")
	return cmd
}

func milestoneUpdateCmd() *cobra.Command {
	var title, description string
	var outcomes []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a milestone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			opts := engine.MilestoneUpdateOptions{
				ID:          id,
				Title:       optionalString(cmd, "title", title),
				Description: optionalString(cmd, "description", description),
				ActorID:     actorID(),
			}
			if cmd.Flags().Changed("outcome") {
				opts.OutcomeIDs = &outcomes
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.UpdateMilestone(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringArrayVar(&outcomes, "outcome", nil, "outcome id replacing all links (repeatable)")
	return cmd
}

func activityCmd() *cobra.Command {
	activity := &cobra.Command{Use: "activity", Short: "Manage activities"}
	activity.AddCommand(activityCreateCmd())
	activity.AddCommand(activityListCmd())
	activity.AddCommand(activityUpdateCmd())
	activity.AddCommand(activityMoveCmd())
	activity.AddCommand(activityReorderCmd())
	activity.AddCommand(activityCompleteCmd(true))
	activity.AddCommand(activityCompleteCmd(false))
	activity.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteActivity(ctx, id, actorID())
			})
		},
	})
	return activity
}

func activityCreateCmd() *cobra.Command {
	var opts engine.ActivityCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Append an activity to a milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = actorID()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().Int64Var(&opts.MilestoneID, "milestone", 0, "milestone id")
	cmd.Flags().StringVar(&opts.Title, "title", "", "activity title")
	cmd.Flags().StringVar(&opts.MaterialsText, "materials", "", "materials")
	cmd.Flags().StringArrayVar(&opts.OutcomeIDs, "outcome", nil, "linked outcome id (repeatable)")
	_ = cmd.MarkFlagRequired("milestone")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func activityListCmd() *cobra.Command {
	var milestoneID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a milestone's activities in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListActivities(ctx, milestoneID)
				if err != nil {
					return err
				}
				return renderActivities(items)
			})
		},
	}
	cmd.Flags().Int64Var(&milestoneID, "milestone", 0, "milestone id")
	_ = cmd.MarkFlagRequired("milestone")
	return cmd
}

func renderActivities(items []domain.Activity) error {
	return render(items, table.Row{"#", "ID", "Title", "Done", "Outcomes"}, func(tw table.Writer) {
		for _, a := range items {
			codes := ""
			for i, l := range a.Outcomes {
				if i > 0 {
					codes += ", "
				}
				codes += l.Outcome.Code
			}
			tw.AppendRow(table.Row{a.Position, a.ID, a.Title, yesNo(a.Completed()), codes})
		}
	})
}

func activityUpdateCmd() *cobra.Command {
	var title, materials string
	var milestoneID int64
	var outcomes []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an activity; --milestone moves it to the end of another milestone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			opts := engine.ActivityUpdateOptions{
				ID:            id,
				Title:         optionalString(cmd, "title", title),
				MaterialsText: optionalString(cmd, "materials", materials),
				ActorID:       actorID(),
			}
			if cmd.Flags().Changed("outcome") {
				opts.OutcomeIDs = &outcomes
			}
			if cmd.Flags().Changed("milestone") {
				opts.MilestoneID = &milestoneID
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.UpdateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&materials, "materials", "", "new materials")
	cmd.Flags().Int64Var(&milestoneID, "milestone", 0, "target milestone id")
	cmd.Flags().StringArrayVar(&outcomes, "outcome", nil, "outcome id replacing all links (repeatable)")
	return cmd
}

// activityMoveCmd is the drag gesture: take the activity at one index and
// drop it at another.
func activityMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <milestone-id> <from> <to>",
		Short: "Move the activity at index from to index to",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			milestoneID, err := parseID(args[0])
			if err != nil {
				return err
			}
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[2])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ids, err := e.Repo.ActivityIDs(ctx, milestoneID)
				if err != nil {
					return err
				}
				next, err := planner.Move(ids, from, to)
				if err != nil {
					return err
				}
				items, err := e.ReorderActivities(ctx, milestoneID, next, actorID())
				if err != nil {
					return err
				}
				return renderActivities(items)
			})
		},
	}
}

func activityReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <milestone-id> <id,id,...>",
		Short: "Store a complete new order for a milestone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			milestoneID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDList(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ReorderActivities(ctx, milestoneID, ids, actorID())
				if err != nil {
					return err
				}
				return renderActivities(items)
			})
		},
	}
}

func activityCompleteCmd(completed bool) *cobra.Command {
	var note string
	use, short := "complete <id>", "Mark an activity complete"
	if !completed {
		use, short = "uncomplete <id>", "Mark an activity incomplete"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.SetCompletion(ctx, id, completed, note, actorID())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				p := res.MilestoneProgress
				fmt.Printf("%s: milestone %d at %d%% (%d/%d)\n", res.Activity.Title, p.MilestoneID, p.Percent, p.Completed, p.Total)
				if res.ShowNotePrompt {
					fmt.Println("tip: add a reflection with --note next time")
				}
				return nil
			})
		},
	}
	if completed {
		cmd.Flags().StringVar(&note, "note", "", "reflection note recorded with the completion")
	}
	return cmd
}
