package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/app"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "te",
	Short: "Teaching Engine CLI",
	Long: `Teaching Engine plans lessons as subjects, milestones and ordered activities.
Core concepts:
- Subject: a course such as French or Math, made of milestones.
- Milestone: a unit of work holding an ordered list of activities.
- Activity: one lesson step; completing it feeds milestone and subject progress.
- Outcome: a curriculum expectation from the imported catalog; activities link to outcomes for coverage.
- Coverage: whether at least one activity references an outcome ('te outcome coverage').
- Event log: every change is recorded, view with 'te log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initConfig loads <workspace>/.teaching/.env when present, then binds
// TEACHING_* env vars. Variables already set in the environment win.
func initConfig() {
	envPath := filepath.Join(viper.GetString("workspace"), ".teaching", ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: load %s: %v\n", envPath, err)
			os.Exit(1)
		}
	}
	viper.SetEnvPrefix("TEACHING")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("db", "", "database path (default <workspace>/.teaching/teaching.db)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(subjectCmd())
	rootCmd.AddCommand(milestoneCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(outcomeCmd())
	rootCmd.AddCommand(plannerCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, closeFn, err := app.Open(ctx, app.Options{
		Workspace: viper.GetString("workspace"),
		DBPath:    viper.GetString("db"),
	})
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, e)
}

func actorID() string {
	return viper.GetString("actor-id")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints v as JSON when --json is set, else the table built by fill.
func render(v any, header table.Row, fill func(tw table.Writer)) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	fill(tw)
	tw.Render()
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optionalString(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func isJSON() bool {
	return viper.GetBool("json")
}
