package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/auth"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var noAuth bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if addr == "" {
					addr = e.Config.Server.Addr
				}
				if basePath == "" {
					basePath = e.Config.Server.BasePath
				}
				authCfg := server.AuthConfig{
					JWTSecret:  viper.GetString("jwt-secret"),
					Disabled:   noAuth,
					LocalActor: actorID(),
				}
				if !noAuth && authCfg.JWTSecret == "" {
					return fmt.Errorf("TEACHING_JWT_SECRET is required for bearer auth (or pass --no-auth)")
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				e.Log.Info("serving api", "addr", addr, "base_path", basePath, "auth", !noAuth)
				fmt.Printf("Serving Teaching Engine API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at %s/docs)\n", addr, basePath, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from teaching.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default server.base_path)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve every request as --actor-id without a token")
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with TEACHING_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				subject = actorID()
			}
			token, err := auth.Issue(viper.GetString("jwt-secret"), subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (default --actor-id)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}

func logCmd() *cobra.Command {
	logc := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	var cursor int64
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.ListEvents(ctx, n, cursor)
				if err != nil {
					return err
				}
				return render(events, table.Row{"ID", "TS", "Type", "Entity", "Actor", "Payload"}, func(tw table.Writer) {
					for _, evt := range events {
						tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID, evt.Payload})
					}
				})
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().Int64Var(&cursor, "before", 0, "only events older than this id")
	logc.AddCommand(tail)
	return logc
}

func plannerCmd() *cobra.Command {
	plannerc := &cobra.Command{Use: "planner", Short: "Planning helpers"}
	var subjectID int64
	var limit int
	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest next activities, favouring uncovered outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Suggestions(ctx, subjectID, limit)
				if err != nil {
					return err
				}
				return render(items, table.Row{"Activity", "Title", "Milestone", "Uncovered"}, func(tw table.Writer) {
					for _, s := range items {
						tw.AppendRow(table.Row{s.Activity.ID, s.Activity.Title, s.MilestoneTitle, len(s.UncoveredOutcomes)})
					}
				})
			})
		},
	}
	suggest.Flags().Int64Var(&subjectID, "subject", 0, "subject id")
	suggest.Flags().IntVar(&limit, "limit", 0, "max suggestions (default planner.suggestion_limit)")
	plannerc.AddCommand(suggest)
	return plannerc
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Workspace configuration (teaching.yml)"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default teaching.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfg.AddCommand(initCmd)
	cfg.AddCommand(configSecretCmd())
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate teaching.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(viper.GetString("workspace")); err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	})
	return cfg
}

// configSecretCmd stores a fresh HS256 secret in <workspace>/.teaching/.env,
// keeping any other variables in the file.
func configSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate TEACHING_JWT_SECRET into the workspace .env file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := db.EnsureWorkspace(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			path := filepath.Join(dir, ".env")
			env := map[string]string{}
			if _, err := os.Stat(path); err == nil {
				if env, err = godotenv.Read(path); err != nil {
					return err
				}
			}
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			env["TEACHING_JWT_SECRET"] = hex.EncodeToString(buf)
			if err := godotenv.Write(env, path); err != nil {
				return err
			}
			fmt.Println("wrote TEACHING_JWT_SECRET to", path)
			return nil
		},
	}
}
