package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"candidature-ai/internal/entitlement"
	"candidature-ai/internal/generation"
	"candidature-ai/internal/intake"
	"candidature-ai/internal/llm"
	"candidature-ai/internal/render"
	"candidature-ai/internal/store"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

func newNormalizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <body.json|->",
		Short: "Normalize and validate a generation request body",
		Long: `Prints the canonical intake for a flat or structured request body, followed
by the validation verdict. Exits non-zero when the body would be rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.load(); err != nil {
				return err
			}
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			in, err := intake.Normalize(body)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd, in); err != nil {
				return err
			}
			if err := intake.Validate(in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "valid")
			return nil
		},
	}
}

func newRenderCmd(opts *options) *cobra.Command {
	var (
		out       string
		watermark bool
		texOnly   bool
	)
	cmd := &cobra.Command{
		Use:   "render <cv.json|->",
		Short: "Render a CV document to LaTeX or PDF",
		Long: `Accepts either a bare CV object or a structured generation answer with a
"cv" key. PDFs are compiled the way the server does it, locally or through
PDF_RENDERER_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cv, err := decodeCV(raw)
			if err != nil {
				return err
			}

			ropts := render.Options{Watermark: watermark}
			if texOnly {
				src, err := render.NewEngine().Render(cv, ropts)
				if err != nil {
					return err
				}
				return writeOutput(cmd, out, []byte(src))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Render.Timeout+5*time.Second)
			defer cancel()
			pdf, err := render.NewRenderer(render.NewCompiler(cfg)).RenderCV(ctx, cv, ropts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, pdf)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&watermark, "watermark", false, "stamp the free plan watermark")
	cmd.Flags().BoolVar(&texOnly, "tex", false, "emit the LaTeX source instead of compiling")
	return cmd
}

func newGenerateCmd(opts *options) *cobra.Command {
	var free bool
	cmd := &cobra.Command{
		Use:   "generate <body.json|->",
		Short: "Run one generation against the configured provider",
		Long: `Runs the full pipeline with an in-memory store and cache, so nothing is
persisted and no credit is consumed. Prints the response body the server
would return.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			manager, err := llm.NewManager(cfg)
			if err != nil {
				return err
			}
			mem := store.NewMemoryStore()
			profile := models.SubscriberProfile{UserID: "cli", SubscriptionStatus: models.SubscriptionActive}
			if free {
				profile.SubscriptionStatus = ""
			}
			mem.PutProfile(profile)

			svc := generation.NewService(cfg, generation.Dependencies{
				Entitlements: entitlement.NewEvaluator(mem),
				Completer:    manager,
				Recorder:     mem,
				Cache:        utils.NewMemoryCache(),
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.GenerationTimeout)
			defer cancel()
			resp, err := svc.Generate(ctx, profile.UserID, body, "")
			if err != nil {
				return err
			}
			if resp.Document.Placeholder {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: provider answer could not be parsed, placeholder returned")
			}
			return writeJSON(cmd, resp.Payload())
		},
	}
	cmd.Flags().BoolVar(&free, "free", false, "generate as a free plan user (watermark flag set)")
	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables and indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			cfg.Database.EnsureSchema = true

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			db, err := store.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

// decodeCV accepts a CV object or a document wrapping it under "cv"
func decodeCV(raw []byte) (*models.CV, error) {
	var wrapped struct {
		CV *models.CV `json:"cv"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.CV != nil {
		return wrapped.CV, nil
	}
	var cv models.CV
	if err := json.Unmarshal(raw, &cv); err != nil {
		return nil, fmt.Errorf("decode cv: %w", err)
	}
	return &cv, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(cmd *cobra.Command, out string, data []byte) error {
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
