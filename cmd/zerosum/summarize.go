package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"zerosum/internal/config"
	"zerosum/internal/document"
	"zerosum/internal/history"
	"zerosum/internal/summarizer"
	"zerosum/pkg/logger"
)

var errNoInput = errors.New("nothing to summarize: pass files, --url or --youtube")

type summarizeFlags struct {
	urls        []string
	youtube     []string
	title       string
	tokenLimit  int
	chunkTokens int
	maxIters    int
	model       string
	provider    string
	once        bool
	outDir      string
	quiet       bool
	noHistory   bool
}

func newSummarizeCmd(a *app) *cobra.Command {
	var f summarizeFlags
	cmd := &cobra.Command{
		Use:   "summarize [file...]",
		Short: "Reduce documents until they fit the token limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyOverrides(cmd, a.store, f); err != nil {
				return err
			}
			return runSummarize(cmd.Context(), a, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.urls, "url", nil, "web page to summarize (repeatable)")
	fl.StringSliceVar(&f.youtube, "youtube", nil, "YouTube video whose transcript to summarize (repeatable)")
	fl.StringVar(&f.title, "title", "", "title override for every input")
	fl.IntVar(&f.tokenLimit, "token-limit", 0, "target size in tokens (final_token_limit)")
	fl.IntVar(&f.chunkTokens, "chunk-tokens", 0, "per chunk budget in tokens (document_chunk_tokens)")
	fl.IntVar(&f.maxIters, "max-iters", 0, "maximum passes (max_iterations)")
	fl.StringVar(&f.model, "model", "", "model name (llm_model)")
	fl.StringVar(&f.provider, "provider", "", "openai, anthropic or gemini")
	fl.BoolVar(&f.once, "once", false, "run a single pass instead of reducing to the limit")
	fl.StringVar(&f.outDir, "out", "", "write each summary to <dir>/<title>.txt instead of stdout")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	fl.BoolVar(&f.noHistory, "no-history", false, "do not record the run")
	return cmd
}

// applyOverrides pushes explicitly set flags into the config store so the
// summarizer picks them up through its settings.
func applyOverrides(cmd *cobra.Command, store *config.Store, f summarizeFlags) error {
	overrides := []struct {
		flag string
		key  string
		val  any
	}{
		{"token-limit", config.KeyFinalTokenLimit, f.tokenLimit},
		{"chunk-tokens", config.KeyChunkTokens, f.chunkTokens},
		{"max-iters", config.KeyMaxIterations, f.maxIters},
		{"model", config.KeyLLMModel, f.model},
		{"provider", config.KeyProvider, f.provider},
	}
	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		if err := store.Set(o.key, o.val); err != nil {
			return fmt.Errorf("--%s: %w", o.flag, err)
		}
	}
	return nil
}

func loadInputs(ctx context.Context, f summarizeFlags, files []string) ([]document.Document, error) {
	var opts []document.Option
	if f.title != "" {
		opts = append(opts, document.WithTitle(f.title))
	}

	var docs []document.Document
	for _, p := range files {
		d, err := document.FromFile(p, opts...)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if len(f.urls) > 0 || len(f.youtube) > 0 {
		loader := document.NewLoader()
		for _, u := range f.urls {
			d, err := loader.FromWebsite(ctx, u, opts...)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
		for _, u := range f.youtube {
			d, err := loader.FromYouTube(ctx, u, opts...)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		return nil, errNoInput
	}
	return docs, nil
}

func runSummarize(ctx context.Context, a *app, f summarizeFlags, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	docs, err := loadInputs(ctx, f, files)
	if err != nil {
		return err
	}

	s, stop, err := a.newSummarizer(ctx, !f.quiet)
	if err != nil {
		return err
	}
	defer stop()

	var runs *history.Store
	if !f.noHistory {
		if runs, err = a.openHistory(); err != nil {
			logger.Warnf("[CLI] run history disabled: %v", err)
		}
	}

	for _, doc := range docs {
		var out document.Document
		if f.once {
			out, err = s.Summarize(ctx, doc)
		} else {
			var res summarizer.Result
			res, err = s.ReduceDetailed(ctx, doc, 0, 0)
			out = res.Document
			if err == nil && runs != nil {
				saveRun(runs, doc, res, s.Settings().GetModel())
			}
		}
		if err != nil {
			return fmt.Errorf("summarize %q: %w", doc.Title, err)
		}
		if err := writeSummary(a, f.outDir, out); err != nil {
			return err
		}
	}
	return nil
}

func saveRun(runs *history.Store, doc document.Document, res summarizer.Result, model string) {
	_, err := runs.SaveRun(history.Run{
		DocumentID:    doc.ID.String(),
		Title:         doc.Title,
		Source:        string(doc.Source),
		URL:           doc.URL,
		Model:         model,
		InitialTokens: res.InitialTokens,
		FinalTokens:   res.FinalTokens,
		Iterations:    res.Iterations,
		Termination:   string(res.Termination),
	})
	if err != nil {
		logger.Warnf("[CLI] save run of %q: %v", doc.Title, err)
	}
}

var unsafeName = regexp.MustCompile(`[^\w.-]+`)

func writeSummary(a *app, dir string, doc document.Document) error {
	if dir == "" {
		_, err := fmt.Fprintf(a.out, "# %s\n\n%s\n", doc.Title, doc.Text)
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	name := strings.Trim(unsafeName.ReplaceAllString(doc.Title, "_"), "_")
	if name == "" {
		name = doc.ID.String()
	}
	path := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(path, []byte(doc.Text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	fmt.Fprintln(a.out, path)
	return nil
}
