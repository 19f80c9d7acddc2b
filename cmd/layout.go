// File: cmd/layout.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/boxflow/internal/boxtree"
	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/css"
	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/observability"
	"github.com/xkilldash9x/boxflow/internal/report"
	"github.com/xkilldash9x/boxflow/internal/textmeasure"
)

// layoutOptions are the per-run settings that have no config key.
type layoutOptions struct {
	stylesheets []string
	outputDir   string
	compact     bool
}

// newLayoutCmd creates and configures the `layout` command.
func newLayoutCmd() *cobra.Command {
	var opts layoutOptions

	layoutCmd := &cobra.Command{
		Use:   "layout FILE...",
		Short: "Lay out HTML documents and report the geometry of every box",
		Long: `Parses each HTML file, applies the user-agent sheet, any --css sheets and
the document's own <style> elements, lays the result out for the viewport and
writes a geometry report. Several files are laid out concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyLayoutFlags(cmd, cfg, &opts); err != nil {
				return err
			}
			return runLayout(ctx, logger, cfg, args, opts, cmd.OutOrStdout())
		},
	}

	layoutCmd.Flags().Float64("width", 0, "Viewport width in CSS pixels. (Overrides config/env)")
	layoutCmd.Flags().Float64("height", 0, "Viewport height in CSS pixels. (Overrides config/env)")
	layoutCmd.Flags().StringP("format", "f", "", "Report format, 'json' or 'svg'. (Overrides config/env)")
	layoutCmd.Flags().IntP("concurrency", "j", 0, "Number of documents laid out at once. (Overrides config/env)")
	layoutCmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Write one report per input into this directory instead of stdout.")
	layoutCmd.Flags().StringSliceVar(&opts.stylesheets, "css", nil, "Extra style sheet applied before each document's own styles. Repeatable.")
	layoutCmd.Flags().BoolVar(&opts.compact, "compact", false, "Write JSON on a single line.")

	return layoutCmd
}

// applyLayoutFlags copies explicitly set flags over the loaded config.
func applyLayoutFlags(cmd *cobra.Command, cfg config.Interface, opts *layoutOptions) error {
	flags := cmd.Flags()
	if flags.Changed("width") || flags.Changed("height") {
		w, h := cfg.Layout().ViewportWidth, cfg.Layout().ViewportHeight
		if flags.Changed("width") {
			w, _ = flags.GetFloat64("width")
		}
		if flags.Changed("height") {
			h, _ = flags.GetFloat64("height")
		}
		if w < 0 || h < 0 {
			return fmt.Errorf("viewport must not be negative, got %gx%g", w, h)
		}
		cfg.SetLayoutViewport(w, h)
	}
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		format = strings.ToLower(format)
		if format != config.FormatJSON && format != config.FormatSVG {
			return fmt.Errorf("unsupported report format %q (want %q or %q)", format, config.FormatJSON, config.FormatSVG)
		}
		cfg.SetOutputFormat(format)
	}
	if flags.Changed("concurrency") {
		n, _ := flags.GetInt("concurrency")
		if n <= 0 {
			return fmt.Errorf("--concurrency must be a positive integer, got %d", n)
		}
		cfg.SetBatchConcurrency(n)
	}
	if opts.outputDir == "" {
		opts.outputDir = cfg.Output().Dir
	}
	return nil
}

// runLayout lays out every path and writes the reports: to out in input
// order, or one file per input under opts.outputDir.
func runLayout(ctx context.Context, logger *zap.Logger, cfg config.Interface, paths []string, opts layoutOptions, out io.Writer) error {
	format := cfg.Output().Format
	if opts.outputDir == "" && format == config.FormatSVG && len(paths) > 1 {
		return fmt.Errorf("svg reports for %d documents need --output-dir", len(paths))
	}

	builderOpts, err := loadStylesheets(opts.stylesheets)
	if err != nil {
		return err
	}
	lc := cfg.Layout()
	builderOpts = append(builderOpts, boxtree.WithLogger(logger), boxtree.WithViewport(lc.ViewportWidth, lc.ViewportHeight))
	builder := boxtree.NewBuilder(builderOpts...)

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	batchID := uuid.NewString()
	logger = logger.With(zap.String("batch_id", batchID))
	logger.Info("Starting layout",
		zap.Int("documents", len(paths)),
		zap.Float64("viewport_width", lc.ViewportWidth),
		zap.Float64("viewport_height", lc.ViewportHeight),
		zap.String("format", format),
		zap.Int("concurrency", cfg.Batch().Concurrency),
	)

	var names []string
	if opts.outputDir != "" {
		if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		names = reportNames(paths, format)
	}

	reports := make([]*report.Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch().Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := layoutDocument(builder, engine, path, lc, logger)
			if err != nil {
				return err
			}
			if names == nil {
				reports[i] = r
				return nil
			}
			target := filepath.Join(opts.outputDir, names[i])
			if err := writeReportFile(target, r, format, !opts.compact && cfg.Output().Pretty); err != nil {
				return err
			}
			logger.Info("Report written", zap.String("source", path), zap.String("path", target))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		if err := writeReport(out, r, format, !opts.compact && cfg.Output().Pretty); err != nil {
			return err
		}
	}
	logger.Info("Layout completed", zap.Int("documents", len(paths)))
	return nil
}

// newEngine configures the layout engine and its text measurer.
func newEngine(cfg config.Interface, logger *zap.Logger) (*layout.Engine, error) {
	measurer, err := textmeasure.New(cfg.Fonts(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text measurer: %w", err)
	}
	lc := cfg.Layout()
	opts := []layout.Option{
		layout.WithLogger(logger),
		layout.WithMaxDepth(lc.MaxDepth),
		layout.WithFallbackRatios(lc.CharWidthRatio, lc.MonoWidthRatio),
	}
	if measurer != nil {
		opts = append(opts, layout.WithMeasurer(measurer))
	}
	return layout.NewEngine(opts...), nil
}

func loadStylesheets(paths []string) ([]boxtree.Option, error) {
	var opts []boxtree.Option
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read style sheet: %w", err)
		}
		opts = append(opts, boxtree.WithStylesheet(css.Parse(string(data))))
	}
	return opts, nil
}

// layoutDocument builds, lays out and snapshots one HTML file.
func layoutDocument(builder *boxtree.Builder, engine *layout.Engine, path string, lc config.LayoutConfig, logger *zap.Logger) (*report.Report, error) {
	doc, err := builder.ParseFile(path)
	if err != nil {
		return nil, err
	}
	res := engine.Compute(doc.Tree, lc.ViewportWidth, lc.ViewportHeight)
	logger.Debug("Document laid out",
		zap.String("source", path),
		zap.String("pass_id", res.PassID),
		zap.Int("nodes", res.Nodes),
		zap.Int("unsized", res.Unsized),
		zap.Duration("duration", res.Duration),
	)
	if res.Unsized > 0 {
		logger.Warn("Subtrees exceeded the depth limit and were left unsized",
			zap.String("source", path), zap.Int("unsized", res.Unsized))
	}
	return report.Build(path, doc.Tree, res, lc.ViewportWidth, lc.ViewportHeight, doc), nil
}

// reportNames derives one file name per input from its base name,
// numbering repeats so inputs from different directories never collide.
func reportNames(paths []string, format string) []string {
	names := make([]string, len(paths))
	taken := make(map[string]bool)
	next := make(map[string]int)
	for i, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		name := base + "." + format
		for n := next[base]; taken[name]; n++ {
			name = base + "-" + strconv.Itoa(n+1) + "." + format
			next[base] = n + 1
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func writeReport(w io.Writer, r *report.Report, format string, pretty bool) error {
	switch format {
	case config.FormatSVG:
		return report.WriteSVG(w, r)
	case config.FormatJSON:
		return report.WriteJSON(w, r, pretty)
	}
	return fmt.Errorf("unsupported report format %q", format)
}

func writeReportFile(path string, r *report.Report, format string, pretty bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()
	return writeReport(f, r, format, pretty)
}
