package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docflow/docflow/internal/convert"
	"github.com/docflow/docflow/internal/imaging"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf>",
	Short: "Convert a PDF file to Word, text, or HTML",
	Long: `Convert reads a PDF file and writes the converted document next to it,
or to the path given with --output. Progress is reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output path (default: input name with the format's extension)")
	convertCmd.Flags().String("format", "docx", "output format: docx, txt, or html")
	convertCmd.Flags().String("title", "", "override the document title")
	convertCmd.Flags().String("author", "", "override the document author")
	convertCmd.Flags().Int("font-size", 0, "body font size in points")
	convertCmd.Flags().String("font-family", "", "body font family")
	convertCmd.Flags().Bool("simple", false, "plain paragraphs only, skip table and image layout")
	convertCmd.Flags().Bool("no-metadata", false, "omit the title and metadata section")
	convertCmd.Flags().Bool("no-page-numbers", false, "omit per-page headings")
	convertCmd.Flags().Bool("quiet", false, "suppress progress output")

	viper.BindPFlag("format", convertCmd.Flags().Lookup("format"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	quiet, _ := cmd.Flags().GetBool("quiet")

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	opts := convert.DefaultOptions()
	opts.Format = strings.ToLower(viper.GetString("format"))
	opts.Title, _ = cmd.Flags().GetString("title")
	opts.Author, _ = cmd.Flags().GetString("author")
	if n, _ := cmd.Flags().GetInt("font-size"); n > 0 {
		opts.FontSize = n
	}
	if f, _ := cmd.Flags().GetString("font-family"); f != "" {
		opts.FontFamily = f
	}
	if simple, _ := cmd.Flags().GetBool("simple"); simple {
		opts.SimpleMode = true
	}
	if noMeta, _ := cmd.Flags().GetBool("no-metadata"); noMeta {
		opts.IncludeMetadata = false
	}
	if noPages, _ := cmd.Flags().GetBool("no-page-numbers"); noPages {
		opts.IncludePageNumbers = false
		opts.IncludeHeaders = false
		opts.IncludeFooters = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var onProgress convert.ProgressFunc
	if !quiet {
		onProgress = func(p convert.Progress) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s: %s\n", p.Percent, p.Stage, p.Message)
		}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	converter := convert.New(log, imaging.NewCache(0))
	result := converter.Convert(ctx, data, opts, onProgress)
	if !result.Success {
		for _, warn := range result.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", warn)
		}
		return fmt.Errorf("conversion failed: %s", result.Error)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(filepath.Dir(input), convert.OutputFilename(filepath.Base(input), result.Format))
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	for _, warn := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warn)
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "wrote %s (%d pages, %d words)\n",
			output, result.Metadata.ConvertedPages, result.Metadata.WordCount)
	}
	return nil
}
