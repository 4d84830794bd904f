package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jodrm/stampwise/internal/config"
	"github.com/jodrm/stampwise/internal/logging"
	"github.com/spf13/cobra"
)

func newStampCmd(configPath *string, synthetic *bool) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Stamp a single PDF or a directory tree of PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" || output == "" {
				return fmt.Errorf("both -i and -o are required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger := logging.New("stamp")
			p, err := newPipeline(cfg, logger, *synthetic)
			if err != nil {
				return err
			}

			info, err := os.Stat(input)
			if err != nil {
				return fmt.Errorf("input path %q does not exist", input)
			}
			ctx := cmd.Context()
			if info.IsDir() {
				return stampDirectory(ctx, p, input, output)
			}
			return stampSingleFile(ctx, p, input, output, 0)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input PDF file or directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF file or directory")
	return cmd
}

func stampSingleFile(ctx context.Context, p *pipeline, inputFile, outputFile string, documentIndex int) error {
	if !strings.HasSuffix(strings.ToLower(inputFile), ".pdf") {
		return fmt.Errorf("input file %q must have a .pdf extension", inputFile)
	}
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := copyFile(inputFile, outputFile); err != nil {
		return fmt.Errorf("staging output %s: %w", outputFile, err)
	}
	return p.stampPDF(ctx, outputFile, documentIndex)
}

func stampDirectory(ctx context.Context, p *pipeline, inputDir, outputDir string) error {
	if info, err := os.Stat(outputDir); err == nil && !info.IsDir() {
		return fmt.Errorf("input is a directory, but output %q is a file", outputDir)
	}

	documentIndex := 0
	return filepath.WalkDir(inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".pdf") {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		out := filepath.Join(outputDir, rel)
		if err := stampSingleFile(ctx, p, path, out, documentIndex); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		documentIndex++
		return nil
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
