package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/jodrm/stampwise/internal/config"
	"github.com/jodrm/stampwise/internal/coordinator"
	"github.com/jodrm/stampwise/internal/locate"
	"github.com/jodrm/stampwise/internal/rasterize"
	"github.com/jodrm/stampwise/internal/stamp"
	"github.com/rs/zerolog"
)

// pipeline bundles everything a single stamp run needs, loaded once and
// reused across every PDF a directory walk or watch event hands it.
type pipeline struct {
	cfg        *config.Config
	logger     zerolog.Logger
	compositor stamp.Compositor
	stampImg   image.Image
	rasterizer rasterize.Rasterizer
}

func newPipeline(cfg *config.Config, logger zerolog.Logger, synthetic bool) (*pipeline, error) {
	var compositor *stamp.PDFCompositor
	if cfg.Stamp.FontPath != "" {
		f, err := stamp.LoadFont(cfg.Stamp.FontPath, cfg.Stamp.CaptionSizePx, 72)
		if err != nil {
			return nil, fmt.Errorf("loading caption font: %w", err)
		}
		compositor = &stamp.PDFCompositor{Font: f, TextSize: cfg.Stamp.CaptionSizePx}
	} else {
		compositor = &stamp.PDFCompositor{TextSize: cfg.Stamp.CaptionSizePx}
	}

	var stampImg image.Image
	if cfg.Stamp.ImagePath != "" {
		f, err := os.Open(cfg.Stamp.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("opening stamp image: %w", err)
		}
		defer f.Close()
		stampImg, _, err = image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding stamp image: %w", err)
		}
	}

	// Synthetic never renders real page content, so it's opt-in only (the
	// documented --synthetic debug flag); production runs shell out to a
	// real renderer via External.
	var r rasterize.Rasterizer = &rasterize.External{}
	if synthetic {
		r = &rasterize.Synthetic{}
		logger.Warn().Msg("--synthetic set: stamping against blank pages, not real page content")
	}

	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		compositor: compositor,
		stampImg:   stampImg,
		rasterizer: r,
	}, nil
}

// stampPDF runs the coordinator over pdfPath and composites the stamp
// onto every page it returned a Plan for, numbering captions from
// documentIndex (the teacher's directory walk assigns one index per
// file; page_index within a document is the page number minus one).
func (p *pipeline) stampPDF(ctx context.Context, pdfPath string, documentIndex int) error {
	if p.stampImg == nil {
		return fmt.Errorf("no stamp image configured ([stamp].image_path)")
	}

	locatorOpts := locate.Options{
		AcceptableOverlap: p.cfg.Locator.AcceptableOverlap,
		FallbackOverlap:   p.cfg.Locator.FallbackOverlap,
		Margin:            p.cfg.Locator.Margin,
	}
	locatorOpts.SetPreferCorners(p.cfg.Locator.PreferCorners)

	results, tuning, err := coordinator.Run(ctx, coordinator.Config{
		PDFPath:        pdfPath,
		Rasterizer:     p.rasterizer,
		LocatorOptions: locatorOpts,
		MaxMemoryBytes: p.cfg.Coordinator.MaxMemoryBytes,
		Logger:         p.logger,
	})
	if err != nil {
		return fmt.Errorf("coordinating %s: %w", pdfPath, err)
	}
	dpi := tuning.WorkingDPI

	var failed int
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn().Str("pdf", pdfPath).Int("page", r.Page).Err(r.Err).Msg("page skipped")
			failed++
			continue
		}
		caption := stamp.Caption{
			Prefix:        p.cfg.Stamp.Prefix,
			DocumentIndex: documentIndex,
			PageIndex:     r.Page - 1,
		}
		if err := p.compositor.Composite(pdfPath, r.Plan, dpi, p.stampImg, caption); err != nil {
			return fmt.Errorf("compositing page %d of %s: %w", r.Page, pdfPath, err)
		}
	}

	p.logger.Info().Str("pdf", pdfPath).Int("pages", len(results)).Int("skipped", failed).Msg("stamped")
	return nil
}
