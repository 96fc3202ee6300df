package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ingestProgress renders a progress bar for ingestion on stderr so that
// stdout stays valid JSON.
type ingestProgress struct {
	bar *progressbar.ProgressBar
}

func newIngestProgress(w io.Writer, total int) *ingestProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Ingesting files")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ingestProgress{bar: bar}
}

// Update moves the bar to done files.
func (p *ingestProgress) Update(done int) {
	_ = p.bar.Set(done)
}

// Finish completes the bar.
func (p *ingestProgress) Finish() {
	_ = p.bar.Finish()
}
