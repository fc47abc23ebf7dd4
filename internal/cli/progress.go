package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/oic-ledger/internal/aggregate"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/schollz/progressbar/v3"
)

// DocumentProgress draws a progress bar while documents are aggregated and
// counts what happened to them.
type DocumentProgress struct {
	writer   io.Writer
	bar      *progressbar.ProgressBar
	Included int
	Excluded int
	Failed   int
}

// NewDocumentProgress creates a progress bar for total documents.
func NewDocumentProgress(writer io.Writer, total int) *DocumentProgress {
	p := &DocumentProgress{writer: writer}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Aggregating documents...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Processed records one document outcome and advances the bar.
func (p *DocumentProgress) Processed(_, _ int, _ model.RawDocument, outcome aggregate.Outcome) {
	switch {
	case outcome.Err != nil:
		p.Failed++
	case outcome.Attribution.Owner == model.OwnerExcluded:
		p.Excluded++
	default:
		p.Included++
	}

	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
