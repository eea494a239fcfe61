package output

import (
	"context"
	"sync/atomic"

	"github.com/hyperjump/docread/internal/extract"
	"github.com/hyperjump/docread/pkg/utils"
	"go.uber.org/zap"
)

// Extractor is the part of *extract.Extractor the pipeline needs.
type Extractor interface {
	ExtractResult(ctx context.Context, path string) extract.Result
}

// Stats counts pipeline outcomes since start.
type Stats struct {
	Extracted int64 `json:"extracted"`
	Failed    int64 `json:"failed"`
	Removed   int64 `json:"removed"`
}

// Pipeline extracts changed documents and mirrors them into a Writer.
// It satisfies watcher.Handler.
type Pipeline struct {
	ctx       context.Context
	extractor Extractor
	writer    *Writer
	logger    *zap.Logger

	extracted atomic.Int64
	failed    atomic.Int64
	removed   atomic.Int64
}

// NewPipeline returns a pipeline whose extractions run under ctx.
func NewPipeline(ctx context.Context, ex Extractor, w *Writer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{ctx: ctx, extractor: ex, writer: w, logger: logger}
}

// Changed extracts path and writes its text. A failed extraction keeps any previous output.
func (p *Pipeline) Changed(path string) {
	if p.writer.IsOutput(path) {
		return
	}
	res := p.extractor.ExtractResult(p.ctx, path)
	if !res.OK() {
		p.failed.Add(1)
		p.logger.Warn("extraction failed",
			zap.String("path", path),
			zap.String("kind", string(res.Kind)),
			zap.String("error", res.Message))
		return
	}
	dst, err := p.writer.Write(path, res.Text)
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("write output failed", zap.String("path", path), zap.Error(err))
		return
	}
	p.extracted.Add(1)
	p.logger.Info("extracted",
		zap.String("path", path),
		zap.String("output", dst),
		zap.Int("bytes", len(res.Text)))
	p.logger.Debug("extracted preview",
		zap.String("path", path),
		zap.String("text", utils.Truncate(utils.SingleLine(res.Text), 80)))
}

// Removed deletes the output of a deleted source.
func (p *Pipeline) Removed(path string) {
	if err := p.writer.Remove(path); err != nil {
		p.logger.Error("remove output failed", zap.String("path", path), zap.Error(err))
		return
	}
	p.removed.Add(1)
	p.logger.Info("removed output", zap.String("path", path))
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Extracted: p.extracted.Load(),
		Failed:    p.failed.Load(),
		Removed:   p.removed.Load(),
	}
}
