package render

import (
	"context"
	"time"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
	"candidature-ai/pkg/utils"
)

// Renderer produces CV PDFs
type Renderer struct {
	engine   *Engine
	compiler Compiler
	logger   logging.Logger
}

func NewRenderer(compiler Compiler) *Renderer {
	return &Renderer{
		engine:   NewEngine(),
		compiler: compiler,
		logger:   logging.GetGlobalLogger().WithField("component", "render"),
	}
}

// RenderCV renders and compiles cv. Template problems surface as
// InvalidInput, compilation problems as RenderError.
func (r *Renderer) RenderCV(ctx context.Context, cv *models.CV, opts Options) ([]byte, error) {
	source, err := r.engine.Render(cv, opts)
	if err != nil {
		return nil, utils.NewInvalidInputError(err.Error())
	}

	start := time.Now()
	pdf, err := r.compiler.Compile(ctx, source)
	if err != nil {
		r.logger.Error("cv compilation failed", map[string]interface{}{
			"error":     err.Error(),
			"watermark": opts.Watermark,
		})
		return nil, utils.NewRenderError(err)
	}

	r.logger.Info("cv rendered", map[string]interface{}{
		"bytes":       len(pdf),
		"watermark":   opts.Watermark,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return pdf, nil
}
