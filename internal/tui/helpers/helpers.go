package helpers

import (
	"wpmcp/internal/logging"
)

// UIContext carries environment information needed for creating UI models
type UIContext struct {
	Width  int
	Height int
	Logger *logging.AppLogger
}

// NewUIContext creates a new UI context with the provided parameters
func NewUIContext(width, height int, logger *logging.AppLogger) UIContext {
	return UIContext{
		Width:  width,
		Height: height,
		Logger: logger,
	}
}

// HasValidDimensions checks if the context has valid window dimensions
func (ctx UIContext) HasValidDimensions() bool {
	return ctx.Width > 0 && ctx.Height > 0
}
