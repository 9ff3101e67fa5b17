package elements

import (
	core "github.com/goliatone/go-matter-elements/components/elements"
)

// Service exposes the underlying components/elements.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// PortfolioQuery re-export for convenience.
type PortfolioQuery = core.PortfolioQuery

// WidgetOptions re-export for convenience.
type WidgetOptions = core.WidgetOptions

// NewService proxies to the internal constructor.
func NewService(opts Options) (*Service, error) {
	return core.NewService(opts)
}
