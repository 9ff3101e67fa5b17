package elements

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultPreviewHeight = "320px"

// PreviewOptions configures a PortfolioPreview.
type PreviewOptions struct {
	Cache      RenderCache
	Theme      string
	AssetsHost string
	Title      string
}

// PortfolioPreview renders a pie chart of a portfolio's contributions. It is
// shown while the hosted element loads.
type PortfolioPreview struct {
	cache      RenderCache
	theme      string
	assetsHost string
	title      string
}

// NewPortfolioPreview builds a preview renderer.
func NewPortfolioPreview(opts PreviewOptions) *PortfolioPreview {
	theme := opts.Theme
	if theme == "" {
		theme = types.ThemeWesteros
	}
	title := opts.Title
	if title == "" {
		title = "Portfolio composition"
	}
	return &PortfolioPreview{
		cache:      opts.Cache,
		theme:      theme,
		assetsHost: opts.AssetsHost,
		title:      title,
	}
}

// Render returns the chart HTML for q.
func (p *PortfolioPreview) Render(q PortfolioQuery) (string, error) {
	if len(q.IDs) == 0 {
		return "", errors.New("elements: preview requires at least one portfolio entry")
	}
	renderFn := func() (string, error) {
		return p.render(q)
	}
	if p.cache == nil {
		return renderFn()
	}
	return p.cache.GetOrRender("portfolio:"+p.theme+":"+q.Hash(), renderFn)
}

func (p *PortfolioPreview) render(q PortfolioQuery) (string, error) {
	initOpts := opts.Initialization{
		Theme:  p.theme,
		Width:  "100%",
		Height: defaultPreviewHeight,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: p.title, Subtitle: previewSubtitle(q)}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("portfolio", toPortfolioPieData(q))
	return renderChart(pie)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("elements: render preview: %w", err)
	}
	return buf.String(), nil
}

func previewSubtitle(q PortfolioQuery) string {
	for _, entry := range q.IDs {
		if entry.Allocation != nil {
			return "Allocation (" + entry.Allocation.Currency + ")"
		}
	}
	return "Relative weight"
}

func toPortfolioPieData(q PortfolioQuery) []opts.PieData {
	data := make([]opts.PieData, len(q.IDs))
	for i, entry := range q.IDs {
		name := entry.ID
		if name == "" {
			name = fmt.Sprintf("Entry %d", i+1)
		}
		data[i] = opts.PieData{
			Name:  name,
			Value: entry.Contribution(),
		}
	}
	return data
}
