package elements

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioPreviewRendersPie(t *testing.T) {
	preview := NewPortfolioPreview(PreviewOptions{})
	html, err := preview.Render(SamplePortfolio())
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "MATTER_SAMPLE_PORTFOLIO_A"))
	assert.True(t, strings.Contains(html, "Allocation (EUR)"))
}

func TestPortfolioPreviewUsesCache(t *testing.T) {
	cache := NewChartCache(time.Minute)
	preview := NewPortfolioPreview(PreviewOptions{Cache: cache})
	first, err := preview.Render(SamplePortfolio())
	require.NoError(t, err)
	second, err := preview.Render(SamplePortfolio())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	weighted := PortfolioQuery{IDs: []WeightedIdentifier{{Type: IdentifierISIN, ID: "US0378331005", Weight: weightPtr(1)}}}
	_, err = preview.Render(weighted)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestPortfolioPreviewRejectsEmpty(t *testing.T) {
	_, err := NewPortfolioPreview(PreviewOptions{}).Render(PortfolioQuery{})
	assert.Error(t, err)
}
