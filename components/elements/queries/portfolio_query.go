package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
)

// ErrNoPortfolio is returned before a portfolio has been accepted.
var ErrNoPortfolio = errors.New("queries: no portfolio resolved yet")

type portfolioService interface {
	Portfolio() (elements.PortfolioQuery, bool)
}

// PortfolioInput carries no fields.
type PortfolioInput struct{}

// PortfolioQuery returns the portfolio currently handed to the element.
type PortfolioQuery struct {
	service portfolioService
}

// NewPortfolioQuery builds the query.
func NewPortfolioQuery(service portfolioService) *PortfolioQuery {
	return &PortfolioQuery{service: service}
}

var _ gocommand.Querier[PortfolioInput, elements.PortfolioQuery] = (*PortfolioQuery)(nil)

// Query returns a copy of the current portfolio.
func (q *PortfolioQuery) Query(context.Context, PortfolioInput) (elements.PortfolioQuery, error) {
	portfolio, ok := q.service.Portfolio()
	if !ok {
		return elements.PortfolioQuery{}, ErrNoPortfolio
	}
	return portfolio, nil
}
