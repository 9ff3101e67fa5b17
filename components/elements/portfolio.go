package elements

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PortfolioSupplier resolves the portfolio to display. Implementations may do
// I/O and must honor ctx.
type PortfolioSupplier interface {
	Portfolio(ctx context.Context) (PortfolioQuery, error)
}

// PortfolioSupplierFunc adapts a function into a PortfolioSupplier.
type PortfolioSupplierFunc func(ctx context.Context) (PortfolioQuery, error)

// Portfolio implements PortfolioSupplier.
func (f PortfolioSupplierFunc) Portfolio(ctx context.Context) (PortfolioQuery, error) {
	return f(ctx)
}

type staticSupplier struct {
	query PortfolioQuery
}

// NewStaticPortfolioSupplier always returns a copy of the given query.
func NewStaticPortfolioSupplier(q PortfolioQuery) PortfolioSupplier {
	return staticSupplier{query: q.Clone()}
}

func (s staticSupplier) Portfolio(ctx context.Context) (PortfolioQuery, error) {
	if err := ctx.Err(); err != nil {
		return PortfolioQuery{}, err
	}
	return s.query.Clone(), nil
}

// SamplePortfolio returns the built-in demonstration portfolio.
func SamplePortfolio() PortfolioQuery {
	return PortfolioQuery{IDs: []WeightedIdentifier{
		sampleEntry("MATTER_SAMPLE_PORTFOLIO_A", 10000),
		sampleEntry("MATTER_SAMPLE_PORTFOLIO_B", 15000),
		sampleEntry("MATTER_SAMPLE_PORTFOLIO_C", 20000),
	}}
}

func sampleEntry(id string, amount int64) WeightedIdentifier {
	return WeightedIdentifier{
		Type: IdentifierUID,
		ID:   id,
		Allocation: &Allocation{
			Amount:   decimal.NewFromInt(amount),
			Currency: "EUR",
		},
	}
}

// FilePortfolioSupplier reads a YAML portfolio file on every call.
type FilePortfolioSupplier struct {
	Path string
}

// Portfolio implements PortfolioSupplier.
func (s FilePortfolioSupplier) Portfolio(ctx context.Context) (PortfolioQuery, error) {
	if err := ctx.Err(); err != nil {
		return PortfolioQuery{}, err
	}
	return LoadPortfolioFile(s.Path)
}

// LoadPortfolioFile decodes a YAML (or JSON) portfolio from disk.
func LoadPortfolioFile(path string) (PortfolioQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return PortfolioQuery{}, fmt.Errorf("elements: open portfolio %s: %w", path, err)
	}
	defer f.Close()
	q, err := DecodePortfolio(f)
	if err != nil {
		return PortfolioQuery{}, fmt.Errorf("elements: portfolio %s: %w", path, err)
	}
	return q, nil
}

// DecodePortfolio decodes a portfolio document. Unknown keys are rejected.
func DecodePortfolio(r io.Reader) (PortfolioQuery, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var q PortfolioQuery
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return PortfolioQuery{}, fmt.Errorf("%w: portfolio is empty", ErrInvalidPortfolio)
		}
		return PortfolioQuery{}, fmt.Errorf("%w: %v", ErrInvalidPortfolio, err)
	}
	return q, nil
}
