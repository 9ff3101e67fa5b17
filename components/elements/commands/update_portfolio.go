package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
)

type portfolioService interface {
	UpdatePortfolio(ctx context.Context, q elements.PortfolioQuery) error
}

// UpdatePortfolioInput carries a replacement portfolio.
type UpdatePortfolioInput struct {
	Portfolio elements.PortfolioQuery `json:"portfolio"`
}

// UpdatePortfolioCommand validates a portfolio and re-mounts the element with it.
type UpdatePortfolioCommand struct {
	service   portfolioService
	telemetry Telemetry
}

// NewUpdatePortfolioCommand creates a command instance.
func NewUpdatePortfolioCommand(service portfolioService, telemetry Telemetry) *UpdatePortfolioCommand {
	return &UpdatePortfolioCommand{service: service, telemetry: elements.NormalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdatePortfolioInput] = (*UpdatePortfolioCommand)(nil)

// Execute delegates to the elements service.
func (c *UpdatePortfolioCommand) Execute(ctx context.Context, msg UpdatePortfolioInput) error {
	if c.service == nil {
		return errors.New("update portfolio command requires service")
	}
	if err := c.service.UpdatePortfolio(ctx, msg.Portfolio); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "elements.portfolio.update", map[string]any{
		"entries": len(msg.Portfolio.IDs),
	})
	return nil
}
