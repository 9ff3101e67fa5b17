package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
)

type tokenService interface {
	ProvisionToken(ctx context.Context) error
}

// ProvisionTokenInput carries no fields.
type ProvisionTokenInput struct{}

// ProvisionTokenCommand triggers the one-shot token provisioning.
type ProvisionTokenCommand struct {
	service   tokenService
	telemetry Telemetry
}

// NewProvisionTokenCommand creates a command instance.
func NewProvisionTokenCommand(service tokenService, telemetry Telemetry) *ProvisionTokenCommand {
	return &ProvisionTokenCommand{service: service, telemetry: elements.NormalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ProvisionTokenInput] = (*ProvisionTokenCommand)(nil)

// Execute delegates to the elements service.
func (c *ProvisionTokenCommand) Execute(ctx context.Context, _ ProvisionTokenInput) error {
	if c.service == nil {
		return errors.New("provision token command requires service")
	}
	if err := c.service.ProvisionToken(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "elements.token.command", nil)
	return nil
}
