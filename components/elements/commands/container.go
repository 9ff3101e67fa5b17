package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
)

type containerService interface {
	AttachContainer(ctx context.Context, c *elements.Container) error
	DetachContainer(ctx context.Context) error
}

// AttachContainerInput names the container to mount into.
type AttachContainerInput struct {
	Name string `json:"name"`
}

// AttachContainerCommand mounts the element into a named container.
type AttachContainerCommand struct {
	service   containerService
	telemetry Telemetry
}

// NewAttachContainerCommand creates a command instance.
func NewAttachContainerCommand(service containerService, telemetry Telemetry) *AttachContainerCommand {
	return &AttachContainerCommand{service: service, telemetry: elements.NormalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AttachContainerInput] = (*AttachContainerCommand)(nil)

// Execute builds the container and attaches it.
func (c *AttachContainerCommand) Execute(ctx context.Context, msg AttachContainerInput) error {
	if c.service == nil {
		return errors.New("attach container command requires service")
	}
	if strings.TrimSpace(msg.Name) == "" {
		return errors.New("attach container command requires a name")
	}
	container := elements.NewContainer(msg.Name)
	if err := c.service.AttachContainer(ctx, container); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "elements.container.attach", map[string]any{
		"container": container.ID(),
	})
	return nil
}

// DetachContainerInput carries no fields; the element has a single host.
type DetachContainerInput struct{}

// DetachContainerCommand unmounts the element.
type DetachContainerCommand struct {
	service   containerService
	telemetry Telemetry
}

// NewDetachContainerCommand creates a command instance.
func NewDetachContainerCommand(service containerService, telemetry Telemetry) *DetachContainerCommand {
	return &DetachContainerCommand{service: service, telemetry: elements.NormalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DetachContainerInput] = (*DetachContainerCommand)(nil)

// Execute detaches the container.
func (c *DetachContainerCommand) Execute(ctx context.Context, _ DetachContainerInput) error {
	if c.service == nil {
		return errors.New("detach container command requires service")
	}
	if err := c.service.DetachContainer(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "elements.container.detach", nil)
	return nil
}
