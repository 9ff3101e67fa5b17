package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-matter-elements/components/elements"
)

type statusService interface {
	Status() elements.Status
}

// StatusInput carries no fields.
type StatusInput struct{}

// StatusQuery reports the mount and authorization state.
type StatusQuery struct {
	service statusService
}

// NewStatusQuery builds the query.
func NewStatusQuery(service statusService) *StatusQuery {
	return &StatusQuery{service: service}
}

var _ gocommand.Querier[StatusInput, elements.Status] = (*StatusQuery)(nil)

// Query returns the current status.
func (q *StatusQuery) Query(ctx context.Context, _ StatusInput) (elements.Status, error) {
	if err := ctx.Err(); err != nil {
		return elements.Status{}, err
	}
	return q.service.Status(), nil
}
