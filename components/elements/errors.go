package elements

import "errors"

var (
	ErrInvalidImpact     = errors.New("elements: invalid impact type")
	ErrInvalidPortfolio  = errors.New("elements: invalid portfolio")
	ErrEmptyToken        = errors.New("elements: authorization response carried no token")
	ErrControllerClosed  = errors.New("elements: mount controller closed")
	ErrContainerOccupied = errors.New("elements: container already hosts a live element")
	ErrInstanceDestroyed = errors.New("elements: instance destroyed")
)
