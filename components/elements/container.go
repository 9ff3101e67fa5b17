package elements

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ettle/strcase"
)

const defaultContainerID = "element-container"

// ElementMount is what a rendered element leaves in its container: enough for
// the page to bootstrap the hosted runtime against the container's DOM node.
type ElementMount struct {
	InstanceID string     `json:"instance_id"`
	Impact     ImpactType `json:"impact"`
	Portfolio  string     `json:"portfolio"`
	Options    string     `json:"options"`
}

// Container is a page slot that hosts at most one live element.
type Container struct {
	name string
	id   string

	mu    sync.RWMutex
	mount *ElementMount
}

// NewContainer builds a container whose DOM id is the kebab-cased name.
func NewContainer(name string) *Container {
	id := strcase.ToKebab(strings.TrimSpace(name))
	if id == "" {
		id = defaultContainerID
	}
	return &Container{name: name, id: id}
}

// ID returns the DOM id used by the page.
func (c *Container) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Name returns the name the container was created with.
func (c *Container) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Attach binds an element to the container. Re-attaching the same instance is
// a no-op; attaching a different one while occupied fails.
func (c *Container) Attach(mount ElementMount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mount != nil && c.mount.InstanceID != mount.InstanceID {
		return fmt.Errorf("%w: %s holds %s", ErrContainerOccupied, c.id, c.mount.InstanceID)
	}
	m := mount
	c.mount = &m
	return nil
}

// Detach clears the container if it still hosts the given instance.
func (c *Container) Detach(instanceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mount == nil || c.mount.InstanceID != instanceID {
		return false
	}
	c.mount = nil
	return true
}

// Mount returns the element currently attached, if any.
func (c *Container) Mount() (ElementMount, bool) {
	if c == nil {
		return ElementMount{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mount == nil {
		return ElementMount{}, false
	}
	return *c.mount, true
}
