package elements

import "context"

// LifecycleEvent describes a mount controller transition.
type LifecycleEvent struct {
	ContainerID string     `json:"container_id,omitempty"`
	InstanceID  string     `json:"instance_id,omitempty"`
	Impact      ImpactType `json:"impact"`
	State       MountState `json:"state"`
	Reason      string     `json:"reason,omitempty"`
}

// LifecycleHook observes element mounts and unmounts. Errors are logged and
// never affect the controller.
type LifecycleHook interface {
	ElementChanged(ctx context.Context, event LifecycleEvent) error
}

// LifecycleHookFunc adapts a function into a LifecycleHook.
type LifecycleHookFunc func(ctx context.Context, event LifecycleEvent) error

// ElementChanged implements LifecycleHook.
func (f LifecycleHookFunc) ElementChanged(ctx context.Context, event LifecycleEvent) error {
	return f(ctx, event)
}

// LifecycleHooks fans an event out to several hooks and returns the first error.
type LifecycleHooks []LifecycleHook

// ElementChanged implements LifecycleHook.
func (hs LifecycleHooks) ElementChanged(ctx context.Context, event LifecycleEvent) error {
	var first error
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.ElementChanged(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
