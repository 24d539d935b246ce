package runtime

import (
	"context"
	"errors"
	"fmt"
)

// Lifecycle is implemented by components that hold resources: HTTP clients,
// cache connections, background workers.
type Lifecycle interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type Container struct {
	components map[string]any
	lifecycle  []namedLifecycle // registration order
}

type namedLifecycle struct {
	name      string
	component Lifecycle
}

func NewContainer() *Container {
	return &Container{
		components: make(map[string]any),
	}
}

// Register stores a component and remembers it for Initialize/Shutdown when
// it implements Lifecycle.
func (c *Container) Register(name string, component any) error {
	if component == nil {
		return fmt.Errorf("component %s cannot be nil", name)
	}
	if _, exists := c.components[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	c.components[name] = component

	if lifecycle, ok := component.(Lifecycle); ok {
		c.lifecycle = append(c.lifecycle, namedLifecycle{name: name, component: lifecycle})
	}

	return nil
}

// Get returns a component by name
func (c *Container) Get(name string) any {
	return c.components[name]
}

// Initialize calls Initialize on every Lifecycle component in registration
// order and stops at the first failure.
func (c *Container) Initialize(ctx context.Context) error {
	for _, entry := range c.lifecycle {
		if err := entry.component.Initialize(ctx); err != nil {
			return fmt.Errorf("component %s initialization failed: %w", entry.name, err)
		}
	}
	return nil
}

// Shutdown calls Shutdown on all Lifecycle components.
// Components are shut down in reverse order of registration
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.lifecycle) - 1; i >= 0; i-- {
		entry := c.lifecycle[i]
		if err := entry.component.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("component %s shutdown failed: %w", entry.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	return nil
}
