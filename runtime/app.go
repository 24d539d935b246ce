package runtime

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed flows/*.yaml
var flowFiles embed.FS

type App struct {
	Container *Container
	Flows     *Registry
	Tasks     *Background
	l         *slog.Logger
}

// NewApp loads the embedded flow tables and prepares the component container.
// The background runner is kept out of the container: Shutdown drains it
// before the components its tasks write to are closed.
func NewApp(l *slog.Logger) (*App, error) {
	flows, err := LoadFlows(flowFiles, "flows")
	if err != nil {
		return nil, err
	}

	return &App{
		Container: NewContainer(),
		Flows:     flows,
		Tasks:     NewBackground(l, DefaultFailureBuffer),
		l:         l,
	}, nil
}

// Shutdown waits for background tasks, then shuts the container down in
// reverse registration order. Components are closed even when draining
// times out.
func (a *App) Shutdown(ctx context.Context) error {
	drainErr := a.Tasks.Shutdown(ctx)
	return errors.Join(drainErr, a.Container.Shutdown(ctx))
}

func (a *App) RegisterComponent(name string, component any) error {
	return a.Container.Register(name, component)
}

// NewDispatcher wires the flow tables to the flight lookup and the prefetch
// store. Both collaborators may be nil.
func (a *App) NewDispatcher(lookup FlightLookup, store PrefetchStore) (*Dispatcher, error) {
	evaluator := NewExpressionEvaluator()
	for _, flow := range a.Flows.All() {
		for name, screen := range flow.Screens {
			for field, rule := range screen.Gates {
				if err := evaluator.Check(rule); err != nil {
					return nil, fmt.Errorf("flow %s screen %s: invalid gate %s: %w", flow.ID, name, field, err)
				}
			}
		}
	}
	return NewDispatcher(a.l, a.Flows, evaluator, lookup, store, a.Tasks), nil
}

// Registry indexes the loaded flows and the screens each one owns.
type Registry struct {
	flows map[string]*Flow
	owner map[string]string
}

// LoadFlows reads every *.yaml flow table under dir. A screen name may belong
// to a single flow only.
func LoadFlows(fsys fs.FS, dir string) (*Registry, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	registry := Registry{
		flows: make(map[string]*Flow),
		owner: make(map[string]string),
	}

	for _, file := range files {
		flow, err := readFlow(fsys, file)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterFlow(flow); err != nil {
			return nil, err
		}
	}

	return &registry, nil
}

func (r *Registry) RegisterFlow(flow Flow) error {
	if flow.ID == "" {
		return fmt.Errorf("flow without id")
	}
	if _, ok := r.flows[flow.ID]; ok {
		return fmt.Errorf("duplicate flow %s", flow.ID)
	}
	if _, ok := flow.Screens[flow.InitScreen]; !ok {
		return fmt.Errorf("flow %s: init screen %q is not defined", flow.ID, flow.InitScreen)
	}
	for screen := range flow.Screens {
		if other, ok := r.owner[screen]; ok {
			return fmt.Errorf("screen %s is declared by both %s and %s", screen, other, flow.ID)
		}
	}
	for screen := range flow.Screens {
		r.owner[screen] = flow.ID
	}
	r.flows[flow.ID] = &flow
	return nil
}

// Flow returns the flow registered under id.
func (r *Registry) Flow(id string) (*Flow, bool) {
	flow, ok := r.flows[id]
	return flow, ok
}

// Owns reports whether screen belongs to the flow id.
func (r *Registry) Owns(id, screen string) bool {
	return r.owner[screen] == id && id != ""
}

func (r *Registry) All() []*Flow {
	result := make([]*Flow, 0, len(r.flows))
	for _, flow := range r.flows {
		result = append(result, flow)
	}
	return result
}

func readFlow(fsys fs.FS, file string) (Flow, error) {
	yamlFile, err := fs.ReadFile(fsys, file)
	if err != nil {
		return Flow{}, fmt.Errorf("error reading YAML file: %w", err)
	}

	var flow Flow
	err = yaml.Unmarshal(yamlFile, &flow)
	if err != nil {
		return Flow{}, fmt.Errorf("error unmarshalling YAML: %w", err)
	}

	return flow, nil
}
