// Package render turns widget instances into client render trees: catalog
// defaults, then the instance's own config, then bound record values, then the
// component's transform.
package render

import (
	"context"

	"github.com/Annany2002/nebula-studio/internal/component"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/logger"
	"github.com/Annany2002/nebula-studio/internal/metrics"
)

var (
	customLog = logger.NewLogger()
)

// Tree is the rendered form of one widget.
type Tree struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
	Meta *Meta          `json:"meta,omitempty"`
}

// Meta describes how a tree was produced.
type Meta struct {
	WidgetID int64  `json:"widgetId,omitempty"`
	RecordID *int64 `json:"recordId,omitempty"`
	Fallback string `json:"fallback,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
}

// Engine renders widgets against the component catalog.
type Engine struct {
	registry          *component.Registry
	resolver          *Resolver
	enableDataBinding bool
	metrics           *metrics.Metrics
}

// NewEngine wires an Engine. A nil source disables data binding, as does
// enableDataBinding=false. m may be nil.
func NewEngine(registry *component.Registry, source RecordSource, enableDataBinding bool, m *metrics.Metrics) *Engine {
	e := &Engine{
		registry:          registry,
		enableDataBinding: enableDataBinding && source != nil,
		metrics:           m,
	}
	if source != nil {
		e.resolver = NewResolver(source)
	}
	return e
}

// Render produces the tree of one widget. A binding whose fallback is "hide"
// yields a tree with Meta.Hidden set and no data. An unknown type fails with
// core.ErrUnknownComponent.
func (e *Engine) Render(ctx context.Context, w domain.WidgetInstance, viewerID string) (*Tree, error) {
	def, err := e.registry.Get(w.Type)
	if err != nil {
		e.metrics.ObserveRender(w.Type, metrics.OutcomeError)
		return nil, err
	}
	renderer, err := e.registry.Renderer(w.Type)
	if err != nil {
		e.metrics.ObserveRender(w.Type, metrics.OutcomeError)
		return nil, err
	}

	cfg := def.DefaultConfig
	for k, v := range w.Config {
		cfg[k] = v
	}

	meta := &Meta{WidgetID: w.ID}
	if e.bindingEnabled(cfg) {
		res, err := e.resolver.Apply(ctx, cfg, def.Bindings, viewerID)
		if err != nil {
			e.metrics.ObserveRender(w.Type, metrics.OutcomeError)
			return nil, err
		}
		meta.RecordID = res.RecordID
		meta.Fallback = res.Fallback
		if res.Hidden {
			meta.Hidden = true
			e.metrics.ObserveRender(w.Type, metrics.OutcomeHidden)
			return &Tree{Type: w.Type, Meta: meta}, nil
		}
	}

	data := renderer(component.Config(cfg))
	e.metrics.ObserveRender(w.Type, metrics.OutcomeOK)
	return &Tree{Type: w.Type, Data: data, Meta: meta}, nil
}

func (e *Engine) bindingEnabled(cfg map[string]any) bool {
	if !e.enableDataBinding {
		return false
	}
	if _, ok := cfg[BindingKey]; !ok || cfg[BindingKey] == nil {
		return false
	}
	return component.Config(cfg).Bool(BindingSwitchKey, false)
}

// RenderPage renders widgets in order. Hidden widgets and widgets that fail to
// render are left out; failures are logged.
func (e *Engine) RenderPage(ctx context.Context, widgets []domain.WidgetInstance, viewerID string) []Tree {
	trees := make([]Tree, 0, len(widgets))
	for _, w := range widgets {
		tree, err := e.Render(ctx, w, viewerID)
		if err != nil {
			customLog.Warnf("Render: Skipping widget %d (%s) on page %d: %v", w.ID, w.Type, w.PageID, err)
			continue
		}
		if tree.Meta != nil && tree.Meta.Hidden {
			continue
		}
		trees = append(trees, *tree)
	}
	return trees
}
