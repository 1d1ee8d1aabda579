package agent

import (
	"fmt"
	"sync"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/search"
)

// Agent type names the factory registers out of the box.
const (
	TypeResearch = "research"
	TypeWriting  = "writing"
	TypeSEO      = "seo"
	TypeImage    = "image"
)

// Config carries per-agent identity overrides passed to constructors. Zero
// values mean the constructor's defaults apply.
type Config struct {
	ID   string
	Name string
}

// FactoryOptions hold the collaborators shared by every agent the factory
// constructs. Nil backends are allowed; agents degrade gracefully without
// them.
type FactoryOptions struct {
	Model        model.Model
	ImageModel   model.ImageModel
	SearchClient search.Client
	IDGenerator  core.IDGenerator
	Clock        core.Clock
	Logger       logging.Logger
}

// Constructor builds one agent of a registered type from the per-agent config
// and the factory-wide collaborators.
type Constructor func(cfg Config, opts FactoryOptions) core.Agent

// Factory constructs pipeline agents by type name, injecting shared backends
// so callers configure models and search clients once.
//
// A Factory is safe for concurrent use by multiple goroutines.
type Factory struct {
	mu           sync.RWMutex
	opts         FactoryOptions
	constructors map[string]Constructor
	order        []string
}

// NewFactory creates a factory with the four built-in agent types registered:
// research, writing, seo and image.
func NewFactory(optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	f := &Factory{
		opts:         opts,
		constructors: make(map[string]Constructor),
	}

	f.register(TypeResearch, func(cfg Config, opts FactoryOptions) core.Agent {
		return NewResearchAgent(func(o *ResearchOptions) {
			applyConfig(cfg, &o.ID, &o.Name)
			o.SearchClient = opts.SearchClient
			o.IDGenerator = opts.IDGenerator
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	})
	f.register(TypeWriting, func(cfg Config, opts FactoryOptions) core.Agent {
		return NewWritingAgent(func(o *WritingOptions) {
			applyConfig(cfg, &o.ID, &o.Name)
			o.Model = opts.Model
			o.IDGenerator = opts.IDGenerator
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	})
	f.register(TypeSEO, func(cfg Config, opts FactoryOptions) core.Agent {
		return NewSEOAgent(func(o *SEOOptions) {
			applyConfig(cfg, &o.ID, &o.Name)
			o.SearchClient = opts.SearchClient
			o.IDGenerator = opts.IDGenerator
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	})
	f.register(TypeImage, func(cfg Config, opts FactoryOptions) core.Agent {
		return NewImageAgent(func(o *ImageOptions) {
			applyConfig(cfg, &o.ID, &o.Name)
			o.Model = opts.ImageModel
			o.IDGenerator = opts.IDGenerator
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	})

	return f
}

// Register adds a custom agent type. Registering a taken name is an error so
// built-ins cannot be silently shadowed.
func (f *Factory) Register(typeName string, ctor Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.constructors[typeName]; ok {
		return fmt.Errorf("agent type %q already registered", typeName)
	}
	f.constructors[typeName] = ctor
	f.order = append(f.order, typeName)
	return nil
}

// New constructs an agent of the given type. It returns
// *core.UnknownAgentTypeError when the type was never registered.
func (f *Factory) New(typeName string, cfg Config) (core.Agent, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[typeName]
	opts := f.opts
	f.mu.RUnlock()

	if !ok {
		return nil, &core.UnknownAgentTypeError{TypeName: typeName}
	}
	return ctor(cfg, opts), nil
}

// Types returns the registered type names in registration order.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, len(f.order))
	copy(types, f.order)
	return types
}

// register installs a built-in constructor, panicking on the (programming
// error) case of a duplicate name.
func (f *Factory) register(typeName string, ctor Constructor) {
	if err := f.Register(typeName, ctor); err != nil {
		panic(err)
	}
}

func applyConfig(cfg Config, id, name *string) {
	if cfg.ID != "" {
		*id = cfg.ID
	}
	if cfg.Name != "" {
		*name = cfg.Name
	}
}
