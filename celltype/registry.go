package celltype

import (
	"log/slog"
	"sync"
)

// Registry maps type names to descriptors. It is constructed explicitly and
// passed to whatever needs to resolve column types; there is no process-wide
// registry. All built-in descriptors are registered by NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]Type
	logger *slog.Logger
}

// NewRegistry creates a registry populated with every built-in descriptor.
// Unknown type names resolve to the text descriptor with a warning on
// logger; a nil logger falls back to slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		types:  make(map[string]Type),
		logger: logger,
	}
	for _, t := range builtins() {
		r.Register(t)
	}
	return r
}

// Register stores a descriptor keyed by its name, replacing any prior
// registration of the same name.
func (r *Registry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name()] = t
}

// Resolve returns the descriptor for name. Resolution never fails: an
// unknown name yields the text descriptor and a diagnostic log line.
func (r *Registry) Resolve(name string) Type {
	r.mu.RLock()
	t, ok := r.types[name]
	if !ok {
		t = r.types[TypeText]
	}
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown cell type, falling back to text", "type", name)
	}
	return t
}

// Names returns the registered type names, for introspection.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// Validate dispatches to the resolved descriptor.
func (r *Registry) Validate(typeName string, v Value, opts Options) error {
	return r.Resolve(typeName).Validate(v, opts)
}

// Parse dispatches to the resolved descriptor.
func (r *Registry) Parse(typeName, text string, opts Options) Value {
	return r.Resolve(typeName).Parse(text, opts)
}

// Format dispatches to the resolved descriptor.
func (r *Registry) Format(typeName string, v Value, opts Options) string {
	return r.Resolve(typeName).Format(v, opts)
}

// Serialize dispatches to the resolved descriptor.
func (r *Registry) Serialize(typeName string, v Value) string {
	return r.Resolve(typeName).Serialize(v)
}

// Compare dispatches to the resolved descriptor.
func (r *Registry) Compare(typeName string, a, b Value, opts Options) int {
	return r.Resolve(typeName).Compare(a, b, opts)
}

// Matches dispatches to the resolved descriptor.
func (r *Registry) Matches(typeName string, v Value, filter string, opts Options) bool {
	return r.Resolve(typeName).Matches(v, filter, opts)
}

func builtins() []Type {
	return []Type{
		textType{name: TypeText},
		emailType{},
		urlType{},
		phoneType{},
		numberType{},
		currencyType{},
		progressType{},
		ratingType{},
		dateType{},
		checkboxType{},
		selectType{},
		multiSelectType{},
		tagsType{},
		referenceType{},
		jsonType{},
		actionType{},
	}
}
