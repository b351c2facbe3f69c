// Package loader wires the rewriter into unit loading: a namespace
// registry, an interceptor that rewrites units loaded under registered
// prefixes, and a sqlite-backed unit store.
package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/borzunov/plusplus/pkg/bytecode"
	"github.com/borzunov/plusplus/pkg/rewrite"
)

var log = commonlog.GetLogger("plusplus.loader")

// ErrNotFound is returned by loaders when no unit or source exists under
// the requested path.
var ErrNotFound = errors.New("unit not found")

// ErrNoLoader is returned by Load when no base loader has been installed.
var ErrNoLoader = errors.New("no base loader installed")

// Loader retrieves compiled units and their source text by dotted module
// path.
type Loader interface {
	LoadUnit(path string) (*bytecode.Unit, error)
	LoadSource(path string) (string, error)
}

// Interceptor wraps a base loader and pipes units loaded under registered
// namespace prefixes through the rewriter. Source retrieval and units
// outside the registered set pass through unmodified.
type Interceptor struct {
	base Loader
	reg  *Registry
	opts []rewrite.Option
}

// Intercept wraps a base loader with rewriting for namespaces registered
// in reg.
func Intercept(base Loader, reg *Registry, opts ...rewrite.Option) *Interceptor {
	return &Interceptor{base: base, reg: reg, opts: opts}
}

// LoadUnit retrieves a unit and, if its path matches a registered
// namespace, rewrites it. A structural-rewrite failure aborts the load.
func (i *Interceptor) LoadUnit(path string) (*bytecode.Unit, error) {
	u, err := i.base.LoadUnit(path)
	if err != nil {
		return nil, err
	}
	if !i.reg.Matches(path) {
		return u, nil
	}

	rewritten, err := rewrite.Rewrite(u, i.opts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	log.Debugf("rewrote unit %s (%d -> %d instructions)", path, u.Len(), rewritten.Len())
	return rewritten, nil
}

// LoadSource passes source retrieval through to the base loader.
func (i *Interceptor) LoadSource(path string) (string, error) {
	return i.base.LoadSource(path)
}

// Process-wide loader state, mirroring the lifecycle the activation
// surface needs: the registry exists from process start and grows only
// via Register; once a base loader is installed every Load goes through
// the interceptor, whether the namespace was registered before or after.
var (
	processMu    sync.Mutex
	processReg   = NewRegistry()
	processBase  Loader
	processChain Loader
)

// Install sets the process-wide base loader. Any namespaces registered
// before or after take effect on all subsequent Load calls.
func Install(base Loader, opts ...rewrite.Option) {
	processMu.Lock()
	defer processMu.Unlock()
	processBase = base
	processChain = Intercept(base, processReg, opts...)
	log.Infof("installed base loader %T", base)
}

// Register opts a dotted namespace prefix into process-wide rewriting.
func Register(prefix string) {
	processMu.Lock()
	defer processMu.Unlock()
	processReg.Register(prefix)
	log.Infof("registered namespace %q for rewriting", prefix)
}

// Registered reports whether the path would be rewritten by Load.
func Registered(path string) bool {
	return processReg.Matches(path)
}

// Load retrieves a unit through the process-wide loader chain.
func Load(path string) (*bytecode.Unit, error) {
	processMu.Lock()
	chain := processChain
	processMu.Unlock()

	if chain == nil {
		return nil, ErrNoLoader
	}
	return chain.LoadUnit(path)
}
