package ember

import (
	"strings"
	"sync"
)

// rootName is reserved for the registry's internal root logger, per spec
// §3/§4.1.
const rootName = "root"

// registry is the process-wide mapping name -> Logger, guarded by a single
// mutex (spec §5: "Logger registry: guarded by a single mutex; get/retire/
// destroy are serialized."). Grounded on the teacher's misc.go pattern of a
// small mutex-guarded struct behind a package-level accessor, generalized
// from a single lazily-initialized bool to a full named hierarchy.
type registry struct {
	mu          sync.Mutex
	loggers     map[string]*Logger
	initialized bool
}

var reg = &registry{loggers: make(map[string]*Logger)}

// Initialize installs the internal root with the given default severity.
// Idempotent if called with the same severity; otherwise replaces the
// root's severity, per spec §4.1.
func Initialize(defaultSeverity Severity) *Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	root, ok := reg.loggers[rootName]
	if !ok {
		root = newLogger(rootName)
		reg.loggers[rootName] = root
	}
	root.explicitSeverity.Store(int64(defaultSeverity))
	reg.initialized = true
	return root
}

// Get returns the logger with the given name, creating it if absent with
// the given severity (NotSet when omitted), per spec §4.1. An existing
// logger is returned unchanged. The name "root" is rejected.
func Get(name string, severity ...Severity) (*Logger, error) {
	if name == rootName {
		return nil, &NameConflictError{Name: name, Reason: `"root" is reserved for the registry's internal root logger`}
	}
	if name == "" {
		return nil, &ConfigError{Field: "name", Reason: "logger name must not be empty"}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if !reg.initialized {
		root := newLogger(rootName)
		root.explicitSeverity.Store(int64(Warning))
		reg.loggers[rootName] = root
		reg.initialized = true
	}

	if l, ok := reg.loggers[name]; ok {
		return l, nil
	}

	l := newLogger(name)
	if len(severity) > 0 {
		l.explicitSeverity.Store(int64(severity[0]))
	}
	reg.loggers[name] = l
	return l, nil
}

// Retire flushes and closes all of a logger's sinks and marks it retired;
// subsequent emissions are silently dropped. The name remains reserved in
// the registry, per spec §4.1.
func Retire(l *Logger) error {
	if l == nil {
		return &LifecycleError{Reason: "nil logger"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return &LifecycleError{LoggerName: l.name, Reason: "logger already destroyed"}
	}
	if l.retired {
		return nil
	}
	l.closeSinksLocked()
	l.retired = true
	return nil
}

// Destroy retires l and removes it from the registry. After Destroy,
// Get(name) creates a fresh logger, per spec §4.1.
func Destroy(l *Logger) error {
	if l == nil {
		return &LifecycleError{Reason: "nil logger"}
	}
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return &LifecycleError{LoggerName: l.name, Reason: "logger already destroyed"}
	}
	if !l.retired {
		l.closeSinksLocked()
		l.retired = true
	}
	l.destroyed = true
	name := l.name
	l.mu.Unlock()

	reg.mu.Lock()
	delete(reg.loggers, name)
	reg.mu.Unlock()
	return nil
}

// resolveEffective walks the dotted-name parent chain to the first
// ancestor with an explicit severity, per spec §4.1 "Severity resolution
// for emission".
func resolveEffective(name string) Severity {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return resolveEffectiveLocked(name)
}

func resolveEffectiveLocked(name string) Severity {
	for n := name; n != ""; n = parentName(n) {
		if l, ok := reg.loggers[n]; ok {
			if sev := Severity(l.explicitSeverity.Load()); sev != NotSet {
				return sev
			}
		}
	}
	if root, ok := reg.loggers[rootName]; ok {
		return Severity(root.explicitSeverity.Load())
	}
	return Warning
}

// parentName returns the dotted parent of name, or "" if name has no
// parent (is top-level).
func parentName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}
