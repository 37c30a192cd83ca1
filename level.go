package ember

import (
	"fmt"
	"strings"
	"sync"
)

// Severity is a non-negative integer; higher is more severe. NotSet (0)
// means "inherit from parent".
type Severity int

// Built-in severities.
const (
	NotSet   Severity = 0
	Trace    Severity = 5
	Debug    Severity = 10
	Info     Severity = 20
	Warning  Severity = 30
	Error    Severity = 40
	Critical Severity = 50
)

// Intensity is one of the three text weights the ANSI renderer supports.
type Intensity int

const (
	IntensityNormal Intensity = iota
	IntensityBold
	IntensityDim
)

// StyleFlag is a toggle-able text decoration.
type StyleFlag int

const (
	StyleUnderline StyleFlag = iota
	StyleItalic
	StyleStrike
)

// LevelStyle is an immutable description of how a level name is rendered in
// color mode.
type LevelStyle struct {
	Foreground uint8
	Background uint8
	HasBg      bool
	Intensity  Intensity
	Styles     map[StyleFlag]struct{}
}

// WithStyle returns a copy of the style with flag added; LevelStyle values
// are treated as immutable once constructed.
func (s LevelStyle) WithStyle(flag StyleFlag) LevelStyle {
	out := s
	out.Styles = make(map[StyleFlag]struct{}, len(s.Styles)+1)
	for f := range s.Styles {
		out.Styles[f] = struct{}{}
	}
	out.Styles[flag] = struct{}{}
	return out
}

func (s LevelStyle) hasStyle(flag StyleFlag) bool {
	_, ok := s.Styles[flag]
	return ok
}

// LevelEntry binds a level name to a severity and a default style.
type LevelEntry struct {
	Name     string
	Severity Severity
	Style    LevelStyle
}

var defaultStyles = map[string]LevelStyle{
	"TRACE":    {Foreground: 244, Intensity: IntensityDim},
	"DEBUG":    {Foreground: 37},
	"INFO":     {Foreground: 82},
	"WARNING":  {Foreground: 214, Intensity: IntensityBold},
	"ERROR":    {Foreground: 196, Intensity: IntensityBold},
	"CRITICAL": {Foreground: 231, Background: 196, HasBg: true, Intensity: IntensityBold},
}

// levelRegistry is the process-wide mapping from level name to severity and
// style, guarded by a single mutex, grounded on the teacher's pattern of a
// small mutex-guarded struct behind a package-level accessor (misc.go's
// sync.OnceValue-backed helpers, generalized here to a full registry).
type levelRegistry struct {
	mu      sync.Mutex
	byName  map[string]*LevelEntry
	order   []string // registration order of level names
}

var levels = newLevelRegistry()

func newLevelRegistry() *levelRegistry {
	r := &levelRegistry{byName: make(map[string]*LevelEntry)}
	for name, sev := range map[string]Severity{
		"TRACE": Trace, "DEBUG": Debug, "INFO": Info,
		"WARNING": Warning, "ERROR": Error, "CRITICAL": Critical,
	} {
		r.byName[name] = &LevelEntry{Name: name, Severity: sev, Style: defaultStyles[name]}
	}
	r.order = []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}
	return r
}

// Levels returns a snapshot mapping of level name to severity.
func Levels() map[string]Severity {
	levels.mu.Lock()
	defer levels.mu.Unlock()
	out := make(map[string]Severity, len(levels.byName))
	for name, e := range levels.byName {
		out[name] = e.Severity
	}
	return out
}

// RegisterLevel adds or overrides a level. It fails with ErrNameConflict if
// name already names a level with a different severity. Re-registering a
// name with the same severity is a no-op that still updates the style (see
// DESIGN.md for the Open Question this resolves).
func RegisterLevel(name string, severity Severity, style ...LevelStyle) error {
	if name == "" {
		return &ConfigError{Field: "name", Reason: "level name must not be empty"}
	}
	name = strings.ToUpper(name)

	levels.mu.Lock()
	defer levels.mu.Unlock()

	st := LevelStyle{Foreground: 250}
	if len(style) > 0 {
		st = style[0]
	}

	if existing, ok := levels.byName[name]; ok {
		if existing.Severity != severity {
			return &NameConflictError{Name: name, Reason: fmt.Sprintf(
				"level %q already registered at severity %d (requested %d)", name, existing.Severity, severity)}
		}
		existing.Style = st
		return nil
	}

	levels.byName[name] = &LevelEntry{Name: name, Severity: severity, Style: st}
	levels.order = append(levels.order, name)
	return nil
}

// ApplyColorTheme replaces each known level's style with the provided
// mapping. A nil theme restores the package defaults.
func ApplyColorTheme(theme map[string]LevelStyle) error {
	levels.mu.Lock()
	defer levels.mu.Unlock()

	if theme == nil {
		for name, e := range levels.byName {
			if st, ok := defaultStyles[name]; ok {
				e.Style = st
			}
		}
		return nil
	}

	for name, st := range theme {
		name = strings.ToUpper(name)
		e, ok := levels.byName[name]
		if !ok {
			return &ConfigError{Field: "theme", Reason: fmt.Sprintf("unknown level %q", name)}
		}
		e.Style = st
	}
	return nil
}

func lookupLevel(name string) (*LevelEntry, bool) {
	levels.mu.Lock()
	defer levels.mu.Unlock()
	e, ok := levels.byName[strings.ToUpper(name)]
	return e, ok
}
