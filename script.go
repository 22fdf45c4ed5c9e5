package timeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"gopkg.in/yaml.v3"
)

// Injector is implemented by surfaces that accept synthetic input.
// EbitenSurface implements it.
type Injector interface {
	InjectClick(x, y float64)
	InjectRightPress(x, y float64)
	InjectRelease(x, y float64)
	InjectDrag(fromX, fromY, toX, toY float64, frames int)
	InjectKey(key ebiten.Key, mods KeyModifiers)
	PendingInjected() int
}

// ScriptStep is a single action in an input script.
type ScriptStep struct {
	Action string   `yaml:"action"`
	Label  string   `yaml:"label,omitempty"`
	X      float64  `yaml:"x,omitempty"`
	Y      float64  `yaml:"y,omitempty"`
	FromX  float64  `yaml:"fromX,omitempty"`
	FromY  float64  `yaml:"fromY,omitempty"`
	ToX    float64  `yaml:"toX,omitempty"`
	ToY    float64  `yaml:"toY,omitempty"`
	Frames int      `yaml:"frames,omitempty"`
	Key    string   `yaml:"key,omitempty"`
	Mods   []string `yaml:"mods,omitempty"`

	key  ebiten.Key
	mods KeyModifiers
}

type inputScript struct {
	Steps []ScriptStep `yaml:"steps"`
}

// ScriptRunner replays scripted input against a renderer's surface, one
// step per tick, and queues screenshots between steps. It is meant for
// automated visual checks of a running timeline.
type ScriptRunner struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a YAML (or JSON) input script.
//
//	steps:
//	  - {action: click, x: 120, y: 60}
//	  - {action: drag, fromX: 120, fromY: 60, toX: 200, toY: 60, frames: 10}
//	  - {action: key, key: space}
//	  - {action: key, key: z, mods: [ctrl]}
//	  - {action: wait, frames: 5}
//	  - {action: screenshot, label: after-drag}
func LoadScript(data []byte) (*ScriptRunner, error) {
	var script inputScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("parse input script: no steps")
	}
	for i := range script.Steps {
		if err := script.Steps[i].resolve(); err != nil {
			return nil, fmt.Errorf("parse input script: step %d: %w", i, err)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

func (st *ScriptStep) resolve() error {
	switch st.Action {
	case "click", "right-click", "drag", "wait", "screenshot":
		return nil
	case "key":
		k, ok := lookupKey(st.Key)
		if !ok {
			return fmt.Errorf("unknown key %q", st.Key)
		}
		st.key = k
		for _, m := range st.Mods {
			mod, ok := modifierNames[strings.ToLower(m)]
			if !ok {
				return fmt.Errorf("unknown modifier %q", m)
			}
			st.mods |= mod
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
}

var modifierNames = map[string]KeyModifiers{
	"shift": ModShift,
	"ctrl":  ModCtrl,
	"alt":   ModAlt,
	"meta":  ModMeta,
}

var keyNames map[string]ebiten.Key

// lookupKey resolves a case-insensitive Ebitengine key name such as
// "Space", "Z" or "Delete".
func lookupKey(name string) (ebiten.Key, bool) {
	if keyNames == nil {
		keyNames = make(map[string]ebiten.Key)
		for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
			keyNames[strings.ToLower(k.String())] = k
		}
	}
	k, ok := keyNames[strings.ToLower(name)]
	return k, ok
}

// SetScript attaches runner to the renderer. It is stepped from Update
// before input is polled. The surface must implement Injector.
func (r *Renderer) SetScript(runner *ScriptRunner) error {
	if runner != nil {
		if _, ok := r.surface.(Injector); !ok {
			return fmt.Errorf("set script: surface %T does not accept injected input", r.surface)
		}
	}
	r.script = runner
	return nil
}

// Done reports whether every step has been executed and all injected input
// has been consumed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one tick.
func (r *ScriptRunner) step(inj Injector, screenshot func(string)) {
	if r.done {
		return
	}
	if inj.PendingInjected() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		screenshot(st.Label)
	case "click":
		inj.InjectClick(st.X, st.Y)
	case "right-click":
		inj.InjectRightPress(st.X, st.Y)
		inj.InjectRelease(st.X, st.Y)
	case "drag":
		inj.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "key":
		inj.InjectKey(st.key, st.mods)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && inj.PendingInjected() == 0 {
		r.done = true
	}
}
