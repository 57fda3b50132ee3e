package replay

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"gopkg.in/yaml.v3"
)

// Action names a replay step.
type Action string

const (
	ActionInsert   Action = "insert"   // append html under the target
	ActionRemove   Action = "remove"   // detach the target
	ActionAttr     Action = "attr"     // set attribute name=value on the target
	ActionAttrDel  Action = "attr_del" // remove attribute name from the target
	ActionBatch    Action = "batch"    // deliver records as one batch
	ActionScroll   Action = "scroll"   // move the viewport
	ActionSettings Action = "settings" // change settings keys
	ActionHover    Action = "hover"    // pointer enters the target
	ActionClick    Action = "click"    // click on the target
	ActionProbe    Action = "probe"    // modifier click on the target
	ActionTeardown Action = "teardown" // tear the session down
	ActionInit     Action = "init"     // initialize the session again
)

// ErrInvalidScript is wrapped by every script validation error.
var ErrInvalidScript = errors.New("invalid replay script")

// Step is one scripted event. Only the fields relevant to Action are read.
type Step struct {
	Action Action `yaml:"action"`

	// Target of insert, remove, attribute and pointer steps.
	XPath    string `yaml:"xpath,omitempty"`
	Selector string `yaml:"selector,omitempty"`

	HTML  string `yaml:"html,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`

	// Records of a batch step.
	Records []mutation.Record `yaml:"records,omitempty"`

	// Viewport of a scroll step. A zero height keeps the current height.
	Top    int  `yaml:"top,omitempty"`
	Height int  `yaml:"height,omitempty"`
	All    bool `yaml:"all,omitempty"`

	// Set holds setting keys and values of a settings step.
	Set map[string]string `yaml:"set,omitempty"`

	// Pointer position of hover and click steps.
	X int `yaml:"x,omitempty"`
	Y int `yaml:"y,omitempty"`
}

// Script is a replay file.
type Script struct {
	// Page overrides the page location of the session.
	Page string `yaml:"page,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided script path is intentional
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks every step and returns the first problem found.
func (s *Script) Validate() error {
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("%w: step %d (%s): %w", ErrInvalidScript, i+1, st.Action, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Action {
	case ActionInsert, ActionRemove, ActionAttr, ActionAttrDel:
		return st.record().Validate()
	case ActionBatch:
		if len(st.Records) == 0 {
			return errors.New("batch without records")
		}
		for _, r := range st.Records {
			if err := r.Validate(); err != nil {
				return err
			}
		}
	case ActionHover, ActionClick, ActionProbe:
		if st.XPath == "" && st.Selector == "" {
			return errors.New("pointer step without target")
		}
	case ActionScroll:
		if st.Height < 0 {
			return errors.New("negative viewport height")
		}
	case ActionSettings:
		var probe config.Settings
		for k, v := range st.Set {
			if err := probe.Set(k, v); err != nil {
				return err
			}
		}
	case ActionTeardown, ActionInit:
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// record converts a single-record step into a mutation record.
func (st Step) record() mutation.Record {
	return mutation.Record{
		Op:       mutation.Op(st.Action),
		XPath:    st.XPath,
		Selector: st.Selector,
		Name:     st.Name,
		Value:    st.Value,
		HTML:     st.HTML,
	}
}
