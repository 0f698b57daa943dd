// Package scenario describes a page, its models and a script of user steps
// in YAML, and runs the script against a server-side document.
//
//	page: |
//	  <div id="main" js:object-model="counter">
//	    <span id="count" js:content="count"></span>
//	    <button id="inc" js:on-click="inc">+</button>
//	  </div>
//	models:
//	  counter:
//	    data: {count: 0}
//	    handlers:
//	      inc: [{op: add, prop: count}]
//	steps:
//	  - click: "#inc"
//	  - expect: {selector: "#count", text: "1"}
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom/htmldoc"
)

// Scenario is one YAML scenario file.
type Scenario struct {
	Name     string           `yaml:"name"`
	Page     string           `yaml:"page" validate:"required"`
	Location string           `yaml:"location"`
	Models   map[string]Model `yaml:"models" validate:"dive"`
	Steps    []Step           `yaml:"steps" validate:"dive"`
}

// Model is the YAML form of a template: initial data plus scripted
// handlers.
type Model struct {
	Data     map[string]any  `yaml:"data"`
	Handlers map[string][]Op `yaml:"handlers" validate:"dive,dive"`
}

// Op is one scripted handler instruction.
type Op struct {
	Op    string  `yaml:"op" validate:"oneof=set add toggle navigate"`
	Prop  string  `yaml:"prop" validate:"required_unless=Op navigate"`
	Value any     `yaml:"value"`
	By    float64 `yaml:"by"`
	Path  string  `yaml:"path" validate:"required_if=Op navigate"`
}

// Step is one scripted user action. Exactly one field is set.
type Step struct {
	Click    string   `yaml:"click,omitempty"`
	Navigate string   `yaml:"navigate,omitempty"`
	Back     bool     `yaml:"back,omitempty"`
	Forward  bool     `yaml:"forward,omitempty"`
	Set      *SetStep `yaml:"set,omitempty"`
	Expect   *Expect  `yaml:"expect,omitempty"`
}

// SetStep writes a value through an instance, as host code would.
type SetStep struct {
	Instance string `yaml:"instance" validate:"required"`
	Prop     string `yaml:"prop" validate:"required"`
	Value    any    `yaml:"value"`
}

// Expect asserts on an element. Present defaults to true.
type Expect struct {
	Selector string  `yaml:"selector" validate:"required"`
	Text     *string `yaml:"text"`
	Present  *bool   `yaml:"present"`
}

// Kind names the action of the step, or "" when none or several are set.
func (s Step) Kind() string {
	var kinds []string
	if s.Click != "" {
		kinds = append(kinds, "click")
	}
	if s.Navigate != "" {
		kinds = append(kinds, "navigate")
	}
	if s.Back {
		kinds = append(kinds, "back")
	}
	if s.Forward {
		kinds = append(kinds, "forward")
	}
	if s.Set != nil {
		kinds = append(kinds, "set")
	}
	if s.Expect != nil {
		kinds = append(kinds, "expect")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) String() string {
	switch s.Kind() {
	case "click":
		return "click " + s.Click
	case "navigate":
		return "navigate " + s.Navigate
	case "back", "forward":
		return s.Kind()
	case "set":
		return fmt.Sprintf("set %s.%s = %v", s.Set.Instance, s.Set.Prop, s.Set.Value)
	case "expect":
		e := s.Expect
		switch {
		case e.Text != nil:
			return fmt.Sprintf("expect %s text %q", e.Selector, *e.Text)
		case e.Present != nil && !*e.Present:
			return "expect " + e.Selector + " absent"
		}
		return "expect " + e.Selector + " present"
	}
	return "invalid step"
}

// Load reads and validates a scenario file. A scenario without a name is
// named after its file: "todo_list.yaml" becomes "Todo List".
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = NameFromPath(path)
	}
	return sc, nil
}

// NameFromPath title-cases the base name of path without its extension.
func NameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the scenario shape and reports every failure at once.
func (sc *Scenario) Validate() error {
	var fields objectmodel.MultiError
	if err := validate.Struct(sc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields = objectmodel.ValidationToMultiError(err)
	}
	for i, st := range sc.Steps {
		if st.Kind() == "" {
			fields = append(fields, objectmodel.FieldError{
				Field:   fmt.Sprintf("scenario.steps[%d]", i),
				Message: "step must set exactly one action",
			})
		}
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// ModelNames returns the model names in sorted order.
func (sc *Scenario) ModelNames() []string {
	names := make([]string, 0, len(sc.Models))
	for name := range sc.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mount parses the page, registers every model on a new Component and runs
// the initial sweep.
func (sc *Scenario) Mount(docOpts []htmldoc.Option, opts ...objectmodel.Option) (*htmldoc.Document, *objectmodel.Component, error) {
	if sc.Location != "" {
		docOpts = append(docOpts, htmldoc.WithLocation(sc.Location))
	}
	doc, err := htmldoc.ParseString(sc.Page, docOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse page: %w", err)
	}

	c := objectmodel.New(doc, opts...)
	for _, name := range sc.ModelNames() {
		if err := c.RegisterModel(name, sc.Models[name].Template(c.Navigate)); err != nil {
			return nil, nil, err
		}
	}
	c.Initialize()
	doc.Load()
	return doc, c, nil
}
