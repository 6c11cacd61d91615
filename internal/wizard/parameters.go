package wizard

import "github.com/samber/lo"

// Parameters maps parameter names to their values. An empty value means the
// parameter has not been given.
type Parameters map[string]string

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	clone := make(Parameters, len(p))
	for name, value := range p {
		clone[name] = value
	}
	return clone
}

// ParameterSpec describes how a single parameter is asked for.
type ParameterSpec struct {
	Name     string
	Question string

	// ChoicesLabel introduces the list of choices shown before the question.
	ChoicesLabel string
	// Choices, when set, provides the answers offered for completion.
	Choices func() []string
	// Root, when set, returns the base path shown after the question. It receives
	// the parameters resolved so far.
	Root func(Parameters) string
	// Pick replaces the default question with a custom sequence of prompts. It
	// must return a non-empty value.
	Pick func(w *Wizard, resolved Parameters) (string, error)
}

// Form is an ordered set of parameters plus the sentence summarizing them.
type Form struct {
	Specs   []ParameterSpec
	Summary func(Parameters) string
}

// Missing returns the specs without a value in params, in declaration order.
func (f Form) Missing(params Parameters) []ParameterSpec {
	return lo.Filter(f.Specs, func(spec ParameterSpec, _ int) bool {
		return params[spec.Name] == ""
	})
}

// Names returns the declared parameter names in order.
func (f Form) Names() []string {
	return lo.Map(f.Specs, func(spec ParameterSpec, _ int) string { return spec.Name })
}
