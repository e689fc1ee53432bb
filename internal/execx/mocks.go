package execx

import (
	"context"
	"fmt"
	"strings"
)

// Call records a single command invocation made through a MockRunner.
type Call struct {
	Name string
	Args []string
	Env  []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockRunner implements Runner for testing. Every invocation is recorded;
// responses are resolved through OutputFunc when set, otherwise Output and
// Err are returned for every call.
type MockRunner struct {
	Calls      []Call
	Output     []byte
	Err        error
	OutputFunc func(name string, args ...string) ([]byte, error)
}

// CombinedOutput records the call and returns the configured response.
func (m *MockRunner) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, Call{Name: name, Args: args})
	if m.OutputFunc != nil {
		return m.OutputFunc(name, args...)
	}
	return m.Output, m.Err
}

// CombinedOutputEnv records the call with its environment and returns the
// configured response.
func (m *MockRunner) CombinedOutputEnv(_ context.Context, env []string, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, Call{Name: name, Args: args, Env: env})
	if m.OutputFunc != nil {
		return m.OutputFunc(name, args...)
	}
	return m.Output, m.Err
}

// CallLines returns every recorded call rendered as a command line.
func (m *MockRunner) CallLines() []string {
	lines := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		lines[i] = c.String()
	}
	return lines
}

// CallsTo returns the calls whose command name matches name.
func (m *MockRunner) CallsTo(name string) []Call {
	var calls []Call
	for _, c := range m.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}

// Reset clears all recorded calls.
func (m *MockRunner) Reset() {
	m.Calls = nil
}

var _ Runner = (*MockRunner)(nil)

// ErrNotConfigured is returned by mocks that were invoked without a
// configured response where one is required.
var ErrNotConfigured = fmt.Errorf("mock not configured")
