package hook

import (
	"context"
	"fmt"
)

// MockTools implements Tools for testing. Calls are recorded; responses
// come from the configured maps and errors.
type MockTools struct {
	Statuses     []string
	OpenedPorts  []int
	Config       map[string]string
	Secrets      map[string]map[string]string
	Relations    map[string][]string          // endpoint -> relation IDs
	RemoteApp    map[string]map[string]string // relation ID -> databag
	RelationData map[string]map[string]string // relation ID -> values written
	ActionParams map[string]string
	ActionValues map[string]string
	ActionLogs   []string
	ActionFailed string

	StatusSetErr   error
	RelationSetErr error
	SecretGetErr   error
}

// StatusSet records the status transition.
func (m *MockTools) StatusSet(_ context.Context, status Status, message string) error {
	m.Statuses = append(m.Statuses, fmt.Sprintf("%s: %s", status, message))
	return m.StatusSetErr
}

// OpenPort records the opened port.
func (m *MockTools) OpenPort(_ context.Context, port int) error {
	m.OpenedPorts = append(m.OpenedPorts, port)
	return nil
}

// ConfigGet returns the configured value for key.
func (m *MockTools) ConfigGet(_ context.Context, key string) (string, error) {
	return m.Config[key], nil
}

// SecretGetContent returns the configured secret content.
func (m *MockTools) SecretGetContent(_ context.Context, secretID, key string) (string, error) {
	if m.SecretGetErr != nil {
		return "", m.SecretGetErr
	}
	content, ok := m.Secrets[secretID]
	if !ok {
		return "", fmt.Errorf("secret %s not found", secretID)
	}
	value, ok := content[key]
	if !ok {
		return "", fmt.Errorf("secret %s has no key %q", secretID, key)
	}
	return value, nil
}

// RelationIDs returns the configured relation IDs for an endpoint.
func (m *MockTools) RelationIDs(_ context.Context, endpoint string) ([]string, error) {
	return m.Relations[endpoint], nil
}

// RelationSet records the written relation data.
func (m *MockTools) RelationSet(_ context.Context, relationID string, values map[string]string) error {
	if m.RelationSetErr != nil {
		return m.RelationSetErr
	}
	if m.RelationData == nil {
		m.RelationData = make(map[string]map[string]string)
	}
	data, ok := m.RelationData[relationID]
	if !ok {
		data = make(map[string]string)
		m.RelationData[relationID] = data
	}
	for k, v := range values {
		data[k] = v
	}
	return nil
}

// RemoteAppGet returns the configured remote databag value.
func (m *MockTools) RemoteAppGet(_ context.Context, relationID, key string) (string, error) {
	return m.RemoteApp[relationID][key], nil
}

// ActionGet returns the configured action parameter.
func (m *MockTools) ActionGet(_ context.Context, key string) (string, error) {
	return m.ActionParams[key], nil
}

// ActionSet records action results.
func (m *MockTools) ActionSet(_ context.Context, values map[string]string) error {
	if m.ActionValues == nil {
		m.ActionValues = make(map[string]string)
	}
	for k, v := range values {
		m.ActionValues[k] = v
	}
	return nil
}

// ActionLog records an action progress message.
func (m *MockTools) ActionLog(_ context.Context, message string) error {
	m.ActionLogs = append(m.ActionLogs, message)
	return nil
}

// ActionFail records the action failure message.
func (m *MockTools) ActionFail(_ context.Context, message string) error {
	m.ActionFailed = message
	return nil
}

var _ Tools = (*MockTools)(nil)
