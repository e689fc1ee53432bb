// Package hook wraps the charm framework's hook tools. Every interaction
// with the framework (status, relations, secrets, actions, ports) goes
// through these commands; the Runner abstraction keeps them testable.
package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
)

// Status is a workload status recognized by the framework.
type Status string

// Workload status values.
const (
	StatusActive      Status = "active"
	StatusBlocked     Status = "blocked"
	StatusMaintenance Status = "maintenance"
	StatusWaiting     Status = "waiting"
)

// Tools defines the hook tool surface the operator uses.
type Tools interface {
	// StatusSet sets the unit's workload status.
	StatusSet(ctx context.Context, status Status, message string) error

	// OpenPort opens a TCP port on the unit.
	OpenPort(ctx context.Context, port int) error

	// ConfigGet returns a charm config option as a string; a missing or
	// null option yields an empty string.
	ConfigGet(ctx context.Context, key string) (string, error)

	// SecretGetContent returns one key from a secret's current content.
	SecretGetContent(ctx context.Context, secretID, key string) (string, error)

	// RelationIDs returns the IDs of all established relations on the
	// given endpoint.
	RelationIDs(ctx context.Context, endpoint string) ([]string, error)

	// RelationSet writes values into the unit's databag for a relation.
	RelationSet(ctx context.Context, relationID string, values map[string]string) error

	// RemoteAppGet reads one key from the remote application databag of a
	// relation.
	RemoteAppGet(ctx context.Context, relationID, key string) (string, error)

	// ActionGet returns an action parameter as a string; a missing or
	// null parameter yields an empty string.
	ActionGet(ctx context.Context, key string) (string, error)

	// ActionSet records action results.
	ActionSet(ctx context.Context, values map[string]string) error

	// ActionLog records a progress message for a running action.
	ActionLog(ctx context.Context, message string) error

	// ActionFail marks the running action failed.
	ActionFail(ctx context.Context, message string) error
}

// Client implements Tools by executing the framework's hook tools.
type Client struct {
	runner execx.Runner
	logger log.Logger
}

// NewClient creates a new hook tool client.
func NewClient(runner execx.Runner, logger log.Logger) *Client {
	return &Client{
		runner: runner,
		logger: logger,
	}
}

// StatusSet sets the unit's workload status.
func (c *Client) StatusSet(ctx context.Context, status Status, message string) error {
	c.logger.Debug("Setting status", "status", string(status), "message", message)

	args := []string{string(status)}
	if message != "" {
		args = append(args, message)
	}
	if output, err := c.runner.CombinedOutput(ctx, "status-set", args...); err != nil {
		return fmt.Errorf("status-set failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// OpenPort opens a TCP port on the unit.
func (c *Client) OpenPort(ctx context.Context, port int) error {
	if output, err := c.runner.CombinedOutput(ctx, "open-port", fmt.Sprintf("%d/tcp", port)); err != nil {
		return fmt.Errorf("open-port failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ConfigGet returns a charm config option as a string.
func (c *Client) ConfigGet(ctx context.Context, key string) (string, error) {
	output, err := c.runner.CombinedOutput(ctx, "config-get", "--format=json", key)
	if err != nil {
		return "", fmt.Errorf("config-get %s failed: %w", key, err)
	}

	var value any
	if err := json.Unmarshal(output, &value); err != nil {
		return "", fmt.Errorf("config-get %s returned invalid JSON: %w", key, err)
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// SecretGetContent returns one key from a secret's current content,
// refreshing to the latest revision.
func (c *Client) SecretGetContent(ctx context.Context, secretID, key string) (string, error) {
	output, err := c.runner.CombinedOutput(ctx, "secret-get", secretID, "--refresh", "--format=json")
	if err != nil {
		return "", fmt.Errorf("secret-get %s failed: %w", secretID, err)
	}

	content := map[string]string{}
	if err := json.Unmarshal(output, &content); err != nil {
		return "", fmt.Errorf("secret-get %s returned invalid JSON: %w", secretID, err)
	}

	value, ok := content[key]
	if !ok {
		return "", fmt.Errorf("secret %s has no key %q", secretID, key)
	}
	return value, nil
}

// RelationIDs returns the IDs of all established relations on an endpoint.
func (c *Client) RelationIDs(ctx context.Context, endpoint string) ([]string, error) {
	output, err := c.runner.CombinedOutput(ctx, "relation-ids", "--format=json", endpoint)
	if err != nil {
		return nil, fmt.Errorf("relation-ids %s failed: %w", endpoint, err)
	}

	var ids []string
	if err := json.Unmarshal(output, &ids); err != nil {
		return nil, fmt.Errorf("relation-ids %s returned invalid JSON: %w", endpoint, err)
	}
	return ids, nil
}

// RelationSet writes values into the unit's databag for a relation. Keys
// are passed in sorted order so invocations are deterministic.
func (c *Client) RelationSet(ctx context.Context, relationID string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"-r", relationID}
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, values[k]))
	}

	if output, err := c.runner.CombinedOutput(ctx, "relation-set", args...); err != nil {
		return fmt.Errorf("relation-set on %s failed: %w: %s", relationID, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// RemoteAppGet reads one key from the remote application databag of a
// relation.
func (c *Client) RemoteAppGet(ctx context.Context, relationID, key string) (string, error) {
	output, err := c.runner.CombinedOutput(ctx, "relation-list", "--format=json", "-r", relationID, "--app")
	if err != nil {
		return "", fmt.Errorf("relation-list on %s failed: %w", relationID, err)
	}

	var remoteApp string
	if err := json.Unmarshal(output, &remoteApp); err != nil {
		return "", fmt.Errorf("relation-list on %s returned invalid JSON: %w", relationID, err)
	}
	if remoteApp == "" {
		return "", nil
	}

	output, err = c.runner.CombinedOutput(ctx, "relation-get", "--format=json", "-r", relationID, "--app", key, remoteApp)
	if err != nil {
		return "", fmt.Errorf("relation-get %s on %s failed: %w", key, relationID, err)
	}

	var value any
	if err := json.Unmarshal(output, &value); err != nil {
		return "", fmt.Errorf("relation-get %s on %s returned invalid JSON: %w", key, relationID, err)
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", nil
}

// ActionGet returns an action parameter as a string.
func (c *Client) ActionGet(ctx context.Context, key string) (string, error) {
	output, err := c.runner.CombinedOutput(ctx, "action-get", "--format=json", key)
	if err != nil {
		return "", fmt.Errorf("action-get %s failed: %w", key, err)
	}

	var value any
	if err := json.Unmarshal(output, &value); err != nil {
		return "", fmt.Errorf("action-get %s returned invalid JSON: %w", key, err)
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// ActionSet records action results.
func (c *Client) ActionSet(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(values))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, values[k]))
	}

	if output, err := c.runner.CombinedOutput(ctx, "action-set", args...); err != nil {
		return fmt.Errorf("action-set failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ActionLog records a progress message for a running action.
func (c *Client) ActionLog(ctx context.Context, message string) error {
	if output, err := c.runner.CombinedOutput(ctx, "action-log", message); err != nil {
		return fmt.Errorf("action-log failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ActionFail marks the running action failed.
func (c *Client) ActionFail(ctx context.Context, message string) error {
	if output, err := c.runner.CombinedOutput(ctx, "action-fail", message); err != nil {
		return fmt.Errorf("action-fail failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

var _ Tools = (*Client)(nil)
