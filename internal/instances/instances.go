// Package instances manages Vast.ai instances through the vastai CLI.
package instances

import (
	"context"
	"fmt"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// Instance is a single instance record from `vastai show instances`.
type Instance map[string]any

func (i Instance) ID() string        { return stringField(i, "id") }
func (i Instance) MachineID() string { return stringField(i, "machine_id") }
func (i Instance) OfferID() string   { return stringField(i, "offer_id") }
func (i Instance) PublicIP() string  { return stringField(i, "public_ipaddr") }
func (i Instance) SSHHost() string   { return stringField(i, "ssh_host") }
func (i Instance) SSHPort() string   { return stringField(i, "ssh_port") }
func (i Instance) GPUName() string   { return stringOr(i, "gpu_name", "unknown") }

// Status returns the actual status, falling back to the requested one.
func (i Instance) Status() string {
	if v := stringField(i, "actual_status"); v != "" {
		return v
	}
	return stringOr(i, "status", "unknown")
}

// TemplateName returns the template the instance was launched from.
func (i Instance) TemplateName() string {
	if v := stringField(i, "template_name"); v != "" {
		return v
	}
	return stringField(i, "template")
}

// Label returns the user-assigned label, if any.
func (i Instance) Label() string { return stringField(i, "label") }

// Running reports whether the instance is up.
func (i Instance) Running() bool {
	return i.Status() == "running"
}

// Service performs instance operations through the vastai CLI.
type Service struct {
	client *vast.Client
}

// NewService creates an instance service.
func NewService(client *vast.Client) *Service {
	return &Service{client: client}
}

// List returns all instances on the account.
func (s *Service) List(ctx context.Context) ([]Instance, error) {
	var payload any
	if err := s.client.RunJSON(ctx, &payload, "show", "instances"); err != nil {
		return nil, err
	}
	return coerceInstances(payload), nil
}

// Get returns the instance with the given id.
func (s *Service) Get(ctx context.Context, id string) (Instance, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range all {
		if inst.ID() == id {
			return inst, nil
		}
	}
	return nil, errors.InstanceNotFound(id)
}

// Exec runs a shell command on the instance via `vastai execute`.
func (s *Service) Exec(ctx context.Context, id, command string) (string, error) {
	return s.client.Run(ctx, "execute", id, "--cmd", command)
}

// Logs fetches the instance logs once.
func (s *Service) Logs(ctx context.Context, id string) (string, error) {
	return s.client.Run(ctx, "logs", id)
}

// FollowLogs streams instance logs to onLine until the command exits or the
// context is cancelled.
func (s *Service) FollowLogs(ctx context.Context, id string, onLine func(string)) error {
	return s.client.Stream(ctx, onLine, "logs", id, "--follow")
}

// Destroy destroys the instance.
func (s *Service) Destroy(ctx context.Context, id string) error {
	_, err := s.client.Run(ctx, "destroy", "instance", id)
	return err
}

func coerceInstances(payload any) []Instance {
	switch p := payload.(type) {
	case []any:
		out := make([]Instance, 0, len(p))
		for _, item := range p {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Instance(m))
			}
		}
		return out
	case map[string]any:
		if inner, ok := p["instances"].([]any); ok {
			out := make([]Instance, 0, len(inner))
			for _, item := range inner {
				if m, ok := item.(map[string]any); ok {
					out = append(out, Instance(m))
				}
			}
			return out
		}
		return []Instance{Instance(p)}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}

func stringOr(m map[string]any, key, fallback string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return fallback
}

// Summary returns the multi-line display form of an instance.
func Summary(i Instance) []string {
	lines := []string{
		fmt.Sprintf("Instance %s (offer %s, machine %s)", i.ID(), stringOr(i, "offer_id", "-"), stringOr(i, "machine_id", "-")),
		fmt.Sprintf("  status: %s | gpu: %s | template: %s", i.Status(), i.GPUName(), stringOrDash(i.TemplateName())),
	}
	if i.SSHHost() != "" || i.SSHPort() != "" {
		lines = append(lines, fmt.Sprintf("  connection: %s:%s", i.SSHHost(), i.SSHPort()))
	}
	return lines
}

func stringOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
