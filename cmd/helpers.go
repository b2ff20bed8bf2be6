package cmd

import (
	"context"

	"github.com/MannyJMusic/dfl-desktop/internal/audit"
	"github.com/MannyJMusic/dfl-desktop/internal/config"
	"github.com/MannyJMusic/dfl-desktop/internal/instances"
	"github.com/MannyJMusic/dfl-desktop/internal/ssh"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// clientFor builds the vastai CLI wrapper from loaded config.
// This is a helper to reduce repetition in commands.
func clientFor(cfg *config.Config) *vast.Client {
	return vast.NewClient(cfg.VastBinary, cfg.APIKey)
}

// instanceService loads config and returns an instance service plus the
// config it was built from.
func instanceService() (*instances.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return instances.NewService(clientFor(cfg)), cfg, nil
}

// auditLogger returns the audit logger rooted in the user state dir.
func auditLogger() *audit.Logger {
	return audit.NewLogger(config.DefaultPaths().StateDir)
}

// loadInstance fetches one instance record by id.
func loadInstance(ctx context.Context, id string) (instances.Instance, error) {
	svc, _, err := instanceService()
	if err != nil {
		return nil, err
	}
	return svc.Get(ctx, id)
}

// sshEndpoint resolves the SSH options for an instance record.
func sshEndpoint(inst instances.Instance) (ssh.Options, error) {
	return ssh.Endpoint(inst.SSHHost(), inst.SSHPort())
}
