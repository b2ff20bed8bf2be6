// Package bootstrap performs on-instance first-boot provisioning: system
// packages, the DeepFaceLab Python environment, VNC and portal
// configuration, and the desktop services. Every step is idempotent so a
// container restart re-runs the whole sequence safely.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/MannyJMusic/dfl-desktop/internal/config"
	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
	"github.com/MannyJMusic/dfl-desktop/internal/portal"
	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

// aptPackages are installed unless dpkg already knows them.
var aptPackages = []string{
	"git",
	"curl",
	"ffmpeg",
	"tigervnc-standalone-server",
	"websockify",
	"xfce4",
	"xfce4-terminal",
	"dbus-x11",
	"openssh-server",
}

// workspaceSubdirs are created under the workspace root.
var workspaceSubdirs = []string{
	"data_src",
	"data_dst",
	"model",
	"requirements",
}

const xstartupScript = `#!/bin/sh
unset SESSION_MANAGER
unset DBUS_SESSION_BUS_ADDRESS
exec startxfce4
`

// Bootstrapper runs the provisioning sequence.
type Bootstrapper struct {
	cfg  config.BootstrapConfig
	fs   system.FileSystem
	exec system.CommandExecutor
	env  portal.Lookup
	out  io.Writer
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithFileSystem sets a custom filesystem (used in tests).
func WithFileSystem(fs system.FileSystem) Option {
	return func(b *Bootstrapper) { b.fs = fs }
}

// WithExecutor sets a custom command executor (used in tests).
func WithExecutor(exec system.CommandExecutor) Option {
	return func(b *Bootstrapper) { b.exec = exec }
}

// WithEnv sets the environment lookup (used in tests).
func WithEnv(env portal.Lookup) Option {
	return func(b *Bootstrapper) { b.env = env }
}

// WithOutput sets the writer the completion marker is printed to.
func WithOutput(w io.Writer) Option {
	return func(b *Bootstrapper) { b.out = w }
}

// New creates a Bootstrapper for the given settings.
func New(cfg config.BootstrapConfig, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		cfg:  cfg,
		fs:   system.DefaultFS(),
		exec: system.DefaultExecutor(),
		env:  os.Getenv,
		out:  os.Stdout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes the provisioning sequence and prints the completion marker.
func (b *Bootstrapper) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"workspace", b.setupWorkspace},
		{"system packages", b.installPackages},
		{"python environment", b.setupPythonEnv},
		{"deepfacelab", b.cloneDeepFaceLab},
		{"vnc configuration", b.configureVNC},
		{"portal configuration", b.writePortalFiles},
		{"services", b.startServices},
	}

	for _, step := range steps {
		logging.Debug("running bootstrap step", "step", step.name)
		if err := step.fn(ctx); err != nil {
			return errors.BootstrapError(step.name, err)
		}
	}

	fmt.Fprintln(b.out, config.CompletionMarker)
	return nil
}

// path resolves an absolute container path against the configured root.
// With the default root "/" this is the identity; tests point the root at a
// temp directory and every write stays contained inside it.
func (b *Bootstrapper) path(p string) (string, error) {
	return securejoin.SecureJoin(b.cfg.Root, p)
}

func (b *Bootstrapper) setupWorkspace(ctx context.Context) error {
	ws, err := b.path(b.cfg.Workspace)
	if err != nil {
		return err
	}
	for _, sub := range append([]string{"."}, workspaceSubdirs...) {
		dir := filepath.Join(ws, sub)
		if b.fs.IsDir(dir) {
			continue
		}
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if b.cfg.MVEDir != "" {
		mve, err := b.path(b.cfg.MVEDir)
		if err != nil {
			return err
		}
		if !b.fs.IsDir(mve) {
			if err := b.fs.MkdirAll(mve, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", mve, err)
			}
		}
	}
	return nil
}

// installPackages installs missing apt packages. Package failures are
// reported but never abort provisioning.
func (b *Bootstrapper) installPackages(ctx context.Context) error {
	var missing []string
	for _, pkg := range aptPackages {
		if _, err := b.exec.Execute(ctx, "dpkg", "-s", pkg); err != nil {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		logging.Debug("all apt packages present")
		return nil
	}

	logging.Debug("installing apt packages", "packages", strings.Join(missing, " "))
	if _, err := b.exec.Execute(ctx, "apt-get", "update"); err != nil {
		logging.UserWarning("apt-get update failed: %v", err)
	}

	args := append([]string{"install", "-y", "--no-install-recommends"}, missing...)
	if _, err := b.exec.Execute(ctx, "apt-get", args...); err != nil {
		logging.UserWarning("package install failed, continuing: %v", err)
	}
	return nil
}

// setupPythonEnv ensures the DeepFaceLab Python environment exists and has
// the right packages for the detected CUDA version.
func (b *Bootstrapper) setupPythonEnv(ctx context.Context) error {
	envPath, err := b.path(b.cfg.CondaEnv)
	if err != nil {
		return err
	}

	if !b.fs.IsDir(envPath) {
		if _, err := b.exec.Execute(ctx, "conda", "create", "-y", "-p", envPath, "python=3.9"); err != nil {
			logging.UserWarning("conda create failed, falling back to venv: %v", err)
			if _, err := b.exec.Execute(ctx, "python3", "-m", "venv", envPath); err != nil {
				return fmt.Errorf("failed to create python environment: %w", err)
			}
		}
	}

	versions := b.detectVersions(ctx)
	reqName := requirementsFile(versions)
	logging.Debug("selected requirements", "file", reqName,
		"cuda", versions.cudaString(), "python", versions.pythonString())

	ws, err := b.path(b.cfg.Workspace)
	if err != nil {
		return err
	}
	reqPath := filepath.Join(ws, "requirements", reqName)
	if !b.fs.Exists(reqPath) {
		logging.UserWarning("requirements file %s not found, skipping pip install", reqPath)
		return nil
	}

	pip := filepath.Join(envPath, "bin", "pip")
	if _, err := b.exec.Execute(ctx, pip, "install", "-r", reqPath); err != nil {
		logging.UserWarning("pip install failed, continuing: %v", err)
	}
	return nil
}

func (b *Bootstrapper) cloneDeepFaceLab(ctx context.Context) error {
	dir, err := b.path(b.cfg.DFLDir)
	if err != nil {
		return err
	}
	if b.fs.IsDir(dir) {
		logging.Debug("deepfacelab checkout present", "dir", dir)
		return nil
	}
	if _, err := b.exec.Execute(ctx, "git", "clone", "--depth", "1", b.cfg.DFLRepo, dir); err != nil {
		return fmt.Errorf("failed to clone %s: %w", b.cfg.DFLRepo, err)
	}
	return nil
}

// configureVNC writes ~/.vnc/passwd (via vncpasswd -f) and the xstartup
// script.
func (b *Bootstrapper) configureVNC(ctx context.Context) error {
	vncDir, err := b.path(filepath.Join(b.homeDir(), ".vnc"))
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(vncDir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", vncDir, err)
	}

	passwdPath := filepath.Join(vncDir, "passwd")
	if !b.fs.Exists(passwdPath) {
		obfuscated, err := b.exec.ExecuteWithStdin(ctx, b.vncPassword()+"\n", "vncpasswd", "-f")
		if err != nil {
			return fmt.Errorf("vncpasswd failed: %w", err)
		}
		if err := b.fs.WriteFile(passwdPath, obfuscated, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", passwdPath, err)
		}
	}

	xstartupPath := filepath.Join(vncDir, "xstartup")
	if !b.fs.Exists(xstartupPath) {
		if err := b.fs.WriteFile(xstartupPath, []byte(xstartupScript), 0o755); err != nil {
			return fmt.Errorf("failed to write %s: %w", xstartupPath, err)
		}
	}
	return nil
}

// writePortalFiles writes /etc/environment and /etc/portal.yaml for the
// Instance Portal.
func (b *Bootstrapper) writePortalFiles(ctx context.Context) error {
	mappings := portal.DefaultMappings(b.env, portal.Ports{
		VNC:    b.cfg.VNCPort,
		NoVNC:  b.cfg.NoVNCPort,
		Portal: b.cfg.PortalPort,
	})
	portalConfig := portal.BuildConfig(mappings)

	token := strings.TrimSpace(b.env("OPEN_BUTTON_TOKEN"))
	if token == "" {
		token = newToken()
	}

	var env strings.Builder
	fmt.Fprintf(&env, "VNC_PASSWORD=%q\n", b.vncPassword())
	fmt.Fprintf(&env, "PORTAL_CONFIG=%q\n", portalConfig)
	fmt.Fprintf(&env, "OPEN_BUTTON_PORT=%q\n", fmt.Sprint(mappings[0].ExternalPort))
	fmt.Fprintf(&env, "OPEN_BUTTON_TOKEN=%q\n", token)

	envPath, err := b.path("/etc/environment")
	if err != nil {
		return err
	}
	if err := b.fs.WriteFile(envPath, []byte(env.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", envPath, err)
	}

	doc, err := portal.RenderYAML(mappings)
	if err != nil {
		return fmt.Errorf("failed to render portal.yaml: %w", err)
	}
	yamlPath, err := b.path("/etc/portal.yaml")
	if err != nil {
		return err
	}
	if err := b.fs.WriteFile(yamlPath, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}
	return nil
}

// startServices starts sshd, the VNC server and websockify, skipping
// anything already running. Start failures warn and continue so one broken
// service does not take down the rest of the desktop.
func (b *Bootstrapper) startServices(ctx context.Context) error {
	services := []struct {
		name    string
		pattern []string // pgrep arguments
		start   []string
	}{
		{
			name:    "sshd",
			pattern: []string{"-x", "sshd"},
			start:   []string{"/usr/sbin/sshd"},
		},
		{
			name:    "vncserver",
			pattern: []string{"-f", "Xtigervnc"},
			start: []string{
				"vncserver", b.cfg.VNCDisplay,
				"-geometry", b.cfg.Resolution,
				"-depth", fmt.Sprint(b.cfg.ColorDepth),
				"-localhost", "no",
			},
		},
		{
			name:    "websockify",
			pattern: []string{"-f", "websockify"},
			start: []string{
				"websockify", "-D",
				fmt.Sprint(b.cfg.NoVNCPort),
				fmt.Sprintf("localhost:%d", b.cfg.VNCPort),
			},
		},
	}

	for _, svc := range services {
		if _, err := b.exec.Execute(ctx, "pgrep", svc.pattern...); err == nil {
			logging.Debug("service already running", "service", svc.name)
			continue
		}
		if _, err := b.exec.Execute(ctx, svc.start[0], svc.start[1:]...); err != nil {
			logging.UserWarning("failed to start %s: %v", svc.name, err)
			continue
		}
		logging.UserSuccess("started %s", svc.name)
	}
	return nil
}

func (b *Bootstrapper) homeDir() string {
	if home := b.env("HOME"); home != "" {
		return home
	}
	return "/root"
}

func (b *Bootstrapper) vncPassword() string {
	if pw := b.env("VNC_PASSWORD"); pw != "" {
		return pw
	}
	return b.cfg.VNCPassword
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "insecure-token"
	}
	return hex.EncodeToString(buf)
}
