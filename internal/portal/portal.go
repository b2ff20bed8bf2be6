// Package portal builds the port-mapping configuration consumed by the
// Vast.ai Instance Portal: the PORTAL_CONFIG environment string and the
// /etc/portal.yaml file.
package portal

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
)

// Mapping is one portal entry. Its string form is
// Interface:ExternalPort:InternalPort:Path:Name; multiple mappings are
// joined with "|" into PORTAL_CONFIG.
type Mapping struct {
	Interface    string
	ExternalPort int
	InternalPort int
	Path         string
	Name         string
}

// String renders the mapping in PORTAL_CONFIG form.
func (m Mapping) String() string {
	return fmt.Sprintf("%s:%d:%d:%s:%s", m.Interface, m.ExternalPort, m.InternalPort, m.Path, m.Name)
}

// ParseMapping parses a single colon-delimited portal entry. The name field
// may itself contain colons, so only the first four separators split.
func ParseMapping(s string) (Mapping, error) {
	parts := strings.SplitN(s, ":", 5)
	if len(parts) != 5 {
		return Mapping{}, errors.ValidationError(fmt.Sprintf("portal mapping %q: want 5 colon-separated fields", s))
	}
	ext, err := strconv.Atoi(parts[1])
	if err != nil {
		return Mapping{}, errors.ValidationError(fmt.Sprintf("portal mapping %q: bad external port %q", s, parts[1]))
	}
	in, err := strconv.Atoi(parts[2])
	if err != nil {
		return Mapping{}, errors.ValidationError(fmt.Sprintf("portal mapping %q: bad internal port %q", s, parts[2]))
	}
	return Mapping{
		Interface:    parts[0],
		ExternalPort: ext,
		InternalPort: in,
		Path:         parts[3],
		Name:         parts[4],
	}, nil
}

// ParseConfig parses a full PORTAL_CONFIG string.
func ParseConfig(s string) ([]Mapping, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []Mapping
	for _, entry := range strings.Split(s, "|") {
		m, err := ParseMapping(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// BuildConfig joins mappings into a PORTAL_CONFIG string.
func BuildConfig(mappings []Mapping) string {
	parts := make([]string, len(mappings))
	for i, m := range mappings {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

// Lookup resolves environment variables; it matches os.Getenv.
type Lookup func(string) string

// externalPort returns the host-side port Vast.ai assigned for a container
// port, falling back to the container port when no VAST_TCP_PORT_* variable
// is set.
func externalPort(env Lookup, containerPort int) int {
	if env == nil {
		return containerPort
	}
	v := strings.TrimSpace(env(fmt.Sprintf("VAST_TCP_PORT_%d", containerPort)))
	if v == "" {
		return containerPort
	}
	p, err := strconv.Atoi(v)
	if err != nil || p <= 0 {
		return containerPort
	}
	return p
}

// Ports carries the container-side service ports the desktop image exposes.
type Ports struct {
	VNC    int // TigerVNC display socket
	NoVNC  int // websockify/noVNC web client
	Portal int // Instance Portal listener; proxies to InternalPortal
}

// InternalPortal is the port the portal's backing service listens on.
const InternalPortal = 1111

// DefaultMappings returns the standard desktop portal entries, with
// external ports resolved through the VAST_TCP_PORT_* environment.
func DefaultMappings(env Lookup, ports Ports) []Mapping {
	return []Mapping{
		{
			Interface:    "localhost",
			ExternalPort: externalPort(env, ports.Portal),
			InternalPort: InternalPortal,
			Path:         "/",
			Name:         "Instance Portal",
		},
		{
			Interface:    "localhost",
			ExternalPort: externalPort(env, ports.NoVNC),
			InternalPort: ports.NoVNC,
			Path:         "/vnc.html",
			Name:         "noVNC Desktop",
		},
		{
			Interface:    "localhost",
			ExternalPort: externalPort(env, ports.VNC),
			InternalPort: ports.VNC,
			Path:         "/",
			Name:         "VNC Server",
		},
	}
}

type yamlApplication struct {
	Name         string `yaml:"name"`
	Interface    string `yaml:"interface"`
	ExternalPort int    `yaml:"external_port"`
	InternalPort int    `yaml:"internal_port"`
	Path         string `yaml:"open_path"`
}

type yamlConfig struct {
	Applications []yamlApplication `yaml:"applications"`
}

// RenderYAML renders the mappings as the /etc/portal.yaml document.
func RenderYAML(mappings []Mapping) ([]byte, error) {
	doc := yamlConfig{Applications: make([]yamlApplication, len(mappings))}
	for i, m := range mappings {
		doc.Applications[i] = yamlApplication{
			Name:         m.Name,
			Interface:    m.Interface,
			ExternalPort: m.ExternalPort,
			InternalPort: m.InternalPort,
			Path:         m.Path,
		}
	}
	return yaml.Marshal(doc)
}
