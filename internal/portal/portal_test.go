package portal

import (
	"strings"
	"testing"
)

func TestMappingRoundTrip(t *testing.T) {
	m := Mapping{
		Interface:    "localhost",
		ExternalPort: 6901,
		InternalPort: 6901,
		Path:         "/vnc.html",
		Name:         "noVNC Desktop",
	}

	s := m.String()
	if s != "localhost:6901:6901:/vnc.html:noVNC Desktop" {
		t.Fatalf("String = %q", s)
	}

	got, err := ParseMapping(s)
	if err != nil {
		t.Fatalf("ParseMapping failed: %v", err)
	}
	if got != m {
		t.Errorf("round trip = %+v, want %+v", got, m)
	}
}

func TestParseMappingErrors(t *testing.T) {
	for _, s := range []string{
		"localhost:6901:/vnc.html:noVNC",
		"localhost:abc:6901:/:x",
		"localhost:6901:abc:/:x",
	} {
		if _, err := ParseMapping(s); err == nil {
			t.Errorf("ParseMapping(%q) succeeded, want error", s)
		}
	}
}

func TestParseConfig(t *testing.T) {
	got, err := ParseConfig("localhost:11111:1111:/:Instance Portal|localhost:5901:5901:/:VNC Server")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d mappings, want 2", len(got))
	}
	if got[0].Name != "Instance Portal" || got[0].InternalPort != 1111 {
		t.Errorf("first mapping = %+v", got[0])
	}

	if got, err := ParseConfig("  "); err != nil || got != nil {
		t.Errorf("empty config = %v, %v", got, err)
	}
}

func TestBuildConfigJoinsWithPipe(t *testing.T) {
	s := BuildConfig([]Mapping{
		{Interface: "localhost", ExternalPort: 1, InternalPort: 2, Path: "/", Name: "a"},
		{Interface: "localhost", ExternalPort: 3, InternalPort: 4, Path: "/", Name: "b"},
	})
	if s != "localhost:1:2:/:a|localhost:3:4:/:b" {
		t.Errorf("BuildConfig = %q", s)
	}
}

func TestDefaultMappingsHonorExternalPorts(t *testing.T) {
	env := func(key string) string {
		switch key {
		case "VAST_TCP_PORT_5901":
			return "40123"
		case "VAST_TCP_PORT_11111":
			return "40456"
		}
		return ""
	}

	got := DefaultMappings(env, Ports{VNC: 5901, NoVNC: 6901, Portal: 11111})
	byName := map[string]Mapping{}
	for _, m := range got {
		byName[m.Name] = m
	}

	if m := byName["Instance Portal"]; m.ExternalPort != 40456 || m.InternalPort != InternalPortal {
		t.Errorf("portal mapping = %+v", m)
	}
	if m := byName["VNC Server"]; m.ExternalPort != 40123 || m.InternalPort != 5901 {
		t.Errorf("vnc mapping = %+v", m)
	}
	// No env override: container port passes through.
	if m := byName["noVNC Desktop"]; m.ExternalPort != 6901 {
		t.Errorf("novnc mapping = %+v", m)
	}
}

func TestDefaultMappingsIgnoreBadEnv(t *testing.T) {
	env := func(string) string { return "not-a-port" }
	got := DefaultMappings(env, Ports{VNC: 5901, NoVNC: 6901, Portal: 11111})
	for _, m := range got {
		if m.ExternalPort <= 0 {
			t.Errorf("mapping %s has external port %d", m.Name, m.ExternalPort)
		}
	}
}

func TestRenderYAML(t *testing.T) {
	out, err := RenderYAML([]Mapping{
		{Interface: "localhost", ExternalPort: 11111, InternalPort: 1111, Path: "/", Name: "Instance Portal"},
	})
	if err != nil {
		t.Fatalf("RenderYAML failed: %v", err)
	}
	text := string(out)
	for _, want := range []string{"applications:", "name: Instance Portal", "external_port: 11111", "internal_port: 1111"} {
		if !strings.Contains(text, want) {
			t.Errorf("yaml missing %q:\n%s", want, text)
		}
	}
}
