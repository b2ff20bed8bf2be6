package bootstrap

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/MannyJMusic/dfl-desktop/internal/logging"
)

var (
	nvccPattern   = regexp.MustCompile(`release (\d+\.\d+)`)
	smiPattern    = regexp.MustCompile(`CUDA Version:\s*(\d+\.\d+)`)
	pythonPattern = regexp.MustCompile(`Python (\d+\.\d+(?:\.\d+)?)`)
)

var (
	cuda12Range = semver.MustParseRange(">=12.0.0")
	cuda11Range = semver.MustParseRange(">=11.0.0")
	python38    = semver.MustParse("3.8.0")
)

// versions holds what could be detected about the runtime environment.
type versions struct {
	cuda      semver.Version
	hasCUDA   bool
	python    semver.Version
	hasPython bool
}

func (v versions) cudaString() string {
	if !v.hasCUDA {
		return "none"
	}
	return v.cuda.String()
}

func (v versions) pythonString() string {
	if !v.hasPython {
		return "unknown"
	}
	return v.python.String()
}

// detectVersions probes nvcc, nvidia-smi and the environment's python. A
// probe that fails just leaves its version unset.
func (b *Bootstrapper) detectVersions(ctx context.Context) versions {
	var v versions

	if out, err := b.exec.Execute(ctx, "nvcc", "--version"); err == nil {
		if m := nvccPattern.FindSubmatch(out); m != nil {
			v.cuda, v.hasCUDA = parseLoose(string(m[1]))
		}
	}
	if !v.hasCUDA {
		if out, err := b.exec.Execute(ctx, "nvidia-smi"); err == nil {
			if m := smiPattern.FindSubmatch(out); m != nil {
				v.cuda, v.hasCUDA = parseLoose(string(m[1]))
			}
		}
	}

	envPython := filepath.Join(b.cfg.CondaEnv, "bin", "python")
	out, err := b.exec.Execute(ctx, envPython, "--version")
	if err != nil {
		out, err = b.exec.Execute(ctx, "python3", "--version")
	}
	if err == nil {
		if m := pythonPattern.FindSubmatch(out); m != nil {
			v.python, v.hasPython = parseLoose(string(m[1]))
		}
	}

	if v.hasPython && v.python.LT(python38) {
		logging.UserWarning("python %s is older than 3.8; newer TensorFlow wheels will not install", v.python)
	}
	return v
}

// requirementsFile picks the pip requirements file matching the detected
// CUDA generation.
func requirementsFile(v versions) string {
	switch {
	case !v.hasCUDA:
		return "requirements-cpu.txt"
	case cuda12Range(v.cuda):
		return "requirements-cuda12.txt"
	case cuda11Range(v.cuda):
		return "requirements-cuda11.txt"
	default:
		return "requirements-cuda10.txt"
	}
}

// parseLoose parses versions like "12.4" that lack a patch component.
func parseLoose(s string) (semver.Version, bool) {
	s = strings.TrimSpace(s)
	v, err := semver.ParseTolerant(s)
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}
