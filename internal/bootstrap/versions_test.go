package bootstrap

import (
	"context"
	"fmt"
	"testing"
)

const nvccOutput = `nvcc: NVIDIA (R) Cuda compiler driver
Copyright (c) 2005-2024 NVIDIA Corporation
Cuda compilation tools, release 12.4, V12.4.131
`

const smiOutput = `+---------------------------------------------------+
| NVIDIA-SMI 525.147.05   Driver Version: 525.147.05   CUDA Version: 11.8 |
+---------------------------------------------------+
`

func TestDetectVersionsFromNvcc(t *testing.T) {
	b, _, exec, _ := newTestBootstrapper(t, nil)
	exec.AddResponse("nvcc --version", []byte(nvccOutput), nil)
	exec.AddResponse("python3 --version", []byte("Python 3.9.18\n"), nil)
	exec.AddResponse("/opt/conda/envs/deepfacelab/bin/python --version", nil, fmt.Errorf("no such file"))

	v := b.detectVersions(context.Background())
	if !v.hasCUDA || v.cuda.Major != 12 || v.cuda.Minor != 4 {
		t.Errorf("cuda = %s (detected=%v)", v.cudaString(), v.hasCUDA)
	}
	if !v.hasPython || v.python.Major != 3 || v.python.Minor != 9 {
		t.Errorf("python = %s (detected=%v)", v.pythonString(), v.hasPython)
	}
}

func TestDetectVersionsFallsBackToNvidiaSMI(t *testing.T) {
	b, _, exec, _ := newTestBootstrapper(t, nil)
	exec.AddResponse("nvcc --version", nil, fmt.Errorf("nvcc not found"))
	exec.AddResponse("nvidia-smi", []byte(smiOutput), nil)

	v := b.detectVersions(context.Background())
	if !v.hasCUDA || v.cuda.Major != 11 || v.cuda.Minor != 8 {
		t.Errorf("cuda = %s (detected=%v)", v.cudaString(), v.hasCUDA)
	}
}

func TestDetectVersionsWithoutGPU(t *testing.T) {
	b, _, exec, _ := newTestBootstrapper(t, nil)
	exec.AddResponse("nvcc --version", nil, fmt.Errorf("nvcc not found"))
	exec.AddResponse("nvidia-smi", nil, fmt.Errorf("no devices"))

	v := b.detectVersions(context.Background())
	if v.hasCUDA {
		t.Errorf("cuda detected on machine without GPU: %s", v.cudaString())
	}
}

func TestRequirementsFile(t *testing.T) {
	tests := []struct {
		cuda string
		want string
	}{
		{"", "requirements-cpu.txt"},
		{"12.4", "requirements-cuda12.txt"},
		{"12.0", "requirements-cuda12.txt"},
		{"11.8", "requirements-cuda11.txt"},
		{"11.0", "requirements-cuda11.txt"},
		{"10.2", "requirements-cuda10.txt"},
	}

	for _, tt := range tests {
		var v versions
		if tt.cuda != "" {
			v.cuda, v.hasCUDA = parseLoose(tt.cuda)
			if !v.hasCUDA {
				t.Fatalf("parseLoose(%q) failed", tt.cuda)
			}
		}
		if got := requirementsFile(v); got != tt.want {
			t.Errorf("requirementsFile(cuda=%q) = %s, want %s", tt.cuda, got, tt.want)
		}
	}
}

func TestDetectVersionsPrefersEnvPython(t *testing.T) {
	b, _, exec, _ := newTestBootstrapper(t, nil)
	exec.AddResponse("/opt/conda/envs/deepfacelab/bin/python --version", []byte("Python 3.7.16\n"), nil)
	exec.AddResponse("python3 --version", []byte("Python 3.11.2\n"), nil)

	v := b.detectVersions(context.Background())
	if !v.hasPython || v.python.Minor != 7 {
		t.Errorf("python = %s, want 3.7.16 from the environment interpreter", v.pythonString())
	}
}
