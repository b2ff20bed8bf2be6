// Package provision turns an offer, template and volume selection into a
// running Vast.ai instance.
package provision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/instances"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// VolumeMode selects how storage is attached at instance creation.
type VolumeMode string

const (
	VolumeNone   VolumeMode = "none"
	VolumeLink   VolumeMode = "link"
	VolumeCreate VolumeMode = "create"
)

// DefaultMountPath is where attached volumes land unless overridden.
const DefaultMountPath = "/workspace"

// VolumePlan describes the storage attachment for a new instance.
type VolumePlan struct {
	Mode      VolumeMode
	ID        string // volume id (link) or volume ask id (create)
	MountPath string
	SizeGB    int
	Label     string
}

// NoVolume returns a plan with no storage attachment.
func NoVolume() VolumePlan {
	return VolumePlan{Mode: VolumeNone}
}

// LinkVolume returns a plan linking an existing personal volume.
func LinkVolume(id, mountPath string) VolumePlan {
	if mountPath == "" {
		mountPath = DefaultMountPath
	}
	return VolumePlan{Mode: VolumeLink, ID: id, MountPath: mountPath}
}

// CreateVolume returns a plan creating a volume from a volume ask.
func CreateVolume(askID string, sizeGB int, label, mountPath string) VolumePlan {
	if mountPath == "" {
		mountPath = DefaultMountPath
	}
	return VolumePlan{Mode: VolumeCreate, ID: askID, MountPath: mountPath, SizeGB: sizeGB, Label: label}
}

// Summary returns the one-line display form of the plan.
func (p VolumePlan) Summary() string {
	switch p.Mode {
	case VolumeLink:
		return fmt.Sprintf("Linking volume %s at %s", p.ID, p.MountPath)
	case VolumeCreate:
		return fmt.Sprintf("Creating volume ask %s size %dGB at %s", p.ID, p.SizeGB, p.MountPath)
	default:
		return "No volume attachment"
	}
}

func (p VolumePlan) args() []string {
	switch p.Mode {
	case VolumeLink:
		return []string{"--link-volume", p.ID, "--mount-path", p.MountPath}
	case VolumeCreate:
		out := []string{
			"--create-volume", p.ID,
			"--volume-size", strconv.Itoa(p.SizeGB),
			"--mount-path", p.MountPath,
		}
		if p.Label != "" {
			out = append(out, "--volume-label", p.Label)
		}
		return out
	default:
		return nil
	}
}

// Request holds everything needed to create an instance.
type Request struct {
	OfferID      string
	TemplateHash string
	Volume       VolumePlan
	SSH          bool
	Direct       bool
}

// Validate checks the request is complete enough to submit.
func (r Request) Validate() error {
	if r.OfferID == "" {
		return errors.ValidationError("offer id is required")
	}
	if r.TemplateHash == "" {
		return errors.ValidationError("template hash is required to launch from a template")
	}
	switch r.Volume.Mode {
	case VolumeNone:
	case VolumeLink:
		if r.Volume.ID == "" {
			return errors.ValidationError("volume id is required to link a volume")
		}
	case VolumeCreate:
		if r.Volume.ID == "" {
			return errors.ValidationError("volume ask id is required to create a volume")
		}
		if r.Volume.SizeGB < 10 {
			return errors.ValidationError("volume size must be at least 10 GB")
		}
	default:
		return errors.ValidationError(fmt.Sprintf("unknown volume mode %q", r.Volume.Mode))
	}
	return nil
}

// Args returns the vastai argument list for the request.
func (r Request) Args() []string {
	args := []string{"create", "instance", r.OfferID, "--template_hash", r.TemplateHash}
	args = append(args, r.Volume.args()...)
	if r.SSH {
		args = append(args, "--ssh")
	}
	if r.Direct {
		args = append(args, "--direct")
	}
	return args
}

// Result is the outcome of an instance creation.
type Result struct {
	// InstanceID is the new instance's id, or "" when the creation payload
	// contained nothing id-like.
	InstanceID string
	// Raw is the vastai stdout, kept for display when the id is missing.
	Raw string
}

// Service creates instances through the vastai CLI.
type Service struct {
	client *vast.Client
}

// NewService creates a provisioning service.
func NewService(client *vast.Client) *Service {
	return &Service{client: client}
}

// Preview returns the shell-quoted command line the request would run.
func (s *Service) Preview(r Request) string {
	return s.client.FormatCommand(r.Args()...)
}

// Create validates and submits the request, then digs the new instance id
// out of whatever payload shape this vastai version returns.
func (s *Service) Create(ctx context.Context, r Request) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out, err := s.client.Run(ctx, r.Args()...)
	if err != nil {
		return nil, err
	}

	res := &Result{Raw: out}
	if text, ok := vast.ExtractJSON(out); ok {
		var payload any
		if vast.DecodeLoose(text, &payload) {
			res.InstanceID = instances.ExtractID(payload)
		}
	}
	if res.InstanceID == "" {
		res.InstanceID = instances.ExtractID(out)
	}
	return res, nil
}
