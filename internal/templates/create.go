package templates

import (
	"context"
	"strconv"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// CreateSpec describes a template to create.
type CreateSpec struct {
	Name       string
	Image      string
	Env        string
	DiskGB     int
	ExtraFlags string
}

// Validate checks the spec before anything is sent to the API.
func (spec *CreateSpec) Validate() error {
	if spec.Name == "" {
		return errors.ValidationError("template name is required")
	}
	if spec.Image == "" {
		return errors.ValidationError("docker image is required")
	}
	if spec.DiskGB < 10 {
		return errors.ValidationError("disk space must be at least 10 GB")
	}
	return nil
}

// Args returns the vastai CLI arguments for creating the template.
func (spec *CreateSpec) Args() ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"create", "template",
		"--name", spec.Name,
		"--image", spec.Image,
		"--env", spec.Env,
		"--disk_space", strconv.Itoa(spec.DiskGB),
	}
	if spec.ExtraFlags != "" {
		extra, err := shellquote.Split(spec.ExtraFlags)
		if err != nil {
			return nil, errors.ValidationError("invalid extra flags: " + err.Error())
		}
		args = append(args, extra...)
	}
	return args, nil
}

// Create creates the template and returns the created record when the API
// echoes one back. The cache is invalidated either way.
func (s *Service) Create(ctx context.Context, spec CreateSpec) (Template, error) {
	args, err := spec.Args()
	if err != nil {
		return nil, err
	}

	out, err := s.client.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	// Invalidate before marking: Invalidate clears the ownership maps, and
	// the new template must still classify as owned on the next List.
	s.Invalidate()

	var payload any
	if vast.DecodeLoose(out, &payload) {
		records := coerceTemplates(payload)
		if len(records) > 0 {
			s.Mark(records[0])
			return records[0], nil
		}
	}

	// No parseable record; mark at least the name for ownership checks.
	created := Template{"name": spec.Name}
	s.Mark(created)
	return created, nil
}
