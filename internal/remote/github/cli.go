package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/remote"
	"github.com/sirupsen/logrus"
)

// Runner executes a command and returns its stdout and stderr
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CLIPlatform implements remote.Platform by driving the gh command line
// tool, which manages its own credentials
type CLIPlatform struct {
	bin string
	run Runner
}

var _ remote.Platform = (*CLIPlatform)(nil)

// NewCLIPlatform creates a gh driven platform. bin defaults to "gh" and run
// to ExecRunner.
func NewCLIPlatform(bin string, run Runner) *CLIPlatform {
	if bin == "" {
		bin = "gh"
	}
	if run == nil {
		run = ExecRunner
	}
	return &CLIPlatform{bin: bin, run: run}
}

// Name implements remote.Platform
func (p *CLIPlatform) Name() string {
	return "gh"
}

// FetchMetadata implements remote.Platform
func (p *CLIPlatform) FetchMetadata(ctx context.Context, identifier string) (*models.RemoteMetadata, error) {
	out, err := p.exec(ctx, "", "api", "repos/"+identifier)
	if err != nil {
		return nil, err
	}
	var repo repositoryPayload
	if err := json.Unmarshal(out, &repo); err != nil {
		return nil, models.NewError(models.ErrRemoteUnavailable, "", fmt.Errorf("failed to decode gh output: %w", err))
	}
	return repo.metadata(identifier), nil
}

// UpdateField implements remote.Platform
func (p *CLIPlatform) UpdateField(ctx context.Context, identifier string, update models.FieldUpdate) error {
	args := []string{"repo", "edit", identifier}
	switch update.Field {
	case models.FieldHomepage:
		args = append(args, "--homepage", update.Value)
	case models.FieldDescription:
		args = append(args, "--description", update.Value)
	case models.FieldTopics:
		if len(update.AddTopics) == 0 {
			return nil
		}
		for _, t := range update.AddTopics {
			args = append(args, "--add-topic", t)
		}
	default:
		return models.NewError(models.ErrRemoteRejected, update.Field, fmt.Errorf("field is not writable"))
	}
	_, err := p.exec(ctx, update.Field, args...)
	return err
}

func (p *CLIPlatform) exec(ctx context.Context, field models.Field, args ...string) ([]byte, error) {
	logrus.Debugf("Running: %s %s", p.bin, strings.Join(args, " "))

	stdout, stderr, err := p.run(ctx, p.bin, args...)
	if err == nil {
		return stdout, nil
	}
	if ctx.Err() != nil {
		return nil, models.NewError(models.ErrRemoteUnavailable, field, ctx.Err())
	}
	return nil, classifyCLIError(field, err, stderr)
}

// classifyCLIError maps gh's stderr onto the reconcile error taxonomy
func classifyCLIError(field models.Field, err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	wrapped := fmt.Errorf("gh: %w: %s", err, msg)

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return models.NewError(models.ErrInvalidConfig, field, wrapped)
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "http 404"), strings.Contains(lower, "could not resolve to a repository"):
		return models.NewError(models.ErrRemoteNotFound, field, wrapped)
	case strings.Contains(lower, "http 401"), strings.Contains(lower, "gh auth login"),
		strings.Contains(lower, "http 403") && !strings.Contains(lower, "rate limit"):
		return models.NewError(models.ErrRemoteUnauthorized, field, wrapped)
	case strings.Contains(lower, "http 422"):
		return models.NewError(models.ErrRemoteRejected, field, wrapped)
	default:
		return models.NewError(models.ErrRemoteUnavailable, field, wrapped)
	}
}
