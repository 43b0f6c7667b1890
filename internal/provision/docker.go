// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	// ContainerPrefix prefixes the name of every service container.
	ContainerPrefix = "matrixrun-"

	// LabelService is the container label holding the service name.
	LabelService = "io.matrixrun.service"

	certsMountPath = "/certs"
)

// ErrDockerUnavailable is returned when no Docker daemon can be reached.
var ErrDockerUnavailable = errors.New("docker is not available")

type (
	// dockerAPI is the subset of the Docker client the provisioner uses.
	dockerAPI interface {
		ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
		ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
		ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
		ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
			networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
		ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
		Close() error
	}

	// waitFunc probes a started service until it accepts connections.
	waitFunc func(ctx context.Context, spec Spec, hostPort, database string, timeout time.Duration) error

	// DockerProvisioner runs each service in a named, reusable container.
	// The Docker client is created on first use, so runs that only touch
	// sqlite never contact the daemon.
	DockerProvisioner struct {
		cfg *Config

		once      sync.Once
		newClient func() (dockerAPI, error)
		api       dockerAPI
		clientErr error

		wait waitFunc
	}
)

// NewDockerProvisioner creates a DockerProvisioner using the environment's
// Docker settings (DOCKER_HOST and friends).
func NewDockerProvisioner(cfg *Config) *DockerProvisioner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &DockerProvisioner{
		cfg: cfg,
		newClient: func() (dockerAPI, error) {
			c, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		wait: waitForService,
	}
}

// Provision starts or reuses the service container and waits until it is ready.
func (d *DockerProvisioner) Provision(ctx context.Context, service, database, workDir string) (string, error) {
	spec, err := Lookup(service, d.cfg)
	if err != nil {
		return "", err
	}

	api, err := d.client()
	if err != nil {
		return "", err
	}

	hostPort, err := d.ensureContainer(ctx, api, spec, database, workDir)
	if err != nil {
		return "", err
	}

	if err := d.wait(ctx, spec, hostPort, database, d.cfg.ReadyTimeout); err != nil {
		return "", err
	}
	return spec.URL(hostPort, database), nil
}

// Close releases the Docker client if one was created.
func (d *DockerProvisioner) Close() error {
	if d.api == nil {
		return nil
	}
	return d.api.Close()
}

func (d *DockerProvisioner) client() (dockerAPI, error) {
	d.once.Do(func() {
		d.api, d.clientErr = d.newClient()
	})
	if d.clientErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrDockerUnavailable, d.clientErr)
	}
	return d.api, nil
}

// ensureContainer returns the host port of a running container for spec,
// reusing, restarting or creating it as needed.
func (d *DockerProvisioner) ensureContainer(ctx context.Context, api dockerAPI, spec Spec, database, workDir string) (string, error) {
	name := ContainerPrefix + spec.Service

	info, err := api.ContainerInspect(ctx, name)
	switch {
	case err == nil:
		if info.ContainerJSONBase == nil {
			return "", fmt.Errorf("inspect container %s: empty response", name)
		}
		if info.State == nil || !info.State.Running {
			slog.Info("starting stopped service container", "service", spec.Service, "container", name)
			if err := api.ContainerStart(ctx, info.ID, container.StartOptions{}); err != nil {
				return "", fmt.Errorf("start container %s: %w", name, err)
			}
		} else {
			slog.Debug("reusing running service container", "service", spec.Service, "container", name)
		}
	case errdefs.IsNotFound(err):
		if err := d.createContainer(ctx, api, spec, name, database, workDir); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: inspect container %s: %w", ErrDockerUnavailable, name, err)
	}

	info, err = api.ContainerInspect(ctx, name)
	if err != nil {
		return "", fmt.Errorf("inspect container %s: %w", name, err)
	}
	return hostPort(name, info, spec.Port)
}

func (d *DockerProvisioner) createContainer(ctx context.Context, api dockerAPI, spec Spec, name, database, workDir string) error {
	if err := pullIfMissing(ctx, api, spec.Image); err != nil {
		return err
	}

	containerCfg := container.Config{
		Env: spec.ContainerEnv(database),
		ExposedPorts: nat.PortSet{
			spec.Port: {},
		},
		Image:  spec.Image,
		Cmd:    spec.Cmd,
		Labels: map[string]string{LabelService: spec.Service},
	}
	hostCfg := container.HostConfig{
		PublishAllPorts: true,
	}

	if spec.Engine == enginePostgres {
		if certs := d.certsDir(workDir); certs != "" {
			hostCfg.Binds = []string{certs + ":" + certsMountPath + ":ro"}
			containerCfg.Cmd = []string{
				"postgres",
				"-c", "ssl=on",
				"-c", "ssl_cert_file=" + certsMountPath + "/server.crt",
				"-c", "ssl_key_file=" + certsMountPath + "/server.key",
			}
		}
	}

	slog.Info("creating service container", "service", spec.Service, "image", spec.Image, "container", name)
	created, err := api.ContainerCreate(ctx, &containerCfg, &hostCfg, nil, nil, name)
	if err != nil {
		return fmt.Errorf("create container %s: %w", name, err)
	}
	if err := api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", name, err)
	}
	return nil
}

// certsDir returns the absolute certificates directory when it holds a
// server certificate and key, or "" otherwise.
func (d *DockerProvisioner) certsDir(workDir string) string {
	dir := d.cfg.CertsDir
	if dir == "" {
		return ""
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workDir, dir)
	}
	for _, f := range []string{"server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return ""
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	return abs
}

func pullIfMissing(ctx context.Context, api dockerAPI, ref string) error {
	images, err := api.ImageList(ctx, image.ListOptions{All: true})
	if err != nil {
		return fmt.Errorf("%w: list images: %w", ErrDockerUnavailable, err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == ref || strings.TrimPrefix(tag, "docker.io/library/") == ref {
				return nil
			}
		}
	}

	slog.Info("pulling image", "image", ref)
	reader, err := api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer func() { _ = reader.Close() }()

	// The pull only completes once its progress stream has been drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	return nil
}

func hostPort(name string, info container.InspectResponse, port nat.Port) (string, error) {
	if info.NetworkSettings == nil {
		return "", fmt.Errorf("container %s has no network settings", name)
	}
	bindings, ok := info.NetworkSettings.Ports[port]
	if !ok || len(bindings) == 0 {
		return "", fmt.Errorf("container %s does not publish %s", name, port)
	}
	return bindings[0].HostPort, nil
}
