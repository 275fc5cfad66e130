package background

import (
	"errors"
	"fmt"

	"github.com/kardianos/service"
)

// ServiceName is the OS service identifier.
const ServiceName = "copilotstatus-agent"

// NewServiceFunc matches service.New.
type NewServiceFunc func(i service.Interface, c *service.Config) (service.Service, error)

// Registrar installs the agent as a per-user OS service (launchd, systemd
// --user, or the Windows service manager).
type Registrar struct {
	// Agent receives Start and Stop when the service runs in-process.
	Agent      service.Interface
	NewService NewServiceFunc
}

func NewRegistrar(agent service.Interface) *Registrar {
	return &Registrar{Agent: agent, NewService: service.New}
}

// ServiceConfig describes the service for the given interval.
func ServiceConfig(interval Interval) *service.Config {
	return &service.Config{
		Name:        ServiceName,
		DisplayName: "copilotstatus agent",
		Description: "Refreshes the GitHub Copilot quota for copilotstatus widgets",
		Arguments:   []string{"agent", "run", "--interval=" + interval.String()},
		Option: service.KeyValue{
			"UserService": true,
			"RunAtLoad":   true,
		},
	}
}

// Service returns the service handle for interval.
func (r *Registrar) Service(interval Interval) (service.Service, error) {
	agent := r.Agent
	if agent == nil {
		agent = &Agent{}
	}
	svc, err := r.NewService(agent, ServiceConfig(interval))
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return svc, nil
}

// Register applies interval. Never removes the service; any other value
// reinstalls it so the new arguments take effect.
func (r *Registrar) Register(interval Interval) error {
	if !interval.Valid() {
		return fmt.Errorf("invalid interval %d", int(interval))
	}
	if interval == Never {
		return r.Unregister()
	}

	svc, err := r.Service(interval)
	if err != nil {
		return err
	}
	if installed(svc) {
		_ = svc.Stop()
		if err := svc.Uninstall(); err != nil {
			return fmt.Errorf("removing previous agent: %w", err)
		}
	}
	if err := svc.Install(); err != nil {
		return fmt.Errorf("installing agent: %w", err)
	}
	if err := svc.Start(); err != nil {
		return fmt.Errorf("agent installed but failed to start: %w", err)
	}
	return nil
}

// Unregister stops and removes the service. It succeeds when nothing is
// installed.
func (r *Registrar) Unregister() error {
	svc, err := r.Service(DefaultInterval)
	if err != nil {
		return err
	}
	if !installed(svc) {
		return nil
	}
	_ = svc.Stop()
	if err := svc.Uninstall(); err != nil {
		return fmt.Errorf("uninstalling agent: %w", err)
	}
	return nil
}

// Status describes the installed service.
type Status string

const (
	StatusNotInstalled Status = "not installed"
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusUnknown      Status = "unknown"
)

func (r *Registrar) Status() (Status, error) {
	svc, err := r.Service(DefaultInterval)
	if err != nil {
		return StatusUnknown, err
	}
	st, err := svc.Status()
	if errors.Is(err, service.ErrNotInstalled) {
		return StatusNotInstalled, nil
	}
	if err != nil {
		return StatusUnknown, err
	}
	switch st {
	case service.StatusRunning:
		return StatusRunning, nil
	case service.StatusStopped:
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}

func installed(svc service.Service) bool {
	_, err := svc.Status()
	return !errors.Is(err, service.ErrNotInstalled)
}
