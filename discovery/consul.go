// Package discovery registers the server with a Consul agent.
package discovery

import (
	"fmt"
	"log"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// Registration describes how the server advertises itself
type Registration struct {
	ServiceName string
	Host        string
	Port        int
	Tags        []string
}

// ServiceID returns the unique id used for this instance
func (r Registration) ServiceID() string {
	host := r.Host
	if host == "" {
		host = hostname()
	}
	return fmt.Sprintf("%s-%s-%d", r.ServiceName, host, r.Port)
}

// Registrar keeps the agent client for deregistration
type Registrar struct {
	client *consul.Client
	id     string
}

// Register advertises the service with an HTTP health check on /health
func Register(address string, reg Registration) (*Registrar, error) {
	config := consul.DefaultConfig()
	if address != "" {
		config.Address = address
	}

	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	checkHost := reg.Host
	if checkHost == "" {
		checkHost = hostname()
	}

	registration := &consul.AgentServiceRegistration{
		ID:      reg.ServiceID(),
		Name:    reg.ServiceName,
		Address: reg.Host,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", checkHost, reg.Port),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("failed to register service: %w", err)
	}

	log.Printf("Registered service %q in consul with id %s", reg.ServiceName, registration.ID)
	return &Registrar{client: client, id: registration.ID}, nil
}

// Deregister removes the service from the agent
func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", r.id, err)
	}
	log.Printf("Deregistered service %s from consul", r.id)
	return nil
}

func hostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}
