package cluster

import (
	"fmt"
	"log"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// RegisterService announces this server instance to Consul with an HTTP
// health check against the /health endpoint. Registration is best effort:
// a standalone server runs fine without a Consul agent.
func RegisterService(consulAddr, serviceName string, servicePort, healthPort int) error {
	config := consul.DefaultConfig()
	if consulAddr != "" {
		config.Address = consulAddr
	}

	client, err := consul.NewClient(config)
	if err != nil {
		return fmt.Errorf("create consul client: %w", err)
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("register %q in consul: %w", serviceName, err)
	}
	log.Printf("cluster: registered %q in consul as %s", serviceName, serviceID)
	return nil
}
