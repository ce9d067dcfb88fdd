package service

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper 封装 Consul 注册
// 使用前请确保 Consul agent 已启动

type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelperWithAddrs 支持多个 Consul 地址高可用
func NewConsulHelperWithAddrs(addrs []string) (*ConsulHelper, error) {
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		cli, err := api.NewClient(cfg)
		if err == nil {
			_, errPing := cli.Agent().Self()
			if errPing == nil {
				return &ConsulHelper{client: cli}, nil
			}
			lastErr = errPing
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// RegisterService 注册交易服务节点到 Consul，带TCP健康检查
func (c *ConsulHelper) RegisterService(nodeID, serviceName string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:   nodeID,
		Name: serviceName,
		Port: port,
		Check: &api.AgentServiceCheck{
			TCP:      fmt.Sprintf("127.0.0.1:%d", port),
			Interval: "10s",
			Timeout:  "2s",
		},
	}
	return c.client.Agent().ServiceRegister(reg)
}

// DeregisterService 注销服务节点
func (c *ConsulHelper) DeregisterService(nodeID string) error {
	return c.client.Agent().ServiceDeregister(nodeID)
}
