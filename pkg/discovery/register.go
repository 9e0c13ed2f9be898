package discovery

import (
	"fmt"
	"net"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Registration 已注册服务的句柄, 退出时注销
type Registration struct {
	client    *api.Client
	ServiceID string
}

// RegisterService 将 HTTP 服务注册到 Consul, 健康检查走 /healthz
func RegisterService(serviceName, host string, servicePort int, consulAddr string, log *zap.Logger) (*Registration, error) {
	// 1. 获取 Consul 客户端
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	// 2. 获取本机 IP (非 Loopback)
	if host == "" {
		host, err = getOutboundIP()
		if err != nil {
			return nil, err
		}
	}

	// 3. 创建注册对象
	// ID 必须唯一，通常使用 "服务名-IP-端口"
	registration := &api.AgentServiceRegistration{
		ID:      ServiceID(serviceName, host, servicePort),
		Name:    serviceName,
		Port:    servicePort,
		Address: host,
		Tags:    []string{"storefront", "http"},
		Check:   HealthCheck(host, servicePort),
	}

	// 4. 发送注册请求
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}

	log.Info("service registered",
		zap.String("name", serviceName),
		zap.String("id", registration.ID),
		zap.String("addr", fmt.Sprintf("%s:%d", host, servicePort)))
	return &Registration{client: client, ServiceID: registration.ID}, nil
}

// Deregister 从 Consul 注销
func (r *Registration) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.ServiceID)
}

func ServiceID(serviceName, host string, port int) string {
	return fmt.Sprintf("%s-%s-%d", serviceName, host, port)
}

// HealthCheck Consul 定期请求 /healthz 判断服务是否存活
func HealthCheck(host string, port int) *api.AgentServiceCheck {
	return &api.AgentServiceCheck{
		HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, port),
		Interval:                       "10s",
		Timeout:                        "5s",
		DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
	}
}

// getOutboundIP 获取本机对外 IP
// 因为如果是 Docker 或局域网，不能注册 127.0.0.1，否则网关找不到
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
