package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// NetBoxEndpoint is a persisted connection record for the inventory system.
type NetBoxEndpoint struct {
	gorm.Model
	Name      string `gorm:"uniqueIndex;not null" json:"name"`
	IPAddress string `gorm:"index" json:"ip_address"`
	Domain    string `gorm:"index" json:"domain"`
	Port      int    `gorm:"default:443" json:"port"`
	Token     string `gorm:"not null" json:"token"`
	VerifySSL bool   `gorm:"default:true" json:"verify_ssl"`
}

type NetBoxEndpointList []NetBoxEndpoint

// URL constructs the full base URL for the NetBox endpoint.
func (e NetBoxEndpoint) URL() string {
	protocol := "http"
	if e.Port == 443 || e.VerifySSL {
		protocol = "https"
	}
	host := e.Domain
	if host == "" {
		host = e.IPAddress
	}
	return fmt.Sprintf("%s://%s:%d", protocol, host, e.Port)
}

func (e NetBoxEndpoint) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}

// ProxmoxEndpoint is a persisted connection record for one virtualization
// manager API. TokenName carries the full "user@realm!tokenid" identifier.
type ProxmoxEndpoint struct {
	gorm.Model
	Name       string `gorm:"uniqueIndex;not null" json:"name"`
	IPAddress  string `gorm:"index" json:"ip_address"`
	Domain     string `gorm:"index" json:"domain"`
	Port       int    `gorm:"default:8006" json:"port"`
	TokenName  string `gorm:"not null" json:"token_name"`
	TokenValue string `gorm:"not null" json:"token_value"`
	VerifySSL  bool   `gorm:"default:false" json:"verify_ssl"`
}

type ProxmoxEndpointList []ProxmoxEndpoint

// URL constructs the full base URL for the Proxmox endpoint.
func (e ProxmoxEndpoint) URL() string {
	host := e.Domain
	if host == "" {
		host = e.IPAddress
	}
	return fmt.Sprintf("https://%s:%d", host, e.Port)
}

func (e ProxmoxEndpoint) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}
