package actors

import (
	"encoding/json"
	"fmt"
)

// HeaderConfig carries the client identity fields stamped onto every
// outgoing protocol request.
type HeaderConfig struct {
	APIID          int32  `json:"api_id"`
	AppVersion     string `json:"app_version"`
	DeviceModel    string `json:"device_model"`
	SystemVersion  string `json:"system_version"`
	LanguageCode   string `json:"lang_code"`
	ProtocolLayer  int32  `json:"layer"`
	UseTestNetwork bool   `json:"test_network"`
}

// HeaderBuilder produces the request header blob. It is the one registry
// role assumed always present after init.
type HeaderBuilder struct {
	cfg HeaderConfig
}

func NewHeaderBuilder(cfg HeaderConfig) (*HeaderBuilder, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("actors: header requires api_id")
	}
	if cfg.AppVersion == "" {
		return nil, fmt.Errorf("actors: header requires app_version")
	}
	if cfg.ProtocolLayer <= 0 {
		return nil, fmt.Errorf("actors: header requires a positive layer")
	}
	return &HeaderBuilder{cfg: cfg}, nil
}

// Build serializes the header.
func (b *HeaderBuilder) Build() ([]byte, error) {
	return json.Marshal(b.cfg)
}

// Config returns the identity fields in use.
func (b *HeaderBuilder) Config() HeaderConfig {
	return b.cfg
}

func (b *HeaderBuilder) Close() {}
