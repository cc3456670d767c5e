/*
Package config loads the settings a relay client needs from a YAML file. Every setting can
also be supplied through an environment variable, and the environment variable always
takes precedence over the value in the file, so that running processes and the initial
machine setup stay consistent.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"orbitrelay.dev/orbitlib/connection/transporter"
)

const (
	TransportEnvVar  = "ORBIT_TRANSPORT"
	WsUrlEnvVar      = "ORBIT_WS_URL"
	TokenEnvVar      = "ORBIT_TOKEN"
	RunnerNameEnvVar = "ORBIT_RUNNER_NAME"
	TcpHostEnvVar    = "ORBIT_TCP_HOST"
	TcpTokenEnvVar   = "ORBIT_TCP_TOKEN"
	LogLevelEnvVar   = "ORBIT_LOG_LEVEL"
	LogPathEnvVar    = "ORBIT_LOG_PATH"
)

type Settings struct {
	Transport  string `yaml:"transport"`
	OrbitWsUrl string `yaml:"orbitWsUrl"`
	OrbitToken string `yaml:"orbitToken"`
	RunnerName string `yaml:"runnerName"`
	TcpHost    string `yaml:"tcpHost"`
	TcpToken   string `yaml:"tcpToken"`
	LogLevel   string `yaml:"logLevel"`
	LogPath    string `yaml:"logPath"`
}

func Default() *Settings {
	return &Settings{
		Transport: string(transporter.OrbitWs),
		LogLevel:  "info",
	}
}

// Load reads the settings file at path, if there is one, and applies environment
// overrides on top. A missing file is not an error.
func Load(path string) (*Settings, error) {
	settings := Default()

	if path != "" {
		if data, err := os.ReadFile(path); errors.Is(err, fs.ErrNotExist) {
			// nothing on disk, run on defaults and environment
		} else if err != nil {
			return nil, &FileError{Path: path, InnerErr: err}
		} else if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, &ValidationError{InnerErr: err}
		}
	}

	settings.applyEnv()
	return settings, nil
}

func (s *Settings) applyEnv() {
	overrides := map[string]*string{
		TransportEnvVar:  &s.Transport,
		WsUrlEnvVar:      &s.OrbitWsUrl,
		TokenEnvVar:      &s.OrbitToken,
		RunnerNameEnvVar: &s.RunnerName,
		TcpHostEnvVar:    &s.TcpHost,
		TcpTokenEnvVar:   &s.TcpToken,
		LogLevelEnvVar:   &s.LogLevel,
		LogPathEnvVar:    &s.LogPath,
	}

	for envVar, field := range overrides {
		if value, ok := os.LookupEnv(envVar); ok {
			*field = value
		}
	}
}

// TransportConfig returns the tagged transport configuration these settings select
func (s *Settings) TransportConfig() (transporter.Config, error) {
	switch transporter.Kind(strings.ToLower(strings.TrimSpace(s.Transport))) {
	case transporter.OrbitWs, "":
		return transporter.OrbitWsConfig{
			WsUrl:      s.OrbitWsUrl,
			Token:      s.OrbitToken,
			RunnerName: s.RunnerName,
		}, nil
	case transporter.Tcp:
		return transporter.TcpConfig{
			Host:  s.TcpHost,
			Token: s.TcpToken,
		}, nil
	default:
		return nil, &ValidationError{InnerErr: fmt.Errorf("unknown transport %q", s.Transport)}
	}
}
