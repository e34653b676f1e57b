package memory

import (
	"os"

	"github.com/dmcdougall/vexcl/compute"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes the platforms and devices simulated by a memory Backend.
//
// Example YAML:
//
//	platforms:
//	  - name: Simulated GPUs
//	    vendor: ACME
//	    devices:
//	      - name: ACME Rocket 9000
//	        type: GPU
//	        extensions: cl_khr_fp64 cl_khr_int64_base_atomics
//	      - name: ACME Rocket 100
//	        type: GPU
//	        unavailable: true
type Config struct {
	Platforms []PlatformConfig `yaml:"platforms"`
}

// PlatformConfig describes one simulated platform.
type PlatformConfig struct {
	Name    string         `yaml:"name"`
	Vendor  string         `yaml:"vendor"`
	Version string         `yaml:"version"`
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one simulated device.
type DeviceConfig struct {
	Name string `yaml:"name"`

	// Vendor defaults to the platform vendor if empty.
	Vendor string `yaml:"vendor"`

	// Type is one of OTHER, CPU, GPU or ACCELERATOR (case-insensitive). Empty means OTHER.
	Type string `yaml:"type"`

	Extensions  string `yaml:"extensions"`
	Unavailable bool   `yaml:"unavailable"`

	// FailContext makes the creation of any context including this device fail.
	FailContext bool `yaml:"fail_context"`

	// FailQueue makes the creation of queues on this device fail.
	FailQueue bool `yaml:"fail_queue"`
}

// DefaultConfig returns the configuration used when no configuration file is given: one platform with a
// single host CPU device supporting double precision.
func DefaultConfig() *Config {
	return &Config{
		Platforms: []PlatformConfig{{
			Name:    "Memory Host Platform",
			Vendor:  "vexcl",
			Version: "1.0",
			Devices: []DeviceConfig{{
				Name:       "Host CPU",
				Type:       "CPU",
				Extensions: "cl_khr_fp64",
			}},
		}},
	}
}

// ParseConfig parses a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse memory backend configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read memory backend configuration from %q", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in file %q", path)
	}
	return cfg, nil
}

// Validate checks that all device types are valid.
func (cfg *Config) Validate() error {
	for pIdx, p := range cfg.Platforms {
		for dIdx, d := range p.Devices {
			if _, err := parseDeviceType(d.Type); err != nil {
				return errors.WithMessagef(err, "platform #%d (%q), device #%d (%q)", pIdx, p.Name, dIdx, d.Name)
			}
		}
	}
	return nil
}

func parseDeviceType(s string) (compute.DeviceType, error) {
	if s == "" {
		return compute.DeviceTypeOther, nil
	}
	t, err := compute.DeviceTypeString(s)
	if err != nil {
		return compute.DeviceTypeOther, errors.Errorf("invalid device type %q, valid values are CPU, GPU, ACCELERATOR or OTHER", s)
	}
	if t == compute.DeviceTypeAll {
		return compute.DeviceTypeOther, errors.Errorf("device type %q cannot be used to describe a device", s)
	}
	return t, nil
}
