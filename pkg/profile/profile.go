// Package profile persists named scan configurations to disk as INI
// files.
package profile

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/ini.v1"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// Profile is one saved scan configuration: the endpoint to talk to and
// the ranges/timeouts the discovery and enumeration scanners should
// reuse across runs.
type Profile struct {
	Name         string
	RequestID    uint32
	ResponseID   uint32
	Extended     bool
	MinID        uint32
	MaxID        uint32
	Delay        time.Duration
	ServiceMin   byte
	ServiceMax   byte
	ServiceDelay time.Duration
}

const (
	sectionEndpoint = "endpoint"
	sectionDiscover = "discovery"
	sectionService  = "services"
)

// Save writes profile to filename, one section per scanner's share of
// the configuration.
func Save(profile Profile, filename string) error {
	f := ini.Empty()

	endpoint, err := f.NewSection(sectionEndpoint)
	if err != nil {
		return err
	}
	if _, err := endpoint.NewKey("request_id", hex32(profile.RequestID)); err != nil {
		return err
	}
	if _, err := endpoint.NewKey("response_id", hex32(profile.ResponseID)); err != nil {
		return err
	}
	if _, err := endpoint.NewKey("extended", strconv.FormatBool(profile.Extended)); err != nil {
		return err
	}

	discovery, err := f.NewSection(sectionDiscover)
	if err != nil {
		return err
	}
	if _, err := discovery.NewKey("min_id", hex32(profile.MinID)); err != nil {
		return err
	}
	if _, err := discovery.NewKey("max_id", hex32(profile.MaxID)); err != nil {
		return err
	}
	if _, err := discovery.NewKey("delay", profile.Delay.String()); err != nil {
		return err
	}

	services, err := f.NewSection(sectionService)
	if err != nil {
		return err
	}
	if _, err := services.NewKey("min_service", hex8(profile.ServiceMin)); err != nil {
		return err
	}
	if _, err := services.NewKey("max_service", hex8(profile.ServiceMax)); err != nil {
		return err
	}
	if _, err := services.NewKey("delay", profile.ServiceDelay.String()); err != nil {
		return err
	}

	profile.Name = nameOrDefault(profile.Name, filename)
	return f.SaveTo(filename)
}

// Load reads a profile previously written by Save.
func Load(filename string) (Profile, error) {
	f, err := ini.Load(filename)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	endpoint := f.Section(sectionEndpoint)
	p.RequestID, err = parseHex32(endpoint.Key("request_id").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: request_id: %w", err)
	}
	p.ResponseID, err = parseHex32(endpoint.Key("response_id").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: response_id: %w", err)
	}
	p.Extended, err = endpoint.Key("extended").Bool()
	if err != nil {
		return Profile{}, fmt.Errorf("profile: extended: %w", err)
	}

	discovery := f.Section(sectionDiscover)
	p.MinID, err = parseHex32(discovery.Key("min_id").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: min_id: %w", err)
	}
	p.MaxID, err = parseHex32(discovery.Key("max_id").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: max_id: %w", err)
	}
	p.Delay, err = time.ParseDuration(discovery.Key("delay").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: delay: %w", err)
	}

	services := f.Section(sectionService)
	minService, err := parseHex32(services.Key("min_service").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: min_service: %w", err)
	}
	maxService, err := parseHex32(services.Key("max_service").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: max_service: %w", err)
	}
	p.ServiceMin, p.ServiceMax = byte(minService), byte(maxService)
	p.ServiceDelay, err = time.ParseDuration(services.Key("delay").String())
	if err != nil {
		return Profile{}, fmt.Errorf("profile: services delay: %w", err)
	}

	return p, nil
}

// DefaultOEM returns a Profile for the given endpoint with a discovery
// range of 0x000-0x7FF at a 500ms delay and a service range of
// 0x00-0xFF at a 200ms delay, for callers that only need to override
// the endpoint before saving.
func DefaultOEM(requestID, responseID uint32) Profile {
	return Profile{
		RequestID:    requestID,
		ResponseID:   responseID,
		MinID:        0,
		MaxID:        uds.MaxStandardArbitrationID,
		Delay:        500 * time.Millisecond,
		ServiceMin:   0x00,
		ServiceMax:   0xFF,
		ServiceDelay: 200 * time.Millisecond,
	}
}

func hex32(v uint32) string { return "0x" + strconv.FormatUint(uint64(v), 16) }
func hex8(v byte) string    { return "0x" + strconv.FormatUint(uint64(v), 16) }

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func nameOrDefault(name, filename string) string {
	if name != "" {
		return name
	}
	return filename
}
