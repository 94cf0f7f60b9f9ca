package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds per-marketplace geometry and extraction tunables that ops
// adjust without a rebuild. Unset fields fall back to built-in defaults.
type Profile struct {
	ContextWindow int         `yaml:"contextWindow"`
	Highlight     Highlight   `yaml:"highlight"`
	Crop          CropMargins `yaml:"crop"`
}

type Highlight struct {
	R       int     `yaml:"r"`
	G       int     `yaml:"g"`
	B       int     `yaml:"b"`
	Opacity float64 `yaml:"opacity"`
}

// CropMargins are measured inward from the page edges, in centimeters.
type CropMargins struct {
	TopCm    float64 `yaml:"topCm"`
	LeftCm   float64 `yaml:"leftCm"`
	RightCm  float64 `yaml:"rightCm"`
	BottomCm float64 `yaml:"bottomCm"`
}

type Profiles map[string]Profile

func DefaultProfile() Profile {
	return Profile{
		ContextWindow: 6,
		Highlight:     Highlight{R: 255, G: 0, B: 0, Opacity: 0.4},
		Crop:          CropMargins{TopCm: 0.76, LeftCm: 6.49, RightCm: 6.49, BottomCm: 16.14},
	}
}

// LoadProfiles reads the YAML profile file. An empty path means no
// overrides; every marketplace then resolves to the defaults.
func LoadProfiles(path string) (Profiles, error) {
	if path == "" {
		return Profiles{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var p Profiles
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return p, nil
}

// For resolves the profile for a marketplace, filling unset sections from
// the defaults.
func (p Profiles) For(marketplace string) Profile {
	def := DefaultProfile()
	prof, ok := p[marketplace]
	if !ok {
		return def
	}
	if prof.ContextWindow == 0 {
		prof.ContextWindow = def.ContextWindow
	}
	if prof.Highlight == (Highlight{}) {
		prof.Highlight = def.Highlight
	}
	if prof.Crop == (CropMargins{}) {
		prof.Crop = def.Crop
	}
	return prof
}
