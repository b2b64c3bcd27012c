package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed lists catalog entries and admin accounts created at start-up.
type Seed struct {
	Departments []string    `yaml:"departments"`
	Roles       []string    `yaml:"roles"`
	Admins      []SeedAdmin `yaml:"admins"`
}

// SeedAdmin is a bootstrap administrator account.
type SeedAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// LoadSeed parses the YAML seed file. An empty path yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return &Seed{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for i, admin := range seed.Admins {
		if admin.Email == "" || admin.Password == "" {
			return nil, fmt.Errorf("seed admin #%d: email and password required", i+1)
		}
	}
	return &seed, nil
}
