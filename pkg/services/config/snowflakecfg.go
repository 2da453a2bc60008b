package config

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/snowflakedb/gosnowflake"
	"gopkg.in/ini.v1"
)

// Registry resolves named warehouse profiles from an ini file into
// Snowflake connection configs.
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetConfig(ctx context.Context, profile string) (*gosnowflake.Config, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// NewRegistry loads the profile file. A .env in the working directory,
// when present, supplies SNOWFLAKE_PASSWORD so credentials can stay out
// of the profile file.
func NewRegistry(path string) (Registry, error) {
	_ = godotenv.Load()

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetConfig(_ context.Context, profile string) (*gosnowflake.Config, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}

	password := section.Key("password").String()
	if password == "" {
		password = os.Getenv("SNOWFLAKE_PASSWORD")
	}

	cfg := &gosnowflake.Config{
		Account:   section.Key("account").String(),
		User:      section.Key("user").String(),
		Password:  password,
		Database:  section.Key("database").String(),
		Schema:    section.Key("schema").String(),
		Warehouse: section.Key("warehouse").String(),
		Role:      section.Key("role").String(),
	}
	if cfg.Account == "" || cfg.User == "" {
		return nil, fmt.Errorf("profile %s is missing account or user", profile)
	}
	return cfg, nil
}
