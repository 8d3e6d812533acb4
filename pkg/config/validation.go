package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a Config for structurally required fields and value
// ranges, then applies domain rules the struct tags can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Panel.DefaultPIN == "" && cfg.Panel.DefaultUserNumber == 0 {
		return fmt.Errorf("panel: either default_pin or default_user_number must be set")
	}

	for _, z := range cfg.Panel.IgnoreZones {
		if z < 1 || z > cfg.Panel.ZoneCount {
			return fmt.Errorf("panel: ignore_zones entry %d is outside 1..%d", z, cfg.Panel.ZoneCount)
		}
	}

	return nil
}
