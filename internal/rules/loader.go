package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
)

// Rule file names searched inside the rules directory.
const (
	typeRulesFile         = "type_rules.yaml"
	counterpartyRulesFile = "counterparty_rules.yaml"
	noiseRulesFile        = "noise_rules.yaml"
	entitiesFile          = "entities.yaml"
)

// Load reads the rule set from dir, falling back to the built-in defaults
// for any file that does not exist. A file that exists but cannot be parsed
// or validated is a fatal configuration error, surfaced here rather than
// deferred into per-record processing.
func Load(dir string) (*Set, error) {
	set := DefaultSet()

	if dir != "" {
		if err := loadFiles(dir, set); err != nil {
			return nil, err
		}
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}

	return set, nil
}

func loadFiles(dir string, set *Set) error {
	type section struct {
		file string
		load func(*viper.Viper) error
	}

	sections := []section{
		{typeRulesFile, func(v *viper.Viper) error {
			var rs []TypeRule
			if err := v.UnmarshalKey("rules", &rs); err != nil {
				return err
			}
			set.TypeRules = rs
			return nil
		}},
		{counterpartyRulesFile, func(v *viper.Viper) error {
			var rs []CounterpartyRule
			if err := v.UnmarshalKey("rules", &rs); err != nil {
				return err
			}
			set.CounterpartyRules = rs
			if v.IsSet("collection_terms") {
				set.CollectionTerms = v.GetStringSlice("collection_terms")
			}
			return nil
		}},
		{noiseRulesFile, func(v *viper.Viper) error {
			var ps []NoisePattern
			if err := v.UnmarshalKey("patterns", &ps); err != nil {
				return err
			}
			set.NoisePatterns = ps
			if v.IsSet("limits") {
				var limits ExtractionLimits
				if err := v.UnmarshalKey("limits", &limits); err != nil {
					return err
				}
				set.Limits = limits
			}
			return nil
		}},
		{entitiesFile, func(v *viper.Viper) error {
			var defs []model.EntityDefinition
			if err := v.UnmarshalKey("entities", &defs); err != nil {
				return err
			}
			set.Definitions = defs
			return nil
		}},
	}

	for _, s := range sections {
		path := filepath.Join(dir, s.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Debug("Rule file not found, using defaults", "file", path)
			continue
		}

		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: reading %s: %v", common.ErrInvalidConfig, path, err)
		}
		if err := s.load(v); err != nil {
			return fmt.Errorf("%w: parsing %s: %v", common.ErrInvalidConfig, path, err)
		}
		slog.Info("Loaded rule file", "file", path)
	}

	return nil
}
