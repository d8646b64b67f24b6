// pkg/config/plants.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// Plant describes one plant site and its vector collection
type Plant struct {
	Code       string   `yaml:"code"`
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Collection string   `yaml:"collection"`
}

// PlantRegistry maps plant codes, aliases and collection names.
// Plant order is the order in which plant collections are processed.
type PlantRegistry struct {
	MasterCollection string  `yaml:"master_collection"`
	Plants           []Plant `yaml:"plants"`
}

// DefaultPlantRegistry returns the four known plants
func DefaultPlantRegistry() *PlantRegistry {
	return &PlantRegistry{
		MasterCollection: "machine_data_master",
		Plants: []Plant{
			{Code: "1150", Name: "VARNAVASI", Collection: "machine_data_1150"},
			{Code: "1200", Name: "MYSORE", Collection: "machine_data_1200"},
			{Code: "1250", Name: "UTTARAKHAND", Collection: "machine_data_1250"},
			{Code: "1300", Name: "PONDICHERRY", Collection: "machine_data_1300"},
		},
	}
}

// LoadPlantRegistry reads a registry from a YAML file. Missing collection
// names default to "machine_data_<code>".
func LoadPlantRegistry(path string) (*PlantRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plant registry: %w", err)
	}

	var reg PlantRegistry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse plant registry: %w", err)
	}

	if reg.MasterCollection == "" {
		reg.MasterCollection = "machine_data_master"
	}
	for i := range reg.Plants {
		reg.Plants[i].Code = strings.TrimSpace(reg.Plants[i].Code)
		reg.Plants[i].Name = strings.ToUpper(strings.TrimSpace(reg.Plants[i].Name))
		if reg.Plants[i].Collection == "" {
			reg.Plants[i].Collection = "machine_data_" + reg.Plants[i].Code
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks codes and collection names are unique
func (r *PlantRegistry) Validate() error {
	if r.MasterCollection == "" {
		return errors.New("master collection name is required")
	}

	codes := make(map[string]bool)
	collections := map[string]bool{r.MasterCollection: true}
	for _, p := range r.Plants {
		if p.Code == "" {
			return errors.New("plant code is required")
		}
		if p.Code == model.Unknown || p.Code == model.TargetMaster.String() {
			return fmt.Errorf("plant code %q is reserved", p.Code)
		}
		if codes[p.Code] {
			return fmt.Errorf("duplicate plant code %q", p.Code)
		}
		codes[p.Code] = true

		if p.Collection == "" {
			return fmt.Errorf("plant %s has no collection", p.Code)
		}
		if collections[p.Collection] {
			return fmt.Errorf("duplicate collection name %q", p.Collection)
		}
		collections[p.Collection] = true
	}
	return nil
}

// Codes returns the known plant codes in registry order
func (r *PlantRegistry) Codes() []string {
	codes := make([]string, 0, len(r.Plants))
	for _, p := range r.Plants {
		codes = append(codes, p.Code)
	}
	return codes
}

// AliasTable returns upper-cased alias -> code, including each site name and
// each code mapped to itself
func (r *PlantRegistry) AliasTable() map[string]string {
	table := make(map[string]string)
	for _, p := range r.Plants {
		if p.Name != "" {
			table[strings.ToUpper(p.Name)] = p.Code
		}
		for _, alias := range p.Aliases {
			table[strings.ToUpper(strings.TrimSpace(alias))] = p.Code
		}
		table[p.Code] = p.Code
	}
	return table
}

// DisplayName returns the site name of a code, or the code itself
func (r *PlantRegistry) DisplayName(code string) string {
	for _, p := range r.Plants {
		if p.Code == code && p.Name != "" {
			return p.Name
		}
	}
	return code
}

// Targets returns master followed by every plant target
func (r *PlantRegistry) Targets() []model.CollectionTarget {
	targets := []model.CollectionTarget{model.TargetMaster}
	for _, p := range r.Plants {
		targets = append(targets, model.CollectionTarget(p.Code))
	}
	return targets
}

// CollectionFor returns the physical collection name of a target
func (r *PlantRegistry) CollectionFor(target model.CollectionTarget) (string, bool) {
	if target.IsMaster() {
		return r.MasterCollection, true
	}
	for _, p := range r.Plants {
		if p.Code == string(target) {
			return p.Collection, true
		}
	}
	return "", false
}
