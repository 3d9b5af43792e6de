// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Capacity bounds for a roster, including the owner.
const (
	MinCapacity = 1
	MaxCapacity = 20
)

// MaxPickerOptions is the most options a single picker can hold.
// Class lists longer than this are split across several pickers.
const MaxPickerOptions = 25

// PendingClass is the placeholder class a roster owner starts with
// until they pick a real one.
const PendingClass = "TBD"

// Archetype is a kind of party that can be formed.
type Archetype struct {
	// Name appears in the roster title and announcements.
	Name string `yaml:"name"`
	// NotifyRole is the subscriber role mentioned when a party of
	// this archetype becomes ready.
	NotifyRole string `yaml:"notify_role"`
	// NeedsClass enables the needed-class picker for this archetype.
	NeedsClass bool `yaml:"needs_class"`
	// NeededChoices are the values the needed-class picker offers.
	NeededChoices []string `yaml:"needed_choices,omitempty"`
}

// Config is the partyfinder domain configuration: which archetypes
// exist, which classes members may declare, and optional per-class
// icons.
type Config struct {
	Archetypes []Archetype `yaml:"archetypes"`
	Classes    []string    `yaml:"classes"`
	// Icons maps class names to a display icon. Lookup is best
	// effort: classes without an entry render without an icon.
	Icons map[string]string `yaml:"icons,omitempty"`
}

// DefaultConfig returns the built-in archetypes and class list.
func DefaultConfig() *Config {
	return &Config{
		Archetypes: []Archetype{
			{
				Name:          "Doluns",
				NotifyRole:    "doluns",
				NeedsClass:    true,
				NeededChoices: []string{"Shai", "DPS"},
			},
			{
				Name:       "Boss Blitz",
				NotifyRole: "bossblitzers",
			},
			{
				Name:       "Dungeon",
				NotifyRole: "dungeon",
			},
		},
		Classes: []string{
			"Warrior", "Ranger", "Sorceress", "Berserker", "Tamer",
			"Musa", "Maehwa", "Valkyrie", "Kunoichi", "Ninja",
			"Wizard", "Witch", "Dark Knight", "Striker", "Mystic",
			"Lahn", "Archer", "Shai", "Guardian", "Hashashin",
			"Nova", "Sage", "Corsair", "Drakania", "Woosa",
			"Maegu", "Scholar", "Dosa", "Deadeye",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks archetype and class definitions for consistency.
func (c *Config) Validate() error {
	if len(c.Archetypes) == 0 {
		return fmt.Errorf("no archetypes configured")
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("no classes configured")
	}
	seenArchetypes := make(map[string]bool)
	for i, archetype := range c.Archetypes {
		if archetype.Name == "" {
			return fmt.Errorf("archetype %d: missing name", i)
		}
		if seenArchetypes[archetype.Name] {
			return fmt.Errorf("duplicate archetype %q", archetype.Name)
		}
		seenArchetypes[archetype.Name] = true
		if archetype.NeedsClass && len(archetype.NeededChoices) == 0 {
			return fmt.Errorf("archetype %q: needs_class set but no needed_choices", archetype.Name)
		}
		if !archetype.NeedsClass && len(archetype.NeededChoices) > 0 {
			return fmt.Errorf("archetype %q: needed_choices without needs_class", archetype.Name)
		}
	}
	seenClasses := make(map[string]bool)
	for i, class := range c.Classes {
		if class == "" {
			return fmt.Errorf("class %d: empty name", i)
		}
		if seenClasses[class] {
			return fmt.Errorf("duplicate class %q", class)
		}
		seenClasses[class] = true
	}
	return nil
}

// Archetype looks up an archetype by name.
func (c *Config) Archetype(name string) (Archetype, bool) {
	for _, archetype := range c.Archetypes {
		if archetype.Name == name {
			return archetype, true
		}
	}
	return Archetype{}, false
}

// Icon returns the display icon for a class, or "" when none is
// configured.
func (c *Config) Icon(class string) string {
	return c.Icons[class]
}

// KnownClass reports whether name is a configured class.
func (c *Config) KnownClass(name string) bool {
	for _, class := range c.Classes {
		if class == name {
			return true
		}
	}
	return false
}

// NeededChoice reports whether name is a valid needed-class choice
// for the archetype.
func (a Archetype) NeededChoice(name string) bool {
	for _, choice := range a.NeededChoices {
		if choice == name {
			return true
		}
	}
	return false
}
