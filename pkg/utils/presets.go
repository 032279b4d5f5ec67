package utils

import (
	"sort"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/ballistics-client/internal/types"
)

// Preset is a named body with a launch to go with it.
type Preset struct {
	Name        string
	Description string
	Simulation  SimulationConfig
}

var presets = map[string]Preset{
	"earth": {
		Name:        "earth",
		Description: "Earth, sidereal day, 45° shot east from the equator",
		Simulation:  DefaultSimulation(),
	},
	"moon": {
		Name:        "moon",
		Description: "Moon, 27.32 day rotation, 1.62 m/s² surface gravity",
		Simulation: SimulationConfig{
			Lat: "0", Lon: "0", Height: "2 m", Azm: "90", Alt: "45", Speed: "500 m/s",
			Radius: "1737.4 km", RotationPeriod: "27.321661 d", GSurfaceAcc: "1.62",
			DeltaTime: "0.01", LogInterval: "1",
		},
	},
	"mars": {
		Name:        "mars",
		Description: "Mars, 24.6 h sol, 3.721 m/s² surface gravity",
		Simulation: SimulationConfig{
			Lat: "18.4", Lon: "77.5", Height: "2 m", Azm: "0", Alt: "60", Speed: "800 m/s",
			Radius: "3389.5 km", RotationPeriod: "88642.66", GSurfaceAcc: "3.721",
			DeltaTime: "0.01", LogInterval: "1",
		},
	},
	"test-drop": {
		Name:        "test-drop",
		Description: "10 m drop on a 1 km body with G = 1e7, impacts after two 1 s steps",
		Simulation: SimulationConfig{
			Lat: "0", Lon: "0", Height: "10 m", Azm: "0", Alt: "0", Speed: "0",
			Radius: "1000 m", RotationPeriod: "1e30", GSurfaceAcc: "10",
			DeltaTime: "1", LogInterval: "1",
		},
	},
}

// GetPreset returns the named preset.
func GetPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, errorsmod.Wrapf(types.ErrInvalidConfig, "unknown preset %q", name)
	}
	return p, nil
}

// Presets lists all presets sorted by name.
func Presets() []Preset {
	list := make([]Preset, 0, len(presets))
	for _, p := range presets {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
