package pid

import (
	"fmt"
	"sort"
)

// Gains holds the three PID coefficients.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// Profile is a named gain preset. It is resolved once when a Controller is
// created and cannot be changed afterwards.
type Profile int

const (
	// ProfileDisturbanceRejection reacts hard to pushes on the ball.
	ProfileDisturbanceRejection Profile = iota
	// ProfilePathPlanning converges smoothly on a moving target.
	ProfilePathPlanning
)

var profileGains = map[Profile]Gains{
	ProfileDisturbanceRejection: {Kp: 0.80, Ki: 0.01, Kd: 0.55},
	ProfilePathPlanning:         {Kp: 0.8, Ki: 0.1, Kd: 1.2},
}

var profileNames = map[Profile]string{
	ProfileDisturbanceRejection: "disturbance_rejection",
	ProfilePathPlanning:         "path_planning",
}

// Gains returns the coefficients of the profile.
func (p Profile) Gains() Gains {
	return profileGains[p]
}

func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// ParseProfile returns the profile with the given config name.
func ParseProfile(name string) (Profile, error) {
	for p, n := range profileNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown controller profile %q (want one of %v)", name, ProfileNames())
}

// ProfileNames lists the config names of all profiles, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profileNames))
	for _, n := range profileNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
