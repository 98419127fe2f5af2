// Package coordmap describes a machine's mechanical axes and maps
// between cartesian space and per-axis step counts.
package coordmap

import (
	"fmt"
	"math"

	"printipi-go-migration/pkg/endstop"
	"printipi-go-migration/pkg/errors"
	"printipi-go-migration/pkg/vec"
)

// AxisRole identifies the stepping rule an axis follows. Roles are
// fixed at configuration time; the motion core dispatches on them with
// a plain switch rather than an interface.
type AxisRole uint8

const (
	// RoleLinear is a cartesian axis driven directly by one coordinate.
	RoleLinear AxisRole = iota

	// RoleDeltaTower is a delta carriage whose height follows the
	// effector through an arm of fixed length.
	RoleDeltaTower

	// RoleExtruder advances filament at the requested extrusion rate.
	RoleExtruder
)

func (r AxisRole) String() string {
	switch r {
	case RoleLinear:
		return "linear"
	case RoleDeltaTower:
		return "tower"
	case RoleExtruder:
		return "extruder"
	default:
		return "unknown"
	}
}

// Axis describes one mechanical axis of the machine.
type Axis struct {
	Name       string
	Role       AxisRole
	StepsPerMM float64

	// Coord is the cartesian coordinate this axis tracks: 0..2 for
	// RoleLinear, 3 for RoleExtruder. Unused for towers.
	Coord int

	// Tower geometry (RoleDeltaTower only).
	TowerX, TowerY float64
	ArmLen         float64

	// Endstop is optional; nil means the axis has no switch.
	Endstop *endstop.Endstop

	// Driver pin assignments.
	StepPin, DirPin       int
	InvertStep, InvertDir bool
}

// Machine is the full kinematic description: an ordered, fixed list of
// axes. The order is the order steppers are built in for every move.
type Machine struct {
	Type string
	Axes []Axis
}

// NumAxes returns the configured axis count.
func (m *Machine) NumAxes() int {
	return len(m.Axes)
}

// Validate checks the axis list for configuration mistakes.
func (m *Machine) Validate() error {
	if len(m.Axes) == 0 {
		return errors.KinematicsError("machine has no axes")
	}
	towers := 0
	for i, a := range m.Axes {
		if a.StepsPerMM <= 0 {
			return errors.KinematicsError(fmt.Sprintf("axis %s: steps_per_mm must be positive", a.Name))
		}
		switch a.Role {
		case RoleLinear:
			if a.Coord < 0 || a.Coord > 2 {
				return errors.KinematicsBoundsError(a.Name, float64(a.Coord), 0, 2)
			}
		case RoleDeltaTower:
			towers++
			if a.ArmLen <= 0 {
				return errors.KinematicsError(fmt.Sprintf("axis %s: arm length must be positive", a.Name))
			}
			// An arm shorter than the tower radius can never reach the
			// bed center; every carriage height would be undefined.
			if a.ArmLen <= math.Hypot(a.TowerX, a.TowerY) {
				return errors.KinematicsCalcError(a.Name, "arm cannot reach the bed center")
			}
		case RoleExtruder:
			// nothing beyond steps_per_mm
		default:
			return errors.KinematicsError(fmt.Sprintf("axis %d: unknown role", i))
		}
	}
	if towers != 0 && towers != 3 {
		return errors.KinematicsError(fmt.Sprintf("delta machines need exactly 3 towers, have %d", towers))
	}
	return nil
}

// CartesianFromMechanical recovers the cartesian position (x, y, z, e)
// from the per-axis step counts. Linear and extruder axes divide out
// their step scale; three towers are resolved by trilateration.
func (m *Machine) CartesianFromMechanical(cur []int) vec.Vec4 {
	var out vec.Vec4
	var spheres []sphere
	for i, a := range m.Axes {
		pos := float64(cur[i]) / a.StepsPerMM
		switch a.Role {
		case RoleLinear, RoleExtruder:
			out[a.Coord] = pos
		case RoleDeltaTower:
			spheres = append(spheres, sphere{
				center: vec.Vec3{a.TowerX, a.TowerY, pos},
				r2:     a.ArmLen * a.ArmLen,
			})
		}
	}
	if len(spheres) == 3 {
		p := trilaterate(spheres[0], spheres[1], spheres[2])
		out[0], out[1], out[2] = p[0], p[1], p[2]
	}
	return out
}

// MechanicalFromCartesian maps a cartesian position to per-axis step
// counts (rounded toward zero), the inverse of CartesianFromMechanical.
func (m *Machine) MechanicalFromCartesian(pos vec.Vec4) []int {
	out := make([]int, len(m.Axes))
	for i, a := range m.Axes {
		var mech float64
		switch a.Role {
		case RoleLinear, RoleExtruder:
			mech = pos[a.Coord]
		case RoleDeltaTower:
			mech = CarriageHeight(pos.XYZ(), a.TowerX, a.TowerY, a.ArmLen)
		}
		out[i] = int(mech * a.StepsPerMM)
	}
	return out
}
