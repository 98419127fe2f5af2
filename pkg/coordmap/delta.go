// Linear delta geometry: tower placement and the forward/inverse maps
// between carriage heights and the effector position.

package coordmap

import (
	"math"

	"printipi-go-migration/pkg/vec"
)

// Default tower angles, degrees. Tower A rear-left, B rear-right, C front.
var defaultTowerAngles = [3]float64{210, 330, 90}

// DeltaConfig describes a three-tower linear delta machine.
type DeltaConfig struct {
	Radius             float64 // distance from center to each tower
	ArmLen             float64 // diagonal arm length, same for all towers
	StepsPerMM         float64 // carriage steps per mm of tower travel
	ExtruderStepsPerMM float64
}

// NewDelta builds the standard 3-tower + extruder machine.
func NewDelta(cfg DeltaConfig) *Machine {
	m := &Machine{Type: "delta"}
	names := [3]string{"a", "b", "c"}
	for i := 0; i < 3; i++ {
		angle := defaultTowerAngles[i] * math.Pi / 180
		m.Axes = append(m.Axes, Axis{
			Name:       names[i],
			Role:       RoleDeltaTower,
			StepsPerMM: cfg.StepsPerMM,
			TowerX:     cfg.Radius * math.Cos(angle),
			TowerY:     cfg.Radius * math.Sin(angle),
			ArmLen:     cfg.ArmLen,
		})
	}
	m.Axes = append(m.Axes, Axis{
		Name:       "e",
		Role:       RoleExtruder,
		StepsPerMM: cfg.ExtruderStepsPerMM,
		Coord:      3,
	})
	return m
}

// CarriageHeight returns the tower carriage height that places the
// effector at p for a tower at (tx, ty) with the given arm length.
// Returns NaN when p is out of the arm's reach.
func CarriageHeight(p vec.Vec3, tx, ty, armLen float64) float64 {
	dx := p[0] - tx
	dy := p[1] - ty
	return p[2] + math.Sqrt(armLen*armLen-dx*dx-dy*dy)
}

// sphere is one arm constraint: the effector lies on a sphere of
// radius arm length centered at the carriage.
type sphere struct {
	center vec.Vec3
	r2     float64
}

// trilaterate intersects the three arm spheres and returns the lower
// of the two intersection points (the effector hangs below the
// carriages). Degenerate geometry yields NaN components.
func trilaterate(s1, s2, s3 sphere) vec.Vec3 {
	// Orthonormal frame with origin at s1.
	t21 := s2.center.Sub(s1.center)
	t31 := s3.center.Sub(s1.center)
	d := t21.Mag()
	ex := t21.Scale(1 / d)
	i := ex.Dot(t31)
	ey := t31.Sub(ex.Scale(i)).Norm()
	ez := ex.Cross(ey)
	j := ey.Dot(t31)

	// Solve in the local frame. Two intersection points exist; the
	// effector is the one hanging below the carriages.
	x := (s1.r2 - s2.r2 + d*d) / (2 * d)
	y := (s1.r2-s3.r2+i*i+j*j)/(2*j) - i*x/j
	z := math.Sqrt(s1.r2 - x*x - y*y)

	base := s1.center.Add(ex.Scale(x)).Add(ey.Scale(y))
	above := base.Add(ez.Scale(z))
	below := base.Sub(ez.Scale(z))
	if below[2] < above[2] {
		return below
	}
	return above
}
