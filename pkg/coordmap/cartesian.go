package coordmap

// CartesianConfig describes a standard XYZ + extruder machine.
type CartesianConfig struct {
	StepsPerMM         [3]float64 // X, Y, Z
	ExtruderStepsPerMM float64
}

// NewCartesian builds the standard 4-axis cartesian machine.
func NewCartesian(cfg CartesianConfig) *Machine {
	m := &Machine{Type: "cartesian"}
	names := [3]string{"x", "y", "z"}
	for i := 0; i < 3; i++ {
		m.Axes = append(m.Axes, Axis{
			Name:       names[i],
			Role:       RoleLinear,
			StepsPerMM: cfg.StepsPerMM[i],
			Coord:      i,
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
