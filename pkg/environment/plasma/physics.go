package plasma

import "math"

const (
	mu0 = 4 * math.Pi * 1e-7
)

// Machine holds the fixed geometry of a tokamak.
type Machine struct {
	MajorRadius   float64 // m
	MinorRadius   float64 // m
	ToroidalB     float64 // T
	Elongation    float64
	Triangularity float64
	IonMass       float64 // amu
}

var ITER = Machine{
	MajorRadius:   6.2,
	MinorRadius:   2.0,
	ToroidalB:     5.3,
	Elongation:    1.7,
	Triangularity: 0.33,
	IonMass:       2.5,
}

func (m Machine) InverseAspectRatio() float64 {
	return m.MinorRadius / m.MajorRadius
}

// Volume is the plasma volume in m^3.
func (m Machine) Volume() float64 {
	return 2 * math.Pi * math.Pi * m.MajorRadius * m.MinorRadius * m.MinorRadius * m.Elongation
}

// GreenwaldDensity returns the density limit in 1e19 m^-3 for a plasma current in MA.
func (m Machine) GreenwaldDensity(ip float64) float64 {
	return 10 * ip / (math.Pi * m.MinorRadius * m.MinorRadius)
}

// Q95 is the edge safety factor from the ITER Physics Basis shaping formula.
func (m Machine) Q95(ip float64) float64 {
	if ip <= 0 {
		return math.Inf(1)
	}
	eps := m.InverseAspectRatio()
	k2 := m.Elongation * m.Elongation
	d := m.Triangularity
	shape := (1 + k2*(1+2*d*d-1.2*d*d*d)) / 2
	aspect := (1.17 - 0.65*eps) / math.Pow(1-eps*eps, 2)
	return 5 * m.MinorRadius * m.MinorRadius * m.ToroidalB / (m.MajorRadius * ip) * shape * aspect
}

// ConfinementTime is the IPB98(y,2) thermal energy confinement time in seconds.
// ip in MA, heating in MW, density in 1e19 m^-3.
func (m Machine) ConfinementTime(ip, heating, density float64) float64 {
	heating = math.Max(heating, 1)
	density = math.Max(density, 0.1)
	ip = math.Max(ip, 0.1)
	return 0.0562 *
		math.Pow(ip, 0.93) *
		math.Pow(m.ToroidalB, 0.15) *
		math.Pow(heating, -0.69) *
		math.Pow(density, 0.41) *
		math.Pow(m.IonMass, 0.19) *
		math.Pow(m.MajorRadius, 1.97) *
		math.Pow(m.InverseAspectRatio(), 0.58) *
		math.Pow(m.Elongation, 0.78)
}

// BetaN is the normalized beta for stored energy in MJ and current in MA.
func (m Machine) BetaN(storedEnergy, ip float64) float64 {
	if ip <= 0 {
		return 0
	}
	pressure := (2.0 / 3.0) * storedEnergy * 1e6 / m.Volume()
	betaT := 100 * 2 * mu0 * pressure / (m.ToroidalB * m.ToroidalB)
	return betaT * m.MinorRadius * m.ToroidalB / ip
}

// plasmaState is the 0-D state advanced by the surrogate model.
type plasmaState struct {
	Time         float64 // s
	Ip           float64 // MA
	StoredEnergy float64 // MJ
	Density      float64 // 1e19 m^-3
	FusionPower  float64 // MW
	OhmicPower   float64 // MW
	AuxPower     float64 // MW
	Q95          float64
	BetaN        float64
}

type transportModel struct {
	machine Machine
	// confinementFactor is H98, the enhancement over the IPB98(y,2) scaling
	// that hybrid scenarios operate at.
	confinementFactor float64
	greenwaldFraction float64
	ohmicCoefficient  float64 // MW / MA^2
	fusionCoefficient float64 // MW / MJ^2
	alphaFraction     float64
	rampRate          float64 // MA/s
	substeps          int
}

func newTransportModel(m Machine) *transportModel {
	return &transportModel{
		machine:           m,
		confinementFactor: 1.7,
		greenwaldFraction: 0.85,
		ohmicCoefficient:  0.01,
		fusionCoefficient: 0.004,
		alphaFraction:     0.2,
		rampRate:          0.2,
		substeps:          10,
	}
}

// advance integrates the energy balance over dt seconds toward the requested
// current with the given auxiliary heating.
func (t *transportModel) advance(s plasmaState, ipRequest float64, auxPower float64, dt float64) plasmaState {
	h := dt / float64(t.substeps)
	for i := 0; i < t.substeps; i++ {
		maxDelta := t.rampRate * h
		delta := math.Max(-maxDelta, math.Min(maxDelta, ipRequest-s.Ip))
		s.Ip += delta

		s.Density = t.greenwaldFraction * t.machine.GreenwaldDensity(s.Ip)
		s.OhmicPower = t.ohmicCoefficient * s.Ip * s.Ip
		s.AuxPower = auxPower
		s.FusionPower = t.fusionCoefficient * s.StoredEnergy * s.StoredEnergy

		heating := s.OhmicPower + s.AuxPower + t.alphaFraction*s.FusionPower
		tau := t.confinementFactor * t.machine.ConfinementTime(s.Ip, heating, s.Density)

		s.StoredEnergy += h * (heating - s.StoredEnergy/tau)
		if s.StoredEnergy < 0 {
			s.StoredEnergy = 0
		}
		s.Time += h
	}

	s.FusionPower = t.fusionCoefficient * s.StoredEnergy * s.StoredEnergy
	s.Q95 = t.machine.Q95(s.Ip)
	s.BetaN = t.machine.BetaN(s.StoredEnergy, s.Ip)
	return s
}

// fusionGain is Q, the ratio of fusion power to external heating.
func (s plasmaState) fusionGain() float64 {
	external := s.AuxPower + s.OhmicPower
	if external <= 0 {
		return 0
	}
	return s.FusionPower / external
}
