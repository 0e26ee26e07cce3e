// Package event defines the Event and Particle records written by the
// round-trip checks.
package event

import (
	"math"

	"github.com/hupe1980/hepio/streamer"
)

// LorentzVector is a four-momentum (px, py, pz, E).
type LorentzVector struct {
	X float64 `hep:"x"`
	Y float64 `hep:"y"`
	Z float64 `hep:"z"`
	T float64 `hep:"t"`
}

func (v LorentzVector) Px() float64 { return v.X }
func (v LorentzVector) Py() float64 { return v.Y }
func (v LorentzVector) Pz() float64 { return v.Z }
func (v LorentzVector) E() float64  { return v.T }

// Pt returns the transverse momentum.
func (v LorentzVector) Pt() float64 { return math.Hypot(v.X, v.Y) }

// P returns the magnitude of the three-momentum.
func (v LorentzVector) P() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// M2 returns the invariant mass squared.
func (v LorentzVector) M2() float64 { return v.T*v.T - (v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// M returns the invariant mass. A negative M2 yields -sqrt(-M2), as in ROOT.
func (v LorentzVector) M() float64 {
	m2 := v.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// Particle is one reconstructed particle.
type Particle struct {
	ID int32         `hep:"id"`
	P4 LorentzVector `hep:"p4"`
}

// Event owns its particles in insertion order.
type Event struct {
	Particles []Particle `hep:"particles"`
}

// Add appends a particle.
func (e *Event) Add(p Particle) {
	e.Particles = append(e.Particles, p)
}

// Len returns the number of particles.
func (e *Event) Len() int { return len(e.Particles) }

// Clear drops all particles, keeping the capacity.
func (e *Event) Clear() {
	e.Particles = e.Particles[:0]
}

// Load registers Event and its member classes in reg.
// It must be called before events are read through reg.
func Load(reg *streamer.Registry) error {
	_, err := streamer.Register[Event](reg)
	return err
}
