// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package comsol

import "strings"

// PhysicsInfo describes one physics interface the engine can attach.
type PhysicsInfo struct {
	// InterfaceID is the engine's physics interface identifier.
	InterfaceID string

	// DefaultTag is the conventional node tag for the interface.
	DefaultTag string
}

// physicsCatalog maps display names of physics interfaces to their
// engine identifiers and conventional tags.
var physicsCatalog = map[string]PhysicsInfo{
	// Fluid flow
	"Laminar Flow":                     {"LaminarFlow", "spf"},
	"Turbulent Flow, k-e":              {"TurbulentFlowKE", "spf"},
	"Turbulent Flow, k-w":              {"TurbulentFlowKO", "spf"},
	"Rotating Machinery, Laminar Flow": {"RotatingMachineryLaminarFlow", "rml"},
	"Multiphase Flow, Level Set":       {"MultiphaseLevelSet", "mls"},
	"Two-Phase Flow, Phase Field":      {"TwoPhaseFlowPhaseField", "tpf"},

	// Heat transfer
	"Heat Transfer in Solids": {"HeatTransfer", "ht"},
	"Heat Transfer in Fluids": {"HeatTransferFluids", "ht"},
	"Nonisothermal Flow":      {"NonisothermalFlow", "nitf"},

	// Structural mechanics
	"Solid Mechanics":    {"SolidMechanics", "solid"},
	"Shell":              {"Shell", "shell"},
	"Beam":               {"Beam", "beam"},
	"Multibody Dynamics": {"MultibodyDynamics", "mbd"},

	// AC/DC
	"Magnetic Fields":              {"MagneticFields", "mf"},
	"Electric Currents":            {"ElectricCurrents", "ec"},
	"Electrostatics":               {"Electrostatics", "es"},
	"Magnetic and Electric Fields": {"MagneticElectricFields", "mef"},

	// RF / optics
	"Electromagnetic Waves, Frequency Domain": {"ElectromagneticWavesFrequencyDomain", "ewfd"},
	"Electromagnetic Waves, Transient":        {"ElectromagneticWavesTransient", "ewft"},
	"Ray Optics":                              {"RayOptics", "ro"},

	// Chemical
	"Transport of Diluted Species":      {"TransportDilutedSpecies", "tds"},
	"Transport of Concentrated Species": {"TransportConcentratedSpecies", "tcs"},

	// Other
	"Electrochemistry":     {"Electrochemistry", "echem"},
	"Plasma":               {"Plasma", "plas"},
	"Pressure Acoustics":   {"PressureAcoustics", "acpr"},
	"Coefficient Form PDE": {"CoefficientFormPDE", "c"},
}

// LookupPhysics resolves a physics interface by name.
//
// Description:
//
//	Tries an exact display-name match, then a case-insensitive
//	display-name match, then an exact interface-ID match. When nothing
//	matches, the name is passed through as the interface ID with an
//	empty default tag so the engine can reject it with its own error.
//
// Inputs:
//
//	name - Display name ("Laminar Flow") or interface ID ("LaminarFlow").
//
// Outputs:
//
//	PhysicsInfo - The resolved interface info (or raw fallback).
//	bool - True if the name matched the catalogue.
func LookupPhysics(name string) (PhysicsInfo, bool) {
	if info, ok := physicsCatalog[name]; ok {
		return info, true
	}

	for display, info := range physicsCatalog {
		if strings.EqualFold(display, name) {
			return info, true
		}
	}

	for _, info := range physicsCatalog {
		if info.InterfaceID == name {
			return info, true
		}
	}

	return PhysicsInfo{InterfaceID: name}, false
}

// PhysicsNames returns the catalogue's display names, unordered.
func PhysicsNames() []string {
	names := make([]string, 0, len(physicsCatalog))
	for name := range physicsCatalog {
		names = append(names, name)
	}
	return names
}
