package morphology

import (
	"fmt"
	"sort"
	"strings"

	protoio "twocarrier/internal/io"
	"twocarrier/internal/scapeid"
)

// Morphology defines allowed sensor/actuator combinations for a scape.
type Morphology interface {
	Name() string
	Sensors() []string
	Actuators() []string
	Compatible(scape string) bool
}

func EnsureScapeCompatibility(scapeName string) error {
	return EnsureScapeCompatibilityWithProfile(scapeName, "")
}

func EnsureScapeCompatibilityWithProfile(scapeName, profile string) error {
	m, err := ConstructMorphology(scapeName, profile)
	if err != nil {
		return err
	}
	return ValidateRegisteredComponents(scapeid.Normalize(scapeName), m)
}

func ConstructMorphology(scapeName, profile string) (Morphology, error) {
	scapeName = scapeid.Normalize(scapeName)
	profile = normalizeMorphologyProfile(profile)
	switch scapeName {
	case "two-carrier":
		switch profile {
		case "", "default", "pose", "full":
			return TwoCarrierMorphology{}, nil
		case "planar", "position":
			return TwoCarrierPlanarMorphology{}, nil
		default:
			return nil, fmt.Errorf("unsupported two-carrier morphology profile: %s", profile)
		}
	default:
		return nil, fmt.Errorf("unsupported scape morphology: %s", scapeName)
	}
}

func AvailableMorphologyProfiles(scapeName string) []string {
	var profiles []string
	switch scapeid.Normalize(scapeName) {
	case "two-carrier":
		profiles = []string{"default", "planar"}
	}
	sort.Strings(profiles)
	return profiles
}

// EnsureIOCompatibility checks an agent's declared sensor and actuator ids
// against the registry for scapeName.
func EnsureIOCompatibility(scapeName, agentID string, sensorIDs, actuatorIDs []string) error {
	scapeName = scapeid.Normalize(scapeName)
	for _, sensorName := range sensorIDs {
		if _, err := protoio.ResolveSensor(sensorName, scapeName); err != nil {
			return fmt.Errorf("agent %s sensor %s incompatible with scape %s: %w", agentID, sensorName, scapeName, err)
		}
	}
	for _, actuatorName := range actuatorIDs {
		if _, err := protoio.ResolveActuator(actuatorName, scapeName); err != nil {
			return fmt.Errorf("agent %s actuator %s incompatible with scape %s: %w", agentID, actuatorName, scapeName, err)
		}
	}
	return nil
}

func ValidateRegisteredComponents(scapeName string, m Morphology) error {
	if !m.Compatible(scapeName) {
		return fmt.Errorf("morphology %s incompatible with scape %s", m.Name(), scapeName)
	}
	for _, sensorName := range m.Sensors() {
		if _, err := protoio.ResolveSensor(sensorName, scapeName); err != nil {
			return fmt.Errorf("resolve sensor %s: %w", sensorName, err)
		}
	}
	for _, actuatorName := range m.Actuators() {
		if _, err := protoio.ResolveActuator(actuatorName, scapeName); err != nil {
			return fmt.Errorf("resolve actuator %s: %w", actuatorName, err)
		}
	}
	return nil
}

func normalizeMorphologyProfile(raw string) string {
	profile := strings.TrimSpace(strings.ToLower(raw))
	profile = strings.ReplaceAll(profile, "-", "_")
	return profile
}
