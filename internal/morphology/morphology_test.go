package morphology

import (
	"strings"
	"testing"

	protoio "twocarrier/internal/io"
)

func TestTwoCarrierMorphologyCompatibility(t *testing.T) {
	m := TwoCarrierMorphology{}
	if !m.Compatible("two-carrier") {
		t.Fatal("expected two-carrier to be compatible")
	}
	if m.Compatible("cart-pole") {
		t.Fatal("expected cart-pole to be incompatible")
	}
	if len(m.Sensors()) != 3 || len(m.Actuators()) != 2 {
		t.Fatalf("unexpected io surface: sensors=%v actuators=%v", m.Sensors(), m.Actuators())
	}
}

func TestEnsureScapeCompatibilityTwoCarrier(t *testing.T) {
	if err := EnsureScapeCompatibility("two-carrier"); err != nil {
		t.Fatalf("ensure compatibility: %v", err)
	}
	if err := EnsureScapeCompatibilityWithProfile("scape_two_carrier", "planar"); err != nil {
		t.Fatalf("ensure planar compatibility: %v", err)
	}
	if err := EnsureScapeCompatibility("cart-pole"); err == nil {
		t.Fatal("expected unknown scape error")
	}
}

func TestConstructMorphologyProfiles(t *testing.T) {
	m, err := ConstructMorphology("two-carrier", "Planar")
	if err != nil {
		t.Fatalf("construct planar: %v", err)
	}
	if m.Name() != "two-carrier-planar-v1" {
		t.Fatalf("unexpected morphology: %s", m.Name())
	}
	if _, err := ConstructMorphology("two-carrier", "wheels"); err == nil {
		t.Fatal("expected unsupported profile error")
	}
	profiles := AvailableMorphologyProfiles("two_carrier")
	if len(profiles) != 2 || profiles[0] != "default" || profiles[1] != "planar" {
		t.Fatalf("unexpected profiles: %v", profiles)
	}
}

func TestEnsureIOCompatibility(t *testing.T) {
	m := TwoCarrierMorphology{}
	if err := EnsureIOCompatibility("two-carrier", "a-ok", m.Sensors(), m.Actuators()); err != nil {
		t.Fatalf("expected compatibility, got err=%v", err)
	}

	err := EnsureIOCompatibility("two-carrier", "a-bad", []string{"cart_pole_position"}, m.Actuators())
	if err == nil {
		t.Fatal("expected incompatible sensor error")
	}
	if !strings.Contains(err.Error(), "incompatible") {
		t.Fatalf("expected incompatible in error, got %v", err)
	}

	err = EnsureIOCompatibility("cart-pole", "a-foreign", nil, []string{protoio.TwoCarrierAction0ActuatorName})
	if err == nil {
		t.Fatal("expected foreign scape actuator error")
	}
}
