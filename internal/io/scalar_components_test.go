package io

import (
	"context"
	"testing"
)

func TestScalarInputSensor(t *testing.T) {
	s := NewScalarInputSensor(TwoCarrierPoseXSensorName, 0.25)
	values, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(values) != 1 || values[0] != 0.25 {
		t.Fatalf("unexpected sensor values: %+v", values)
	}

	s.Set(-1.5)
	values, err = s.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if values[0] != -1.5 {
		t.Fatalf("unexpected updated value: %f", values[0])
	}
	if s.Name() != TwoCarrierPoseXSensorName {
		t.Fatalf("unexpected sensor name: %s", s.Name())
	}
}

func TestScalarOutputActuator(t *testing.T) {
	a := NewScalarOutputActuator(TwoCarrierAction0ActuatorName)
	if err := a.Write(context.Background(), []float64{0.9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	last := a.Last()
	if len(last) != 1 || last[0] != 0.9 {
		t.Fatalf("unexpected actuator last output: %+v", last)
	}
	last[0] = 0
	if a.Last()[0] != 0.9 {
		t.Fatal("expected Last to return a copy")
	}
	if err := a.Write(context.Background(), nil); err == nil {
		t.Fatal("expected empty write to fail")
	}
}

func TestTwoCarrierComponentsRegistered(t *testing.T) {
	for _, name := range []string{
		TwoCarrierPoseXSensorName,
		TwoCarrierPoseYSensorName,
		TwoCarrierPoseThetaSensorName,
	} {
		sensor, err := ResolveSensor(name, "two-carrier")
		if err != nil {
			t.Fatalf("resolve sensor %s: %v", name, err)
		}
		if sensor.Name() != name {
			t.Fatalf("unexpected sensor name: %s", sensor.Name())
		}
		if _, ok := sensor.(ScalarSensorSetter); !ok {
			t.Fatalf("sensor %s does not support scalar set", name)
		}
	}

	for _, name := range []string{TwoCarrierAction0ActuatorName, TwoCarrierAction1ActuatorName} {
		actuator, err := ResolveActuator(name, "two-carrier")
		if err != nil {
			t.Fatalf("resolve actuator %s: %v", name, err)
		}
		if _, ok := actuator.(SnapshotActuator); !ok {
			t.Fatalf("actuator %s does not expose snapshots", name)
		}
	}
}
