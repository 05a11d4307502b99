package io

import "context"

type Sensor interface {
	Name() string
	Read(ctx context.Context) ([]float64, error)
}

// ScalarSensorSetter is an optional sensor capability used by scapes that
// push one observation component per sensor.
type ScalarSensorSetter interface {
	Set(value float64)
}

type Actuator interface {
	Name() string
	Write(ctx context.Context, values []float64) error
}

// SnapshotActuator exposes the most recent actuator output to the scape.
type SnapshotActuator interface {
	Last() []float64
}
