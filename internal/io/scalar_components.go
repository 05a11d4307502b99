package io

import (
	"context"
	"fmt"
	"sync"
)

const (
	TwoCarrierPoseXSensorName     = "two_carrier_pose_x"
	TwoCarrierPoseYSensorName     = "two_carrier_pose_y"
	TwoCarrierPoseThetaSensorName = "two_carrier_pose_theta"
	TwoCarrierAction0ActuatorName = "two_carrier_action_0"
	TwoCarrierAction1ActuatorName = "two_carrier_action_1"

	twoCarrierScape = "two-carrier"
)

type ScalarInputSensor struct {
	name string

	mu    sync.RWMutex
	value float64
}

func NewScalarInputSensor(name string, initial float64) *ScalarInputSensor {
	return &ScalarInputSensor{name: name, value: initial}
}

func (s *ScalarInputSensor) Name() string {
	return s.name
}

func (s *ScalarInputSensor) Read(_ context.Context) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []float64{s.value}, nil
}

func (s *ScalarInputSensor) Set(value float64) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
}

type ScalarOutputActuator struct {
	name string

	mu   sync.RWMutex
	last []float64
}

func NewScalarOutputActuator(name string) *ScalarOutputActuator {
	return &ScalarOutputActuator{name: name}
}

func (a *ScalarOutputActuator) Name() string {
	return a.name
}

func (a *ScalarOutputActuator) Write(_ context.Context, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("actuator %s: empty write", a.name)
	}
	a.mu.Lock()
	a.last = append([]float64(nil), values...)
	a.mu.Unlock()
	return nil
}

func (a *ScalarOutputActuator) Last() []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]float64(nil), a.last...)
}

func init() {
	initializeDefaultComponents()
}

func onlyTwoCarrier(scape string) error {
	if scape != twoCarrierScape {
		return fmt.Errorf("unsupported scape: %s", scape)
	}
	return nil
}

func initializeDefaultComponents() {
	for _, name := range []string{
		TwoCarrierPoseXSensorName,
		TwoCarrierPoseYSensorName,
		TwoCarrierPoseThetaSensorName,
	} {
		name := name
		if err := RegisterSensorWithSpec(SensorSpec{
			Name:          name,
			Factory:       func() Sensor { return NewScalarInputSensor(name, 0) },
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
			Compatible:    onlyTwoCarrier,
		}); err != nil {
			panic(err)
		}
	}

	for _, name := range []string{
		TwoCarrierAction0ActuatorName,
		TwoCarrierAction1ActuatorName,
	} {
		name := name
		if err := RegisterActuatorWithSpec(ActuatorSpec{
			Name:          name,
			Factory:       func() Actuator { return NewScalarOutputActuator(name) },
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
			Compatible:    onlyTwoCarrier,
		}); err != nil {
			panic(err)
		}
	}
}
