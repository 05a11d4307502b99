package io

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"twocarrier/internal/scapeid"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrSensorExists     = errors.New("sensor already registered")
	ErrSensorNotFound   = errors.New("sensor not found")
	ErrActuatorExists   = errors.New("actuator already registered")
	ErrActuatorNotFound = errors.New("actuator not found")
	ErrVersionMismatch  = errors.New("registry version mismatch")
	ErrIncompatible     = errors.New("component incompatible with scape")
)

type CompatibilityFn func(scape string) error

type SensorFactory func() Sensor

type ActuatorFactory func() Actuator

type SensorSpec struct {
	Name          string
	Factory       SensorFactory
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

type ActuatorSpec struct {
	Name          string
	Factory       ActuatorFactory
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

// componentEntry is one registered factory with the metadata resolution checks.
type componentEntry[T any] struct {
	schemaVersion int
	codecVersion  int
	compatible    CompatibilityFn
	factory       func() T
}

// componentTable holds one kind of io component keyed by canonical name.
type componentTable[T any] struct {
	kind        string
	errExists   error
	errNotFound error

	mu sync.RWMutex
	m  map[string]componentEntry[T]
}

func newComponentTable[T any](kind string, errExists, errNotFound error) *componentTable[T] {
	return &componentTable[T]{
		kind:        kind,
		errExists:   errExists,
		errNotFound: errNotFound,
		m:           make(map[string]componentEntry[T]),
	}
}

var (
	sensors   = newComponentTable[Sensor]("sensor", ErrSensorExists, ErrSensorNotFound)
	actuators = newComponentTable[Actuator]("actuator", ErrActuatorExists, ErrActuatorNotFound)
)

// canonicalComponentName is the only key form stored or looked up.
func canonicalComponentName(name string) string {
	return strings.TrimSpace(name)
}

func (t *componentTable[T]) register(name string, entry componentEntry[T]) error {
	key := canonicalComponentName(name)
	if key == "" {
		return fmt.Errorf("%s name is required", t.kind)
	}
	if entry.factory == nil {
		return fmt.Errorf("%s factory is required", t.kind)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, entry.schemaVersion, entry.codecVersion)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.m[key]; exists {
		return fmt.Errorf("%w: %s", t.errExists, key)
	}
	t.m[key] = entry
	return nil
}

func (t *componentTable[T]) lookup(name string) (componentEntry[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.m[canonicalComponentName(name)]
	return entry, ok
}

func (t *componentTable[T]) check(name string, entry componentEntry[T], scape string) error {
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: %s", ErrVersionMismatch, name)
	}
	if entry.compatible != nil {
		if err := entry.compatible(scape); err != nil {
			return fmt.Errorf("%w: %s=%s: %v", ErrIncompatible, t.kind, name, err)
		}
	}
	return nil
}

func (t *componentTable[T]) resolve(name, scape string) (T, error) {
	var zero T
	entry, ok := t.lookup(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", t.errNotFound, name)
	}
	if err := t.check(name, entry, scapeid.Normalize(scape)); err != nil {
		return zero, err
	}
	return entry.factory(), nil
}

func (t *componentTable[T]) compatibleWith(name, scape string) bool {
	entry, ok := t.lookup(name)
	if !ok {
		return false
	}
	return t.check(name, entry, scapeid.Normalize(scape)) == nil
}

// names lists registered names, keeping only those compatible with scape
// when filter is set.
func (t *componentTable[T]) names(scape string, filter bool) []string {
	normalized := scapeid.Normalize(scape)

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.m))
	for name, entry := range t.m {
		if filter && t.check(name, entry, normalized) != nil {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *componentTable[T]) reset() {
	t.mu.Lock()
	t.m = make(map[string]componentEntry[T])
	t.mu.Unlock()
}

func RegisterSensor(name string, factory SensorFactory) error {
	return RegisterSensorWithSpec(SensorSpec{
		Name:          name,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterSensorWithSpec(spec SensorSpec) error {
	entry := componentEntry[Sensor]{
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
		compatible:    spec.Compatible,
		factory:       spec.Factory,
	}
	return sensors.register(spec.Name, entry)
}

func ResolveSensor(name, scape string) (Sensor, error) {
	return sensors.resolve(name, scape)
}

func SensorCompatibleWithScape(name, scape string) bool {
	return sensors.compatibleWith(name, scape)
}

func ListSensorsForScape(scape string) []string {
	return sensors.names(scape, true)
}

func ListSensors() []string {
	return sensors.names("", false)
}

func RegisterActuator(name string, factory ActuatorFactory) error {
	return RegisterActuatorWithSpec(ActuatorSpec{
		Name:          name,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterActuatorWithSpec(spec ActuatorSpec) error {
	entry := componentEntry[Actuator]{
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
		compatible:    spec.Compatible,
		factory:       spec.Factory,
	}
	return actuators.register(spec.Name, entry)
}

func ResolveActuator(name, scape string) (Actuator, error) {
	return actuators.resolve(name, scape)
}

func ActuatorCompatibleWithScape(name, scape string) bool {
	return actuators.compatibleWith(name, scape)
}

func ListActuatorsForScape(scape string) []string {
	return actuators.names(scape, true)
}

func ListActuators() []string {
	return actuators.names("", false)
}

func resetRegistriesForTests() {
	sensors.reset()
	actuators.reset()
	initializeDefaultComponents()
}
