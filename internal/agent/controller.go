package agent

import (
	"context"
	"fmt"
	"math"

	protoio "twocarrier/internal/io"
	"twocarrier/internal/morphology"
	"twocarrier/internal/scapeid"
)

// poseInputIndex maps a pose sensor to its slot in the [x, y, theta]
// observation a step-driven scape passes to RunStep.
var poseInputIndex = map[string]int{
	protoio.TwoCarrierPoseXSensorName:     0,
	protoio.TwoCarrierPoseYSensorName:     1,
	protoio.TwoCarrierPoseThetaSensorName: 2,
}

// Controller is a single-layer tanh controller wired to registered io
// components. Outputs are written to actuators in morphology order.
type Controller struct {
	id          string
	morphology  string
	sensorIDs   []string
	actuatorIDs []string
	sensors     map[string]protoio.Sensor
	actuators   map[string]protoio.Actuator
	// weights has one row per actuator and one column per sensor.
	weights [][]float64
	bias    []float64
}

type ControllerConfig struct {
	ID    string
	Scape string
	// Profile selects the morphology; empty means the scape default.
	Profile string
	Weights [][]float64
	Bias    []float64
}

func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	scapeName := scapeid.Normalize(cfg.Scape)
	m, err := morphology.ConstructMorphology(scapeName, cfg.Profile)
	if err != nil {
		return nil, err
	}
	if err := morphology.ValidateRegisteredComponents(scapeName, m); err != nil {
		return nil, err
	}

	sensorIDs := m.Sensors()
	actuatorIDs := m.Actuators()
	sensors := make(map[string]protoio.Sensor, len(sensorIDs))
	for _, name := range sensorIDs {
		if _, ok := poseInputIndex[name]; !ok {
			return nil, fmt.Errorf("sensor %s has no observation slot", name)
		}
		sensor, err := protoio.ResolveSensor(name, scapeName)
		if err != nil {
			return nil, err
		}
		sensors[name] = sensor
	}
	actuators := make(map[string]protoio.Actuator, len(actuatorIDs))
	for _, name := range actuatorIDs {
		actuator, err := protoio.ResolveActuator(name, scapeName)
		if err != nil {
			return nil, err
		}
		actuators[name] = actuator
	}

	weights := cfg.Weights
	if weights == nil {
		weights = make([][]float64, len(actuatorIDs))
		for i := range weights {
			weights[i] = make([]float64, len(sensorIDs))
		}
	}
	if len(weights) != len(actuatorIDs) {
		return nil, fmt.Errorf("weight rows mismatch: got=%d want=%d", len(weights), len(actuatorIDs))
	}
	for i, row := range weights {
		if len(row) != len(sensorIDs) {
			return nil, fmt.Errorf("weight row %d size mismatch: got=%d want=%d", i, len(row), len(sensorIDs))
		}
	}
	bias := cfg.Bias
	if bias == nil {
		bias = make([]float64, len(actuatorIDs))
	}
	if len(bias) != len(actuatorIDs) {
		return nil, fmt.Errorf("bias size mismatch: got=%d want=%d", len(bias), len(actuatorIDs))
	}

	return &Controller{
		id:          cfg.ID,
		morphology:  m.Name(),
		sensorIDs:   sensorIDs,
		actuatorIDs: actuatorIDs,
		sensors:     sensors,
		actuators:   actuators,
		weights:     cloneRows(weights),
		bias:        append([]float64(nil), bias...),
	}, nil
}

// HoldBias returns output biases that decode to the left/right action pair,
// which leaves a level rod in place.
func HoldBias() []float64 {
	return []float64{math.Atanh(0.25), math.Atanh(0.75)}
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Morphology() string {
	return c.morphology
}

func (c *Controller) RegisteredSensor(id string) (protoio.Sensor, bool) {
	s, ok := c.sensors[id]
	return s, ok
}

func (c *Controller) RegisteredActuator(id string) (protoio.Actuator, bool) {
	a, ok := c.actuators[id]
	return a, ok
}

func (c *Controller) Tick(ctx context.Context) ([]float64, error) {
	inputs := make([]float64, 0, len(c.sensorIDs))
	for _, sensorID := range c.sensorIDs {
		values, err := c.sensors[sensorID].Read(ctx)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, values...)
	}
	return c.execute(ctx, inputs)
}

// RunStep takes the full [x, y, theta] observation and picks the slots the
// morphology senses.
func (c *Controller) RunStep(ctx context.Context, observation []float64) ([]float64, error) {
	inputs := make([]float64, len(c.sensorIDs))
	for i, sensorID := range c.sensorIDs {
		slot := poseInputIndex[sensorID]
		if slot >= len(observation) {
			return nil, fmt.Errorf("observation too short for %s: got=%d", sensorID, len(observation))
		}
		inputs[i] = observation[slot]
	}
	return c.execute(ctx, inputs)
}

func (c *Controller) execute(ctx context.Context, inputs []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) != len(c.sensorIDs) {
		return nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(inputs), len(c.sensorIDs))
	}

	outputs := make([]float64, len(c.actuatorIDs))
	for i, row := range c.weights {
		total := c.bias[i]
		for j, w := range row {
			total += w * inputs[j]
		}
		outputs[i] = math.Tanh(total)
	}

	chunks, err := splitOutputsForActuators(outputs, len(c.actuatorIDs))
	if err != nil {
		return nil, err
	}
	for i, actuatorID := range c.actuatorIDs {
		if err := c.actuators[actuatorID].Write(ctx, chunks[i]); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func splitOutputsForActuators(outputs []float64, actuatorCount int) ([][]float64, error) {
	if actuatorCount <= 0 {
		return nil, fmt.Errorf("actuator count must be > 0")
	}
	if actuatorCount == 1 {
		return [][]float64{append([]float64(nil), outputs...)}, nil
	}
	if len(outputs)%actuatorCount != 0 {
		return nil, fmt.Errorf("actuator/output shape mismatch: outputs=%d actuators=%d", len(outputs), actuatorCount)
	}
	chunkSize := len(outputs) / actuatorCount
	chunks := make([][]float64, 0, actuatorCount)
	for i := 0; i < actuatorCount; i++ {
		start := i * chunkSize
		chunks = append(chunks, append([]float64(nil), outputs[start:start+chunkSize]...))
	}
	return chunks, nil
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
