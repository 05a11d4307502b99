package morphology

import protoio "twocarrier/internal/io"

// TwoCarrierMorphology senses the full rod pose and drives both action channels.
type TwoCarrierMorphology struct{}

func (TwoCarrierMorphology) Name() string {
	return "two-carrier-v1"
}

func (TwoCarrierMorphology) Sensors() []string {
	return []string{
		protoio.TwoCarrierPoseXSensorName,
		protoio.TwoCarrierPoseYSensorName,
		protoio.TwoCarrierPoseThetaSensorName,
	}
}

func (TwoCarrierMorphology) Actuators() []string {
	return []string{protoio.TwoCarrierAction0ActuatorName, protoio.TwoCarrierAction1ActuatorName}
}

func (TwoCarrierMorphology) Compatible(scape string) bool {
	return scape == "two-carrier"
}

// TwoCarrierPlanarMorphology drops the heading sensor.
type TwoCarrierPlanarMorphology struct{}

func (TwoCarrierPlanarMorphology) Name() string {
	return "two-carrier-planar-v1"
}

func (TwoCarrierPlanarMorphology) Sensors() []string {
	return []string{protoio.TwoCarrierPoseXSensorName, protoio.TwoCarrierPoseYSensorName}
}

func (TwoCarrierPlanarMorphology) Actuators() []string {
	return TwoCarrierMorphology{}.Actuators()
}

func (TwoCarrierPlanarMorphology) Compatible(scape string) bool {
	return scape == "two-carrier"
}
