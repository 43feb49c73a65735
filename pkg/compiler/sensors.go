package compiler

import "fmt"

// Register names an operand slot of the target machine.
type Register string

const (
	R1 Register = "R1"
	R2 Register = "R2"
)

// Sensor is one of the three externally driven channels. Reading it yields
// the current value; writing its register drives the treadmill.
type Sensor int

const (
	SensorVelocidade Sensor = iota
	SensorTempo
	SensorInclinacao
)

var sensorNames = [...]string{
	SensorVelocidade: "velocidade",
	SensorTempo:      "tempo",
	SensorInclinacao: "inclinacao",
}

var channelRegisters = [...]Register{
	SensorVelocidade: "VELOCIDADE",
	SensorTempo:      "TEMPO",
	SensorInclinacao: "INCLINACAO",
}

// Valid reports whether s names one of the three sensors.
func (s Sensor) Valid() bool {
	return s >= 0 && int(s) < len(sensorNames)
}

// String returns the reserved identifier of the sensor.
func (s Sensor) String() string {
	if s.Valid() {
		return sensorNames[s]
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// Channel returns the output register driven by the sensor, or "" for an
// invalid sensor.
func (s Sensor) Channel() Register {
	if !s.Valid() {
		return ""
	}
	return channelRegisters[s]
}

// LookupSensor maps a reserved identifier to its sensor.
func LookupSensor(name string) (Sensor, bool) {
	for i, n := range sensorNames {
		if n == name {
			return Sensor(i), true
		}
	}
	return 0, false
}

// IsReserved reports whether name is one of the sensor identifiers.
func IsReserved(name string) bool {
	_, ok := LookupSensor(name)
	return ok
}
