package arm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gwillem/potarm/pkg/hw"
)

const DefaultConfigFile = "potarm.json"

// Defaults applied by Load for fields left at zero.
const (
	DefaultTickRate    = 30   // Hz
	DefaultFilterSize  = 10   // moving-average window
	DefaultPulseMinUS  = 500  // pulse width at 0 degrees
	DefaultPulseMaxUS  = 2500 // pulse width at 180 degrees
	DefaultStepsPerRev = 4096 // 28BYJ-48 style geared stepper, half-stepping
	DefaultCadenceUS   = 2000 // stepper half-step interval
)

// Config holds the full arm configuration. It is immutable once the loop
// starts.
type Config struct {
	TickRate   int `json:"tick_rate"`
	FilterSize int `json:"filter_size"`
	PulseMinUS int `json:"pulse_min_us"`
	PulseMaxUS int `json:"pulse_max_us"`

	Joints  map[JointName]JointConfig `json:"joints"`
	Stepper StepperConfig             `json:"stepper"`

	Cameras []CameraConfig `json:"cameras,omitempty"`
	DataDir string         `json:"data_dir,omitempty"`
}

// JointConfig describes one servo joint: its ADC channel, output pin and
// mapping parameters.
type JointConfig struct {
	Channel  int     `json:"channel"`
	ServoPin int     `json:"servo_pin"`
	Invert   bool    `json:"invert,omitempty"`
	MinAngle float64 `json:"min_angle"`
	MaxAngle float64 `json:"max_angle"`
}

// StepperConfig describes the stepper base joint.
type StepperConfig struct {
	Channel     int    `json:"channel"`
	Invert      bool   `json:"invert,omitempty"`
	PhasePins   [4]int `json:"phase_pins"`
	EnablePins  []int  `json:"enable_pins,omitempty"`
	StepsPerRev int    `json:"steps_per_rev"`
	CadenceUS   int    `json:"cadence_us"`
}

// CameraConfig describes one frame source. An empty Command selects the
// built-in synthetic source; otherwise the command must write a JPEG to
// stdout.
type CameraConfig struct {
	Name    string   `json:"name"`
	Command []string `json:"command,omitempty"`
	FPS     int      `json:"fps,omitempty"`
}

// LoadConfig loads configuration from the default config file.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file and applies
// defaults for unset fields.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists.
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.FilterSize <= 0 {
		c.FilterSize = DefaultFilterSize
	}
	if c.PulseMinUS <= 0 {
		c.PulseMinUS = DefaultPulseMinUS
	}
	if c.PulseMaxUS <= 0 {
		c.PulseMaxUS = DefaultPulseMaxUS
	}
	if c.Stepper.StepsPerRev <= 0 {
		c.Stepper.StepsPerRev = DefaultStepsPerRev
	}
	if c.Stepper.CadenceUS <= 0 {
		c.Stepper.CadenceUS = DefaultCadenceUS
	}
	for name, j := range c.Joints {
		if j.MaxAngle <= j.MinAngle {
			j.MinAngle, j.MaxAngle = 0, 180
			c.Joints[name] = j
		}
	}
}

// Warnings reports configuration faults that degrade operation but do not
// prevent it: invalid channel indices and missing stepper enable lines.
// Each is logged once at startup; the loop then continues.
func (c *Config) Warnings() []string {
	var w []string
	for name, j := range c.Joints {
		if j.Channel < 0 || j.Channel > 7 {
			w = append(w, fmt.Sprintf("joint %s: channel %d outside MCP3208 range 0-7", name, j.Channel))
		}
	}
	if c.Stepper.Channel < 0 || c.Stepper.Channel > 7 {
		w = append(w, fmt.Sprintf("stepper: channel %d outside MCP3208 range 0-7", c.Stepper.Channel))
	}
	if len(c.Stepper.EnablePins) == 0 {
		w = append(w, "stepper: no enable pins configured, coils may be unpowered")
	}

	// The Pi has two hardware PWM channels and pins on the same channel
	// share one duty register. The first joint on a channel gets hardware
	// pulses; anything else falls back to software timing and will hum.
	owner := map[int]JointName{}
	for _, name := range ServoJoints() {
		j, ok := c.Joints[name]
		if !ok {
			continue
		}
		ch := hw.PWMChannel(j.ServoPin)
		if ch < 0 {
			w = append(w, fmt.Sprintf("joint %s: pin %d has no hardware PWM, pulses are software-timed", name, j.ServoPin))
			continue
		}
		if other, taken := owner[ch]; taken {
			w = append(w, fmt.Sprintf("joint %s: pin %d shares PWM channel %d with %s, pulses are software-timed", name, j.ServoPin, ch, other))
			continue
		}
		owner[ch] = name
	}
	return w
}

// DefaultConfig returns the wiring the reference build uses: three pots on
// MCP3208 channels 0-2 driving servos, and a fourth pot steering the
// stepper base. Shoulder and elbow sit on the two hardware PWM channels
// (18 is channel 0, 19 is channel 1); the wrist is on a plain GPIO with
// software-timed pulses, since a third hardware channel does not exist.
func DefaultConfig() *Config {
	cfg := &Config{
		Joints: map[JointName]JointConfig{
			Shoulder: {Channel: 0, ServoPin: 18},
			Elbow:    {Channel: 1, ServoPin: 19},
			Wrist:    {Channel: 2, ServoPin: 17},
		},
		Stepper: StepperConfig{
			Channel:    3,
			PhasePins:  [4]int{5, 6, 16, 26},
			EnablePins: []int{20, 21},
		},
		Cameras: []CameraConfig{{Name: "picam"}},
		DataDir: "dataset",
	}
	cfg.ApplyDefaults()
	return cfg
}
