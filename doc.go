// Package potarm drives a potentiometer-teleoperated robotic arm on a
// Raspberry Pi and records synchronized sensor/actuator/camera data for
// imitation-learning datasets.
//
// Potentiometers are read through an MCP3208 ADC over SPI, smoothed with a
// per-channel moving average, mapped to joint angles and driven out as
// servo PWM. The base joint is a stepper motor sequenced on its own,
// tighter cadence. Every control tick produces one record (raw and
// filtered codes, commanded angles, stepper position, camera frame
// references) appended to an episode on disk.
//
// # Usage
//
// First, run setup to create a configuration:
//
//	potarm setup
//
// Then drive the arm live, or record an episode:
//
//	potarm teleoperate
//	potarm record
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/potarm: CLI with setup, teleoperate and record commands
//   - pkg/arm: channel config, filtering, angle mapping, servo and stepper drivers
//   - pkg/hw: Raspberry Pi hardware collaborators (SPI ADC, PWM, GPIO)
//   - pkg/camera: frame sources and asynchronous frame grabbing
//   - pkg/collect: the fixed-rate control/logging loop
//   - pkg/episode: episode directories and CSV output
package potarm
