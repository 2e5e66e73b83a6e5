package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/hw"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Potarm Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg := arm.DefaultConfig()
	if arm.ConfigExists() {
		if existing, err := arm.LoadConfig(); err == nil {
			cfg = existing
			fmt.Println(dimStyle.Render("Editing existing " + arm.DefaultConfigFile))
			fmt.Println()
		}
	}

	var inverted []string
	for _, name := range arm.ServoJoints() {
		if cfg.Joints[name].Invert {
			inverted = append(inverted, string(name))
		}
	}
	if cfg.Stepper.Invert {
		inverted = append(inverted, string(arm.Base))
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "dataset"
	}
	wiggle := true

	var jointOpts []huh.Option[string]
	for _, name := range arm.AllJoints() {
		jointOpts = append(jointOpts, huh.NewOption(string(name), string(name)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Inverted joints").
				Description("Select joints whose pot reads backwards (increasing rotation lowers the code)").
				Options(jointOpts...).
				Value(&inverted),
			huh.NewInput().
				Title("Dataset directory").
				Value(&dataDir),
			huh.NewConfirm().
				Title("Run the wiggle test after saving?").
				Description("Sweeps every servo and nudges the base so you can verify wiring").
				Value(&wiggle),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Setup aborted: %v\n", err)
		os.Exit(1)
	}

	invertSet := make(map[string]bool, len(inverted))
	for _, name := range inverted {
		invertSet[name] = true
	}
	for _, name := range arm.ServoJoints() {
		jc := cfg.Joints[name]
		jc.Invert = invertSet[string(name)]
		cfg.Joints[name] = jc
	}
	cfg.Stepper.Invert = invertSet[string(arm.Base)]
	cfg.DataDir = dataDir

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("Configuration saved to " + arm.DefaultConfigFile))

	for _, w := range cfg.Warnings() {
		fmt.Println(dimStyle.Render("Warning: " + w))
	}

	if wiggle {
		fmt.Println()
		runWiggleTest(cfg)
	}
	return nil
}

// runWiggleTest sweeps each servo and nudges the stepper so the user can
// check that every joint moves, then leaves everything parked.
func runWiggleTest(cfg *arm.Config) {
	pi, err := hw.OpenPi(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open hardware for wiggle test: %v\n", err)
		return
	}
	defer pi.Close()

	servos := arm.NewServoDriver(pi, cfg.PulseMinUS, cfg.PulseMaxUS)
	for _, name := range arm.ServoJoints() {
		jc, ok := cfg.Joints[name]
		if !ok {
			continue
		}
		fmt.Printf("Wiggling %s (pin %d)...\n", name, jc.ServoPin)
		for _, angle := range []float64{90, 60, 120, 90} {
			servos.SetAngle(jc.ServoPin, angle)
			time.Sleep(400 * time.Millisecond)
		}
		servos.Park(jc.ServoPin)
	}

	fmt.Println("Nudging base stepper...")
	seq := arm.NewSequencer(pi, cfg.Stepper)
	seq.Energize()
	cadence := time.Duration(cfg.Stepper.CadenceUS) * time.Microsecond
	seq.SetTarget(64)
	for seq.Step() {
		time.Sleep(cadence)
	}
	seq.SetTarget(0)
	for seq.Step() {
		time.Sleep(cadence)
	}
	seq.PowerOff()

	fmt.Println(successStyle.Render("Wiggle test done"))
}
