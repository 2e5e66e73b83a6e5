package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/collect"
	"github.com/gwillem/potarm/pkg/hw"
)

type TeleoperateCommand struct {
	Hz int `long:"hz" description:"Override the configured tick rate"`
}

func (c *TeleoperateCommand) Execute(args []string) error {
	cfg := mustLoadConfig()
	if c.Hz > 0 {
		cfg.TickRate = c.Hz
	}

	pi, err := hw.OpenPi(0)
	if err != nil {
		log.Fatalf("Failed to open hardware: %v", err)
	}
	defer pi.Close()

	ctrl := collect.NewController(cfg, collect.Devices{ADC: pi, PWM: pi, Out: pi}, nil, nil)
	runLoop(ctrl, "Potarm Teleoperate", nil)
	return nil
}

// mustLoadConfig loads potarm.json or exits with a hint to run setup.
func mustLoadConfig() *arm.Config {
	cfg, err := arm.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'potarm setup' first.")
		os.Exit(1)
	}
	if len(cfg.Joints) == 0 {
		fmt.Fprintln(os.Stderr, "No joints configured. Run 'potarm setup' first.")
		os.Exit(1)
	}
	fmt.Printf("Loaded configuration from %s\n", arm.DefaultConfigFile)
	return cfg
}

// startController runs ctrl.Start in the background. The returned channel
// closes once the loop has fully stopped, so callers know when it is safe
// to release the hardware and close the recorder behind it.
func startController(ctx context.Context, ctrl *collect.Controller) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()
	return done
}

// runLoop starts the controller in the background and runs the TUI until
// the user quits. It returns only after the controller has stopped, so the
// callers' deferred Close calls never race a still-running loop.
func runLoop(ctrl *collect.Controller, title string, footer func() string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := startController(ctx, ctrl)

	p := tea.NewProgram(newLoopModel(ctrl, title, footer), tea.WithAltScreen())
	_, err := p.Run()

	cancel()
	<-done
	if err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
