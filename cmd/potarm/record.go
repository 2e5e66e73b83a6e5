package main

import (
	"fmt"
	"log"

	"github.com/gwillem/potarm/pkg/camera"
	"github.com/gwillem/potarm/pkg/collect"
	"github.com/gwillem/potarm/pkg/episode"
	"github.com/gwillem/potarm/pkg/hw"
)

type RecordCommand struct {
	Hz  int    `long:"hz" description:"Override the configured tick rate"`
	Dir string `long:"dir" description:"Override the dataset directory"`
	Sim bool   `long:"sim-cameras" description:"Use synthetic frames instead of real cameras"`
}

func (c *RecordCommand) Execute(args []string) error {
	cfg := mustLoadConfig()
	if c.Hz > 0 {
		cfg.TickRate = c.Hz
	}
	if c.Dir != "" {
		cfg.DataDir = c.Dir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "dataset"
	}

	var cameraNames []string
	for _, cam := range cfg.Cameras {
		cameraNames = append(cameraNames, cam.Name)
	}

	rec, err := episode.New(cfg.DataDir, cameraNames)
	if err != nil {
		log.Fatalf("Failed to create episode: %v", err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("Close episode: %v", err)
		}
		fmt.Printf("Episode saved to %s (%d records)\n", rec.Dir(), rec.Rows())
	}()

	var grabbers []*camera.Grabber
	for _, cam := range cfg.Cameras {
		var src camera.FrameSource = camera.Synthetic{}
		if !c.Sim && len(cam.Command) > 0 {
			src = &camera.Exec{Command: cam.Command}
		}
		fps := cam.FPS
		if fps <= 0 {
			fps = cfg.TickRate
		}
		grabbers = append(grabbers, camera.NewGrabber(cam.Name, src, fps, rec.FrameDir(cam.Name), nil))
	}

	pi, err := hw.OpenPi(0)
	if err != nil {
		log.Fatalf("Failed to open hardware: %v", err)
	}
	defer pi.Close()

	ctrl := collect.NewController(cfg, collect.Devices{ADC: pi, PWM: pi, Out: pi}, grabbers, rec)

	fmt.Printf("Recording to %s\n", rec.Dir())
	runLoop(ctrl, "Potarm Record", func() string {
		return fmt.Sprintf("%d rows → %s", rec.Rows(), rec.Dir())
	})
	return nil
}
