package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup       SetupCommand       `command:"setup" description:"Create a configuration and test the wiring"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"teleop" description:"Drive the arm live without recording"`
	Record      RecordCommand      `command:"record" description:"Drive the arm and record an episode"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "potarm - potentiometer-teleoperated arm control and dataset recording"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
