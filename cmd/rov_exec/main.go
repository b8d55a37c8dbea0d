// Command rov_exec is the rover-side executable. It runs the locomotion
// control loop at a fixed rate: take the latest motion command from the
// active command source (stored script or teleop), run it through the
// kinematics engine, ship the resulting wheel demands to the mechanisms
// server, and publish telemetry.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edaniels/golog"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
	"github.com/SUSF-Robotics-and-Software/phobos-sw/mech"
	"github.com/SUSF-Robotics-and-Software/phobos-sw/params"
	"github.com/SUSF-Robotics-and-Software/phobos-sw/script"
	"github.com/SUSF-Robotics-and-Software/phobos-sw/telem"
)

var (
	locoParamsPath = flag.String("loco-params", "config/loco_ctrl.toml", "Locomotion parameter file")
	execParamsPath = flag.String("exec-params", "config/rov_exec.toml", "Executable parameter file")
	scriptPath     = flag.String("script", "", "Manoeuvre script to play instead of teleop")
	serialDevice   = flag.String("serial", "", "Drive the mechanisms board over this serial device instead of the network")
	serialBaud     = flag.Int("baud", 115200, "Serial baud rate")
)

func main() {
	flag.Parse()
	logger := golog.NewDevelopmentLogger("rov_exec")

	if err := run(logger); err != nil {
		logger.Fatalw("rov_exec failed", "error", err)
	}
}

func run(logger golog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	execParams, err := params.LoadExec(*execParamsPath)
	if err != nil {
		return err
	}

	locoParams := params.DefaultLoco()
	if err := params.Load(*locoParamsPath, &locoParams); err != nil {
		return err
	}

	geom, err := locoParams.Geometry()
	if err != nil {
		return err
	}
	ctrl, err := loco.NewController(geom, locoParams.Limits(), logger.Named("loco_ctrl"))
	if err != nil {
		return err
	}

	var link mech.DemandSender
	if *serialDevice != "" {
		link, err = mech.NewSerialLink(*serialDevice, *serialBaud, logger.Named("mech"))
	} else {
		link, err = mech.NewClient(
			ctx, execParams.MechDemsEndpoint, execParams.MechSensEndpoint,
			logger.Named("mech"))
	}
	if err != nil {
		return err
	}
	defer link.Close()

	telemSrv := telem.NewServer(
		execParams.TelemBind,
		time.Duration(execParams.TeleopTimeoutMs)*time.Millisecond,
		logger.Named("telem"))
	telemSrv.Start()
	defer telemSrv.Close()

	var player *script.Player
	if *scriptPath != "" {
		player, err = script.Load(*scriptPath)
		if err != nil {
			return err
		}
		logger.Infow("playing manoeuvre script",
			"path", *scriptPath, "entries", player.Len())
	}

	cycle := time.Duration(execParams.CycleMs) * time.Millisecond
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	logger.Infow("control loop running", "cycle", cycle.String())
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			// Leave the rover safe on the way out: zero drive, hold steer.
			safe := ctrl.MakeSafe()
			if _, err := link.SendDemands(mech.FromWheelDemands(safe)); err != nil {
				logger.Errorw("cannot send safing demands", "error", err)
			}
			logger.Infow("control loop stopped")
			return nil

		case <-ticker.C:
			if telemSrv.TakeReset() {
				ctrl.Reset()
			}

			var cmd *loco.MotionCommand
			if player != nil {
				cmd = player.NextCommand(time.Since(start).Seconds())
			} else {
				cmd = telemSrv.NextCommand()
			}

			set, report := ctrl.Tick(cmd)

			resp, err := link.SendDemands(mech.FromWheelDemands(set))
			switch {
			case err != nil:
				logger.Errorw("demand dispatch failed", "error", err)
			case resp != mech.DemsOK:
				logger.Warnw("mechanisms server rejected demands", "response", string(resp))
			}

			telemSrv.Publish(telem.Frame{
				TimeS:   time.Since(start).Seconds(),
				Report:  report,
				Demands: set,
			})
		}
	}
}
