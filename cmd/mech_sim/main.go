// Command mech_sim is a simulated mechanisms server. It binds the demand
// and sensor request/reply endpoints, validates incoming demand sets, and
// echoes them back as achieved state, so the rover executable can run
// end-to-end without the motor-driver hardware.
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/edaniels/golog"
	"github.com/go-zeromq/zmq4"
	jsoniter "github.com/json-iterator/go"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/mech"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	demsEndpoint = flag.String("dems", "tcp://127.0.0.1:5030", "Demand endpoint to bind")
	sensEndpoint = flag.String("sens", "tcp://127.0.0.1:5031", "Sensor data endpoint to bind")
)

// sim holds the simulated actuator state: demands are actuated instantly,
// so the achieved state is simply the last valid demand set.
type sim struct {
	mu    sync.Mutex
	state mech.SensData
}

func newSim() *sim {
	return &sim{state: mech.SensData{
		PosRad:    make(map[mech.ActuatorID]float64),
		SpeedRads: make(map[mech.ActuatorID]float64),
	}}
}

// actuate validates one demand set and applies it to the simulated state.
func (s *sim) actuate(d mech.Demands) mech.Response {
	for _, v := range d.PosRad {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mech.DemsInvalid
		}
	}
	for _, v := range d.SpeedRads {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mech.DemsInvalid
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range d.PosRad {
		s.state.PosRad[id] = v
	}
	for id, v := range d.SpeedRads {
		s.state.SpeedRads[id] = v
	}
	return mech.DemsOK
}

func (s *sim) snapshot() mech.SensData {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := mech.SensData{
		PosRad:    make(map[mech.ActuatorID]float64, len(s.state.PosRad)),
		SpeedRads: make(map[mech.ActuatorID]float64, len(s.state.SpeedRads)),
	}
	for id, v := range s.state.PosRad {
		out.PosRad[id] = v
	}
	for id, v := range s.state.SpeedRads {
		out.SpeedRads[id] = v
	}
	return out
}

func main() {
	flag.Parse()
	logger := golog.NewDevelopmentLogger("mech_sim")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSim()

	dems := zmq4.NewRep(ctx)
	if err := dems.Listen(*demsEndpoint); err != nil {
		logger.Fatalw("cannot bind demand endpoint", "endpoint", *demsEndpoint, "error", err)
	}
	defer dems.Close()

	sens := zmq4.NewRep(ctx)
	if err := sens.Listen(*sensEndpoint); err != nil {
		logger.Fatalw("cannot bind sensor endpoint", "endpoint", *sensEndpoint, "error", err)
	}
	defer sens.Close()

	logger.Infow("mechanisms simulator running",
		"dems_endpoint", *demsEndpoint,
		"sens_endpoint", *sensEndpoint,
	)

	go serveSens(ctx, sens, s, logger)
	serveDems(ctx, dems, s, logger)
}

// serveDems answers demand requests until the context is cancelled.
func serveDems(ctx context.Context, sock zmq4.Socket, s *sim, logger golog.Logger) {
	for ctx.Err() == nil {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorw("demand receive failed", "error", err)
			continue
		}

		var d mech.Demands
		resp := mech.DemsInvalid
		if err := json.Unmarshal(msg.Bytes(), &d); err != nil {
			logger.Warnw("unparseable demand set", "error", err)
		} else {
			resp = s.actuate(d)
			logger.Debugw("demands actuated", "response", string(resp))
		}

		b, _ := json.Marshal(resp)
		if err := sock.Send(zmq4.NewMsg(b)); err != nil {
			logger.Errorw("demand reply failed", "error", err)
		}
	}
}

// serveSens answers sensor snapshot requests.
func serveSens(ctx context.Context, sock zmq4.Socket, s *sim, logger golog.Logger) {
	for ctx.Err() == nil {
		if _, err := sock.Recv(); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorw("sensor receive failed", "error", err)
			continue
		}

		b, err := json.Marshal(s.snapshot())
		if err != nil {
			logger.Errorw("cannot serialise sensor data", "error", err)
			continue
		}
		if err := sock.Send(zmq4.NewMsg(b)); err != nil {
			logger.Errorw("sensor reply failed", "error", err)
		}
	}
}
