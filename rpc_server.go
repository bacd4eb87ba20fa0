package scaler

import (
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ScalerControl is the sub-server that handles remote operation of one
// MultiChannelScaler. It owns the only lock in the program: the device
// models are synchronous and lock-free, so every path to them (RPC and the
// monitor's snapshots) goes through this struct.
type ScalerControl struct {
	scaler *MultiChannelScaler
	log    *log.Logger

	mu       sync.Mutex
	runID    string
	counting bool
}

// NewScalerControl wraps a device for RPC operation.
func NewScalerControl(mcs *MultiChannelScaler, logger *log.Logger) *ScalerControl {
	if logger == nil {
		logger = ProblemLogger
	}
	return &ScalerControl{scaler: mcs, log: logger}
}

// ReadSnapshot takes a reading under the control lock. It is the read
// function handed to a Monitor.
func (sc *ScalerControl) ReadSnapshot() (*Reading, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scaler.Read()
}

// CountArgs holds the arguments to StartCount.
type CountArgs struct {
	// PresetSeconds, when positive, is written to .TP before triggering.
	PresetSeconds float64
}

// StartReply reports the identifier assigned to a count run.
type StartReply struct {
	RunID string
}

// StartCount stages the device, optionally sets the preset time, and
// triggers a count. The reply carries a fresh run ID.
func (sc *ScalerControl) StartCount(args *CountArgs, reply *StartReply) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.counting {
		return fmt.Errorf("a count run (%s) is already in progress", sc.runID)
	}
	if err := sc.scaler.Stage(); err != nil {
		return err
	}
	if args.PresetSeconds > 0 {
		if err := sc.scaler.PresetTime.Put(args.PresetSeconds); err != nil {
			return err
		}
	}
	if err := sc.scaler.StartCount(); err != nil {
		return err
	}
	sc.runID = ulid.Make().String()
	sc.counting = true
	reply.RunID = sc.runID
	sc.log.Printf("StartCount: run %s, preset=%.3f s", sc.runID, args.PresetSeconds)
	return nil
}

// StopCount stops any count in progress and unstages the device.
func (sc *ScalerControl) StopCount(dummy *string, reply *bool) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if err := sc.scaler.StopCount(); err != nil {
		return err
	}
	err := sc.scaler.Unstage()
	sc.counting = false
	*reply = (err == nil)
	sc.log.Printf("StopCount: run %s stopped", sc.runID)
	return err
}

// SelectArgs holds the arguments to SelectChannels.
type SelectArgs struct {
	// Names are hardware-reported channel labels, as on the .NM fields.
	Names []string
}

// SelectReply reports the resulting read set.
type SelectReply struct {
	ReadAttrs []string
	Hints     []string
}

// SelectChannels selects the working channel set by label.
func (sc *ScalerControl) SelectChannels(args *SelectArgs, reply *SelectReply) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if err := sc.scaler.SelectChannels(args.Names); err != nil {
		return err
	}
	reply.ReadAttrs = sc.scaler.Channels.ReadAttrs()
	reply.Hints = append([]string(nil), sc.scaler.Hints["fields"]...)
	sc.log.Printf("SelectChannels: %q -> %q", args.Names, reply.ReadAttrs)
	return nil
}

// MatchNames refreshes every channel's display name from hardware.
func (sc *ScalerControl) MatchNames(dummy *string, reply *bool) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	err := sc.scaler.MatchNames()
	*reply = (err == nil)
	return err
}

// ReadAll returns a snapshot of the current read set.
func (sc *ScalerControl) ReadAll(dummy *string, reply *Reading) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	r, err := sc.scaler.Read()
	if err != nil {
		return err
	}
	*reply = *r
	return nil
}

// ScalerStatus is the status that ScalerControl reports to clients.
type ScalerStatus struct {
	Prefix    string
	RunID     string
	Counting  bool
	ReadAttrs []string
	Hints     map[string][]string
	Version   string
}

// Status reports the device's prefix, run state and working set.
func (sc *ScalerControl) Status(dummy *string, reply *ScalerStatus) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	reply.Prefix = sc.scaler.Prefix()
	reply.RunID = sc.runID
	reply.Counting = sc.counting
	reply.ReadAttrs = sc.scaler.Channels.ReadAttrs()
	reply.Hints = make(map[string][]string, len(sc.scaler.Hints))
	for k, v := range sc.scaler.Hints {
		reply.Hints[k] = append([]string(nil), v...)
	}
	reply.Version = Build.Version
	return nil
}

// RunRPCServer sets up and runs a permanent JSON-RPC server for the given
// control object. It blocks forever.
func RunRPCServer(sc *ScalerControl, portrpc int) error {
	server := rpc.NewServer()
	if err := server.RegisterName("ScalerControl", sc); err != nil {
		return err
	}

	port := fmt.Sprintf(":%d", portrpc)
	listener, err := net.Listen("tcp", port)
	if err != nil {
		return fmt.Errorf("listen error: %w", err)
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("accept error: %w", err)
		}
		sc.log.Printf("new connection established")
		go server.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}
