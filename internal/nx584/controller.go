package nx584

import (
	"context"
	"fmt"
	"time"

	"github.com/cbarrick/nx584bridge/internal/logger"
)

// Config holds the Controller's static, caller-supplied settings. It carries
// no transport or broker details; those arrive as the framer and sink
// collaborators passed to New.
type Config struct {
	// PanelID identifies this panel instance in published topics/events.
	PanelID string
	// ZoneCount bounds synchronization's per-zone Zone Name/Status requests
	// to panel zones 1..ZoneCount.
	ZoneCount int
	// IgnoreZones lists 1-based zone indices to skip during synchronization.
	IgnoreZones map[int]bool
	// DefaultPIN, if set, authenticates arm/disarm intents via the Primary
	// Keypad Function Request (PIN) request. Takes priority over
	// DefaultUserNumber.
	DefaultPIN string
	// DefaultUserNumber authenticates arm/disarm intents via the Primary
	// Keypad Function Request (no PIN) request when DefaultPIN is unset.
	DefaultUserNumber int
	// RepublishInterval is how often the Controller republishes full zone
	// and partition state regardless of panel activity. Zero selects the
	// default of 60 minutes.
	RepublishInterval time.Duration
}

type intentKind int

const (
	intentDisarm intentKind = iota
	intentArmHome
	intentArmAway
	intentSetClock
)

type intentRequest struct {
	kind      intentKind
	partition int
	clock     time.Time
	result    chan error
}

// Controller owns the serial link exclusively and is the only thing that
// ever calls Framer.Read/Write. External callers interact with it only
// through Disarm/ArmHome/ArmAway/SetClock, which hand a request to the
// Controller's own goroutine over a channel and block for the result; this
// keeps the "at most one outstanding command" invariant (spec.md §4.4, §5)
// true without a mutex guarding the entity registries.
type Controller struct {
	framer  *Framer
	sink    Sink
	metrics Metrics
	cfg     Config

	zones      map[int]*Zone
	partitions map[int]*Partition
	synced     bool
	caps       InterfaceConfig

	intents chan intentRequest
}

// New constructs a Controller. The zone and partition registries are
// populated by the first Run's synchronization phase, not here.
func New(framer *Framer, sink Sink, metrics Metrics, cfg Config) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Controller{
		framer:     framer,
		sink:       sink,
		metrics:    metrics,
		cfg:        cfg,
		zones:      make(map[int]*Zone),
		partitions: make(map[int]*Partition),
		intents:    make(chan intentRequest),
	}
}

// Run synchronizes with the panel, publishes its initial state, and then
// services transitions, periodic republishing, and intents until ctx is
// canceled or the link fails unrecoverably. It returns nil on a clean
// shutdown and a non-nil error (wrapping ErrTransportClosed or
// ErrCapabilityMismatch) otherwise.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.resume(); err != nil {
		return err
	}
	if err := c.sync(); err != nil {
		return err
	}
	c.publishInitial()

	interval := c.cfg.RepublishInterval
	if interval <= 0 {
		interval = 60 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		case req := <-c.intents:
			req.result <- c.handleIntent(req)
			continue
		case <-ticker.C:
			c.republishAll()
			continue
		default:
		}

		msgType, ack, data, err := c.framer.Read()
		if err != nil {
			continue
		}
		c.metrics.FrameRead()
		c.metrics.TransitionReceived(msgType)
		c.onTransition(msgType, ack, data)
	}
}

func (c *Controller) shutdown() error {
	c.sink.PublishOffline()
	logger.Info("nx584: controller shutting down")
	return nil
}

// resume sends a direct ACK then reads and discards whatever frames are
// already sitting on the link (spec.md §4.5 step 1): a graceful recovery if
// the process crashed and restarted mid-synchronization on a prior run,
// leaving the panel mid-retry or the link holding stale bytes. Draining ends
// the first time Read reports ErrFrameTimeout, i.e. as soon as nothing more
// is buffered.
func (c *Controller) resume() error {
	if err := c.framer.Write(TypeACK, nil, false); err != nil {
		return fmt.Errorf("nx584: resume: direct ack: %w: %w", ErrTransportClosed, err)
	}
	c.metrics.FrameWritten()
	for {
		_, _, _, err := c.framer.Read()
		if err != nil {
			return nil
		}
	}
}

// sync runs the boot-time synchronization sequence (spec.md §4.5 step 2):
// Interface Configuration Request, capability validation, System Status
// Request, a Partition Status Request per partition the panel reports
// present, and a Zone Name + Zone Status Request per configured zone.
func (c *Controller) sync() error {
	start := time.Now()

	cfgData, err := c.requestOne(TypeInterfaceConfigRequest, nil, TypeInterfaceConfigResponse)
	if err != nil {
		return fmt.Errorf("nx584: sync: interface config: %w", err)
	}
	caps, err := DecodeInterfaceConfig(cfgData)
	if err != nil {
		return fmt.Errorf("nx584: sync: %w", err)
	}
	if missing := caps.MissingCapabilities(); len(missing) > 0 {
		logger.Error("nx584: panel is missing required capabilities", "missing", missing)
		return ErrCapabilityMismatch
	}
	c.caps = caps

	sysData, err := c.requestOne(TypeSystemStatusRequest, nil, TypeSystemStatusResponse)
	if err != nil {
		return fmt.Errorf("nx584: sync: system status: %w", err)
	}
	sys, err := DecodeSystemStatus(sysData)
	if err != nil {
		return fmt.Errorf("nx584: sync: %w", err)
	}

	for i := 1; i <= MaxPartitions; i++ {
		if sys.PartitionMask&(1<<uint(i-1)) == 0 {
			continue
		}
		pdata, err := c.requestOne(TypePartitionStatusRequest, EncodePartitionStatusRequest(i-1), TypePartitionStatusResponse)
		if err != nil {
			logger.Error("nx584: sync: partition status request failed", "partition", i, "error", err)
			continue
		}
		ps, err := DecodePartitionStatus(pdata)
		if err != nil {
			logger.Error("nx584: sync: bad partition status", "partition", i, "error", err)
			continue
		}
		p := &Partition{Index: i}
		p.setCondition(ps.Condition)
		c.partitions[i] = p
	}

	for i := 1; i <= c.cfg.ZoneCount; i++ {
		if c.cfg.IgnoreZones[i] {
			continue
		}
		nameData, err := c.requestOne(TypeZoneNameRequest, EncodeZoneNameRequest(i-1), TypeZoneNameResponse)
		if err != nil {
			logger.Error("nx584: sync: zone name request failed", "zone", i, "error", err)
			continue
		}
		zn, err := DecodeZoneName(nameData)
		if err != nil {
			logger.Error("nx584: sync: bad zone name", "zone", i, "error", err)
			continue
		}
		statusData, err := c.requestOne(TypeZoneStatusRequest, EncodeZoneStatusRequest(i-1), TypeZoneStatusResponse)
		if err != nil {
			logger.Error("nx584: sync: zone status request failed", "zone", i, "error", err)
			continue
		}
		zs, err := DecodeZoneStatus(statusData)
		if err != nil {
			logger.Error("nx584: sync: bad zone status", "zone", i, "error", err)
			continue
		}
		z := &Zone{Index: i, Name: zn.Name}
		z.setMasks(zs.Partitions, zs.Type, zs.Condition)
		c.zones[i] = z
	}

	c.synced = true
	c.metrics.SyncCompleted(time.Since(start).Seconds())
	logger.Info("nx584: synchronization complete", "zones", len(c.zones), "partitions", len(c.partitions))
	return nil
}

// requestOne drives a single request to completion through a one-off Queue,
// capturing the first response matching respType. Interleaved transitions,
// retries, and rejections are all handled by Queue.Drain; requestOne only
// adds "did we actually get the response we expected".
func (c *Controller) requestOne(reqType MessageType, payload []byte, respType MessageType) ([]byte, error) {
	var data []byte
	var got bool

	q := Queue{}
	q.Enqueue(NewPendingCommand(reqType, payload, map[MessageType]dispatchFunc{
		respType: func(d []byte) error {
			data = append([]byte(nil), d...)
			got = true
			return nil
		},
	}))

	if err := q.Drain(c.framer, c.onTransition, c.metrics); err != nil {
		return nil, err
	}
	if !got {
		return nil, fmt.Errorf("nx584: no response to request type 0x%02x", byte(reqType))
	}
	return data, nil
}

// onTransition applies an unsolicited (or interleaved) message to the
// tracked entity registries and republishes whatever changed.
func (c *Controller) onTransition(msgType MessageType, _ bool, data []byte) {
	switch msgType {
	case TypeZoneStatusResponse:
		zs, err := DecodeZoneStatus(data)
		if err != nil {
			logger.Error("nx584: bad zone status transition", "error", err)
			return
		}
		z, ok := c.zones[zs.PanelZone+1]
		if !ok {
			return
		}
		z.setMasks(zs.Partitions, zs.Type, zs.Condition)
		c.metrics.ZonePublished()
		c.sink.PublishZoneState(z)

	case TypePartitionStatusResponse:
		ps, err := DecodePartitionStatus(data)
		if err != nil {
			logger.Error("nx584: bad partition status transition", "error", err)
			return
		}
		p, ok := c.partitions[ps.PanelPartition+1]
		if !ok {
			return
		}
		p.setCondition(ps.Condition)
		c.metrics.PartitionPublished()
		c.sink.PublishPartitionState(p)

	case TypeZonesSnapshotResponse:
		if _, err := DecodeZonesSnapshot(data); err != nil {
			logger.Error("nx584: bad zones snapshot", "error", err)
			return
		}
		c.refreshZones()

	case TypePartitionSnapshot:
		if _, err := DecodePartitionSnapshot(data); err != nil {
			logger.Error("nx584: bad partition snapshot", "error", err)
			return
		}
		c.refreshPartitions()

	case TypeSystemStatusResponse:
		logger.Debug("nx584: system status transition received")

	default:
		logger.Debug("nx584: unhandled transition", "type", msgType)
	}
}

// refreshZones re-requests status for every tracked zone. Snapshots are
// advisory-only (spec.md §9 Open Question (a)): they mean "something
// changed", not "here is the new state".
func (c *Controller) refreshZones() {
	for i, z := range c.zones {
		data, err := c.requestOne(TypeZoneStatusRequest, EncodeZoneStatusRequest(i-1), TypeZoneStatusResponse)
		if err != nil {
			logger.Error("nx584: zone refresh failed", "zone", i, "error", err)
			continue
		}
		zs, err := DecodeZoneStatus(data)
		if err != nil {
			continue
		}
		z.setMasks(zs.Partitions, zs.Type, zs.Condition)
		c.metrics.ZonePublished()
		c.sink.PublishZoneState(z)
	}
}

// refreshPartitions re-requests status for every tracked partition.
func (c *Controller) refreshPartitions() {
	for i, p := range c.partitions {
		data, err := c.requestOne(TypePartitionStatusRequest, EncodePartitionStatusRequest(i-1), TypePartitionStatusResponse)
		if err != nil {
			logger.Error("nx584: partition refresh failed", "partition", i, "error", err)
			continue
		}
		ps, err := DecodePartitionStatus(data)
		if err != nil {
			continue
		}
		p.setCondition(ps.Condition)
		c.metrics.PartitionPublished()
		c.sink.PublishPartitionState(p)
	}
}

func (c *Controller) publishInitial() {
	c.sink.PublishOnline()
	partitions := c.partitionSlice()
	c.sink.PublishConfigs(c.cfg.PanelID, partitions)
	zones := c.zoneSlice()
	c.sink.PublishZoneConfigs(zones)
	c.sink.PublishZoneStates(zones)
	c.sink.PublishPartitionStates(partitions)
}

func (c *Controller) republishAll() {
	c.sink.PublishZoneStates(c.zoneSlice())
	c.sink.PublishPartitionStates(c.partitionSlice())
}

func (c *Controller) zoneSlice() []*Zone {
	out := make([]*Zone, 0, len(c.zones))
	for i := 1; i <= c.cfg.ZoneCount; i++ {
		if z, ok := c.zones[i]; ok {
			out = append(out, z)
		}
	}
	return out
}

func (c *Controller) partitionSlice() []*Partition {
	out := make([]*Partition, 0, len(c.partitions))
	for i := 1; i <= MaxPartitions; i++ {
		if p, ok := c.partitions[i]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Disarm requests the given partition disarm, authenticated by the
// configured default PIN or user number.
func (c *Controller) Disarm(ctx context.Context, partition int) error {
	return c.submit(ctx, intentRequest{kind: intentDisarm, partition: partition})
}

// ArmHome requests the given partition arm in stay mode.
func (c *Controller) ArmHome(ctx context.Context, partition int) error {
	return c.submit(ctx, intentRequest{kind: intentArmHome, partition: partition})
}

// ArmAway requests the given partition arm in away mode.
func (c *Controller) ArmAway(ctx context.Context, partition int) error {
	return c.submit(ctx, intentRequest{kind: intentArmAway, partition: partition})
}

// SetClock requests the panel's clock/calendar be set to t.
func (c *Controller) SetClock(ctx context.Context, t time.Time) error {
	return c.submit(ctx, intentRequest{kind: intentSetClock, clock: t})
}

func (c *Controller) submit(ctx context.Context, req intentRequest) error {
	req.result = make(chan error, 1)
	select {
	case c.intents <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handleIntent(req intentRequest) error {
	switch req.kind {
	case intentSetClock:
		return c.doSetClock(req.clock)
	case intentDisarm:
		return c.doKeypadFunction(req.partition, FunctionDisarm, checkDisarm)
	case intentArmHome:
		return c.doKeypadFunction(req.partition, FunctionArmStay, checkArm)
	case intentArmAway:
		return c.doKeypadFunction(req.partition, FunctionArmAway, checkArm)
	default:
		return fmt.Errorf("nx584: unknown intent kind %d", req.kind)
	}
}

func checkDisarm(s State) error {
	if s == StateDisarmed {
		return ErrAlreadyInState
	}
	return nil
}

func checkArm(s State) error {
	switch s {
	case StateArmedHome, StateArmedAway, StateArming:
		return ErrAlreadyInState
	}
	return nil
}

// doKeypadFunction validates the partition's current state, then issues a
// Primary Keypad Function Request authenticated by whichever credential is
// configured (spec.md §4.2, §7: state is always validated before acting).
func (c *Controller) doKeypadFunction(partition int, fn KeypadFunction, check func(State) error) error {
	if !c.synced {
		return ErrSyncRequired
	}
	p, ok := c.partitions[partition]
	if !ok {
		return fmt.Errorf("nx584: unknown partition %d", partition)
	}
	if err := check(p.State()); err != nil {
		return err
	}

	switch {
	case c.cfg.DefaultPIN != "":
		pin, err := EncodePIN(c.cfg.DefaultPIN)
		if err != nil {
			return err
		}
		return c.sendKeypad(TypePrimaryKeypadPin, EncodePrimaryKeypadPin(pin, fn, partition))
	case c.cfg.DefaultUserNumber > 0:
		return c.sendKeypad(TypePrimaryKeypadNoPin, EncodePrimaryKeypadNoPin(fn, partition, c.cfg.DefaultUserNumber))
	default:
		return ErrNoCredentials
	}
}

func (c *Controller) doSetClock(t time.Time) error {
	mondayZero := (int(t.Weekday()) + 6) % 7
	payload := EncodeSetClockCalendar(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), mondayZero)
	q := Queue{}
	q.Enqueue(NewPendingCommand(TypeSetClockCalendar, payload, map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { return nil },
	}))
	return q.Drain(c.framer, c.onTransition, c.metrics)
}

func (c *Controller) sendKeypad(reqType MessageType, payload []byte) error {
	q := Queue{}
	q.Enqueue(NewPendingCommand(reqType, payload, map[MessageType]dispatchFunc{
		TypeACK: func([]byte) error { return nil },
	}))
	return q.Drain(c.framer, c.onTransition, c.metrics)
}
