package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
)

// ErrSuperseded is returned by a dispatch whose response arrived after a
// newer trigger had fired. Its response is discarded.
var ErrSuperseded = errors.New("dispatch superseded by a newer trigger")

// Dispatcher runs triggers against one output region. The latest trigger
// wins: firing a new one cancels the request still in flight, and a
// response from an older trigger never reaches the region.
type Dispatcher struct {
	scorer   Scorer
	renderer render.Renderer
	region   *render.Region
	logger   *zap.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  string
}

func NewDispatcher(scorer Scorer, renderer render.Renderer, region *render.Region, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if region == nil {
		region = render.NewRegion()
	}
	return &Dispatcher{
		scorer:   scorer,
		renderer: renderer,
		region:   region,
		logger:   logger,
		state:    StateIdle,
	}
}

// Region returns the output region the dispatcher writes to.
func (d *Dispatcher) Region() *render.Region {
	return d.region
}

// State returns the lifecycle state of the most recent dispatch.
func (d *Dispatcher) State() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) Analyze(ctx context.Context, raw, strategy string) error {
	return d.Dispatch(ctx, TriggerAnalyze, raw, strategy)
}

func (d *Dispatcher) Suggest(ctx context.Context, raw string) error {
	return d.Dispatch(ctx, TriggerSuggest, raw, "")
}

// Dispatch parses raw, calls the service and renders the response into the
// region. Input and transport failures are returned and leave the region
// untouched; errors reported by the service are rendered.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger Trigger, raw, strategy string) error {
	log := d.logger.With(zap.String("trigger", string(trigger)))

	lc, err := NewLifecycle(trigger)
	if err != nil {
		return err
	}

	tasks, err := ParseInput(raw)
	if err != nil {
		// Rejected input never claims a seq, so it only reports its state
		// when no request is in flight.
		d.mu.Lock()
		if d.cancel == nil {
			d.advance(lc, EventAlert)
		} else if ferr := lc.Fire(EventAlert); ferr != nil {
			d.logger.Debug("lifecycle transition rejected", zap.Error(ferr))
		}
		d.mu.Unlock()
		log.Warn("task input rejected", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		log.Debug("cancelled in-flight dispatch", zap.Uint64("seq", d.seq))
	}
	d.seq++
	seq := d.seq
	d.cancel = cancel
	d.advance(lc, EventSend)
	d.mu.Unlock()

	log = log.With(zap.Uint64("seq", seq))
	log.Debug("dispatch started")

	resp, err := send(ctx, d.scorer, trigger, tasks, strategy)

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq {
		_ = lc.Fire(EventSupersede)
		log.Debug("dispatch superseded")
		return ErrSuperseded
	}
	d.cancel = nil

	if err != nil {
		d.advance(lc, EventAlert)
		log.Warn("dispatch failed", zap.Error(err))
		return err
	}

	if err := d.region.Replace(d.renderer, resp); err != nil {
		d.advance(lc, EventAlert)
		return fmt.Errorf("render response: %w", err)
	}
	d.advance(lc, EventRender)
	log.Debug("dispatch rendered", zap.String("kind", string(resp.Kind())))
	return nil
}

// advance fires event and publishes the new state. Callers hold d.mu.
func (d *Dispatcher) advance(lc *Lifecycle, event string) {
	if err := lc.Fire(event); err != nil {
		d.logger.Debug("lifecycle transition rejected", zap.Error(err))
	}
	d.state = lc.Current()
}
