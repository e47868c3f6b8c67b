// Package dispatch drives inbound citizen messages through the flow engine.
// Messages for the same session key are handled strictly in arrival order;
// different sessions proceed in parallel on their own lanes.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/internal/dedupe"
	"github.com/civicdesk/civic-portal/internal/flow"
	"github.com/civicdesk/civic-portal/internal/observability/metrics"
	"github.com/civicdesk/civic-portal/internal/refid"
	"github.com/civicdesk/civic-portal/internal/session"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

// DefaultLaneBuffer is how many events a session lane queues before Enqueue
// starts dropping.
const DefaultLaneBuffer = 16

const notifyTimeout = 15 * time.Second

// Messenger sends replies back over the chat channel.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendButtons(ctx context.Context, to, text string, buttons []flow.Button) error
	SendList(ctx context.Context, to, text, buttonLabel string, sections []flow.ListSection) error
}

// Notifier is the slice of the staff notification service the orchestrator
// needs.
type Notifier interface {
	NotifyCaseCreated(ctx context.Context, c cases.Case) error
}

// Options configures an Orchestrator.
type Options struct {
	Sessions   session.Store
	Guard      dedupe.Guard
	Refs       refid.Allocator
	Repo       cases.Repository
	Messenger  Messenger
	Notifier   Notifier
	FlowDeps   flow.Deps
	Metrics    *metrics.IntakeMetrics
	Logger     *logging.Logger
	Channel    string
	LaneBuffer int

	// AppointmentDays refreshes the offered visit dates on every message
	// when > 0.
	AppointmentDays int
}

// Orchestrator owns the per-session lanes and the intent side effects.
type Orchestrator struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	lanes    map[string]chan flow.Event
	draining bool
	wg       sync.WaitGroup
}

// NewOrchestrator wires the dispatch pipeline.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Sessions == nil {
		panic("dispatch: session store required")
	}
	if opts.Repo == nil {
		panic("dispatch: case repository required")
	}
	if opts.Messenger == nil {
		panic("dispatch: messenger required")
	}
	if opts.Refs == nil {
		panic("dispatch: reference allocator required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Channel == "" {
		opts.Channel = "whatsapp"
	}
	if opts.LaneBuffer <= 0 {
		opts.LaneBuffer = DefaultLaneBuffer
	}
	return &Orchestrator{
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
		lanes: make(map[string]chan flow.Event),
	}
}

// Enqueue hands an inbound event to its session lane, spawning the lane
// worker if this key has no active one. It never blocks the webhook: a full
// lane drops the event with a warning.
func (o *Orchestrator) Enqueue(ctx context.Context, ev flow.Event) error {
	if ev.SessionKey == "" {
		return fmt.Errorf("dispatch: event missing session key")
	}

	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return fmt.Errorf("dispatch: shutting down")
	}
	lane, ok := o.lanes[ev.SessionKey]
	if !ok {
		lane = make(chan flow.Event, o.opts.LaneBuffer)
		o.lanes[ev.SessionKey] = lane
		o.wg.Add(1)
		o.opts.Metrics.LaneOpened()
		go o.runLane(ev.SessionKey, lane)
	}
	select {
	case lane <- ev:
		o.mu.Unlock()
		return nil
	default:
		o.mu.Unlock()
		o.opts.Logger.Warn("session lane full, dropping event",
			"session_key", ev.SessionKey, "message_id", ev.MessageID)
		o.opts.Metrics.ObserveInbound(string(ev.Kind), "dropped")
		return fmt.Errorf("dispatch: lane for %s is full", ev.SessionKey)
	}
}

// runLane drains one session's events in order, then retires itself once the
// lane is empty.
func (o *Orchestrator) runLane(key string, lane chan flow.Event) {
	defer o.wg.Done()
	defer o.opts.Metrics.LaneClosed()
	for {
		select {
		case ev := <-lane:
			o.process(ev)
		default:
			o.mu.Lock()
			if len(lane) == 0 {
				delete(o.lanes, key)
				o.mu.Unlock()
				return
			}
			o.mu.Unlock()
		}
	}
}

// Shutdown stops accepting new events and waits for active lanes to drain.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.draining = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch: shutdown timed out: %w", ctx.Err())
	}
}

func (o *Orchestrator) process(ev flow.Event) {
	ctx := context.Background()
	start := o.now()
	log := o.opts.Logger.With("session_key", ev.SessionKey, "message_id", ev.MessageID)

	// The idempotency record is written before any side effect runs, so a
	// crash mid-execution cannot replay sends or case inserts when the
	// provider redelivers. Both guard calls fail open: an unreachable store
	// degrades to at-least-once rather than dropping the message.
	if o.opts.Guard != nil && ev.MessageID != "" {
		seen, err := o.opts.Guard.AlreadyProcessed(ctx, o.opts.Channel, ev.MessageID)
		if err != nil {
			log.Warn("idempotency store unreachable, processing anyway", "error", err)
			o.opts.Metrics.ObserveDedupeDegraded()
		} else if seen {
			log.Info("duplicate message ignored")
			o.opts.Metrics.ObserveInbound(string(ev.Kind), "duplicate")
			return
		}
		if _, err := o.opts.Guard.MarkProcessed(ctx, o.opts.Channel, ev.MessageID); err != nil {
			log.Warn("failed to record message before processing", "error", err)
			o.opts.Metrics.ObserveDedupeDegraded()
		}
	}

	sess, err := o.opts.Sessions.Get(ctx, ev.SessionKey)
	if err != nil {
		log.Warn("session read failed, starting fresh", "error", err)
		sess = session.New(ev.SessionKey, o.now())
	}

	res := flow.Transition(sess, ev, o.flowDeps(ctx))
	for _, w := range res.Warnings {
		log.Warn("flow warning", "detail", w)
	}

	clearSess, err := o.execute(ctx, ev, res, log)
	if err != nil {
		log.Error("intent execution failed", "error", err)
		o.failSession(ctx, ev, sess, log)
		o.opts.Metrics.ObserveInbound(string(ev.Kind), "failed")
		return
	}

	if clearSess {
		if err := o.opts.Sessions.Clear(ctx, ev.SessionKey); err != nil {
			log.Warn("session clear failed", "error", err)
		}
	} else {
		res.Next.LastActivityAt = o.now()
		if err := o.opts.Sessions.Put(ctx, ev.SessionKey, res.Next); err != nil {
			log.Warn("session write failed", "error", err)
		}
	}

	o.opts.Metrics.ObserveInbound(string(ev.Kind), "processed")
	o.opts.Metrics.ObserveDispatch(string(res.Next.Flow), o.now().Sub(start).Seconds())
}

// execute runs the flow's intents in order. The reference allocated by an
// earlier intent feeds the draft and confirmation text of later ones.
func (o *Orchestrator) execute(ctx context.Context, ev flow.Event, res flow.Result, log *logging.Logger) (clearSess bool, err error) {
	var reference string
	for _, in := range res.Intents {
		switch in.Kind {
		case flow.IntentAllocateReference:
			reference, err = o.opts.Refs.Allocate(ctx, in.RefPrefix)
			if err != nil {
				return false, fmt.Errorf("allocate reference: %w", err)
			}
			log.Info("reference allocated", "reference", reference)

		case flow.IntentPersistCase:
			if in.Draft == nil {
				return false, fmt.Errorf("persist intent without draft")
			}
			draft := *in.Draft
			draft.Reference = reference
			created, perr := o.opts.Repo.CreateCase(ctx, &draft)
			if perr != nil {
				return false, fmt.Errorf("persist case: %w", perr)
			}
			o.opts.Metrics.ObserveCaseCreated(string(created.Kind))
			log.Info("case registered", "reference", created.Reference, "kind", created.Kind)

		case flow.IntentNotify:
			if o.opts.Notifier != nil {
				o.notifyAsync(reference, log)
			}

		case flow.IntentSendText:
			text := in.Text
			if in.WantsReference {
				text = fmt.Sprintf(text, reference)
			}
			o.send(ctx, "text", log, func() error {
				return o.opts.Messenger.SendText(ctx, ev.SessionKey, text)
			})

		case flow.IntentSendButtons:
			o.send(ctx, "buttons", log, func() error {
				return o.opts.Messenger.SendButtons(ctx, ev.SessionKey, in.Text, in.Buttons)
			})

		case flow.IntentSendList:
			o.send(ctx, "list", log, func() error {
				return o.opts.Messenger.SendList(ctx, ev.SessionKey, in.Text, in.ButtonLabel, in.Sections)
			})

		case flow.IntentClearSession:
			clearSess = true
		}
	}
	return clearSess, nil
}

// send delivers one outbound message. Channel failures are logged and
// counted but do not abort the rest of the intents.
func (o *Orchestrator) send(_ context.Context, kind string, log *logging.Logger, fn func() error) {
	if err := fn(); err != nil {
		log.Error("outbound send failed", "kind", kind, "error", err)
		o.opts.Metrics.ObserveOutbound(kind, "failed")
		return
	}
	o.opts.Metrics.ObserveOutbound(kind, "sent")
}

// notifyAsync looks the case up by its fresh reference and emails staff off
// the citizen's critical path.
func (o *Orchestrator) notifyAsync(reference string, log *logging.Logger) {
	if reference == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		c, err := o.opts.Repo.FindByReference(ctx, reference)
		if err != nil {
			log.Warn("notify lookup failed", "reference", reference, "error", err)
			return
		}
		if err := o.opts.Notifier.NotifyCaseCreated(ctx, *c); err != nil {
			log.Warn("staff notification failed", "reference", reference, "error", err)
		}
	}()
}

// failSession resets state and tells the citizen to retry, in their language
// when we know it.
func (o *Orchestrator) failSession(ctx context.Context, ev flow.Event, sess *session.Session, log *logging.Logger) {
	if err := o.opts.Sessions.Clear(ctx, ev.SessionKey); err != nil {
		log.Warn("session clear failed", "error", err)
	}
	lang := ""
	if sess != nil {
		lang = sess.Language
	}
	text := "Sorry, something went wrong on our side. Please try again in a few minutes."
	if o.opts.FlowDeps.Messages != nil {
		text = o.opts.FlowDeps.Messages.Text(lang, "submit.failure")
	}
	if err := o.opts.Messenger.SendText(ctx, ev.SessionKey, text); err != nil {
		log.Error("failure notice send failed", "error", err)
	}
}

// flowDeps snapshots the flow dependencies for one transition, refreshing
// the offered visit dates and binding case lookup to the repository.
func (o *Orchestrator) flowDeps(ctx context.Context) flow.Deps {
	deps := o.opts.FlowDeps
	if o.opts.AppointmentDays > 0 {
		deps.DateOffers = flow.ComputeDateOffers(o.now(), o.opts.AppointmentDays)
	}
	if deps.FindCase == nil {
		deps.FindCase = func(reference, phone string) (*cases.Case, bool) {
			var (
				c   *cases.Case
				err error
			)
			if reference != "" {
				c, err = o.opts.Repo.FindByReference(ctx, reference)
			} else {
				c, err = o.opts.Repo.FindLatestByPhone(ctx, phone)
			}
			if err != nil {
				return nil, false
			}
			return c, true
		}
	}
	return deps
}
