package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
	"github.com/dmitrijs2005/mapfriends/internal/client/client"
	"github.com/dmitrijs2005/mapfriends/internal/client/i18n"
	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/providers"
	"github.com/dmitrijs2005/mapfriends/internal/client/storage"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

const tracerName = "github.com/dmitrijs2005/mapfriends/internal/client/session"

// Deps are the collaborators of a Controller. Backend and Store are
// required; the rest have defaults or may be left nil.
type Deps struct {
	Backend    client.Backend
	Profiles   client.ProfileSource
	Store      *storage.Store
	Classifier *autherr.Classifier
	Google     providers.Adapter
	Apple      providers.Adapter
	Logger     logging.Logger
	Tracer     trace.Tracer
}

type Options struct {
	// WriteRetries is the number of extra attempts for a failed store write.
	WriteRetries int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

// Controller owns the session state of the signed-in user.
type Controller struct {
	backend  client.Backend
	remote   client.ProfileSource
	store    *storage.Store
	classify *autherr.Classifier
	google   providers.Adapter
	apple    providers.Adapter
	log      logging.Logger
	tracer   trace.Tracer
	opts     Options

	mu    sync.Mutex
	state State

	// committed holds the last persisted values, used for rollback.
	committed struct {
		profile *models.UserProfile
		flags   models.OnboardingFlags
	}

	// gen is taken by every operation, doneGen is the newest finished one.
	gen     uint64
	doneGen uint64

	// authGen is taken by every sign-in, settledAuth is the newest one that
	// attached. authInFlight counts running sign-ins.
	authGen      uint64
	settledAuth  uint64
	authInFlight int

	// deferred is the latest principal event received while a sign-in ran.
	// It is replayed when the last sign-in ends without attaching.
	deferred    *models.Principal
	hasDeferred bool

	// mutGen orders mutations, profileGen and flagsGen name the mutation
	// that last touched each record.
	mutGen     uint64
	profileGen uint64
	flagsGen   uint64
	pending    int

	// pubMu is taken before mu is released so subscribers see snapshots in
	// order.
	pubMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	ctx         context.Context
	unsubscribe func()
}

func New(deps Deps, opts Options) *Controller {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	classify := deps.Classifier
	if classify == nil {
		classify = autherr.NewClassifier(i18n.MustLoad().Catalog(i18n.BaseLocale))
	}
	if opts.WriteRetries < 0 {
		opts.WriteRetries = 0
	}

	return &Controller{
		backend:  deps.Backend,
		remote:   deps.Profiles,
		store:    deps.Store,
		classify: classify,
		google:   deps.Google,
		apple:    deps.Apple,
		log:      log.With("component", "session"),
		tracer:   tracer,
		opts:     opts,
		state:    State{Phase: PhaseResolving, IsLoading: true},
		subs:     make(map[int]func(State)),
		ctx:      context.Background(),
	}
}

// Start subscribes to the backend principal stream. ctx bounds the work done
// for principals the backend restores on its own.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	unsub := c.backend.Subscribe(c.onPrincipal)

	c.mu.Lock()
	c.unsubscribe = unsub
	c.mu.Unlock()
}

// Close stops listening to the backend.
func (c *Controller) Close() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every published state. fn runs synchronously
// on the publishing goroutine and must not call methods of c.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.pubMu.Lock()
		defer c.pubMu.Unlock()
		delete(c.subs, id)
	}
}

// publishLocked releases mu and delivers the current state to subscribers.
func (c *Controller) publishLocked() {
	snap := c.state.clone()
	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	for _, fn := range c.subs {
		fn(snap)
	}
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.publishLocked()
}

func (c *Controller) busyLocked() bool {
	return c.doneGen != c.gen
}

// run wraps an operation: it clears the error, raises IsLoading and, if no
// newer operation started meanwhile, publishes the outcome.
func (c *Controller) run(ctx context.Context, op string, fn func(ctx context.Context, log logging.Logger) error) error {
	ctx, span := c.tracer.Start(ctx, "session."+op)
	defer span.End()

	opID := uuid.NewString()
	span.SetAttributes(attribute.String("op_id", opID))
	log := c.log.With("op", op, "op_id", opID)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state.Error = nil
	c.state.IsLoading = true
	c.publishLocked()

	log.Debug(ctx, "operation started")
	err := fn(ctx, log)
	ae := c.classify.Classify(err)

	if ae != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ae.Kind))
		log.Warn(ctx, "operation failed", "kind", ae.Kind, "code", ae.Code, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
		log.Debug(ctx, "operation done")
	}

	c.mu.Lock()
	if gen == c.gen {
		c.doneGen = gen
		c.state.IsLoading = c.state.Phase == PhaseResolving
		c.state.Error = ae
		c.publishLocked()
	} else {
		span.SetAttributes(attribute.Bool("superseded", true))
		c.mu.Unlock()
	}

	if ae != nil {
		return ae
	}
	return nil
}

// onPrincipal reacts to principal changes the backend reports on its own,
// such as session restoration or remote sign-out.
func (c *Controller) onPrincipal(p *models.Principal) {
	c.mu.Lock()
	ctx := c.ctx

	if c.authInFlight > 0 {
		// The running sign-in attaches its principal with provider hints.
		c.deferred = clonePrincipal(p)
		c.hasDeferred = true
		c.mu.Unlock()
		return
	}

	if p == nil {
		c.resetLocked()
		c.state.IsLoading = c.busyLocked()
		c.publishLocked()
		return
	}

	if c.state.Session != nil && c.state.Session.UID == p.UID {
		if c.state.Phase == PhaseResolving {
			c.state.Phase = PhaseSignedIn
			c.state.IsLoading = c.busyLocked()
			c.publishLocked()
			return
		}
		c.mu.Unlock()
		return
	}
	ag := c.authGen
	c.mu.Unlock()

	log := c.log.With("op", "restore", "uid", p.UID)
	a := c.load(ctx, log, p, models.ProfileHint{})

	c.mu.Lock()
	if c.authGen != ag || c.authInFlight > 0 {
		c.mu.Unlock()
		log.Debug(ctx, "restored principal superseded by sign-in")
		return
	}
	c.attachLocked(a)
	c.state.IsLoading = c.busyLocked()
	c.publishLocked()
	log.Info(ctx, "session restored")
}

// resetLocked drops the in-memory session. Persistent records are kept.
func (c *Controller) resetLocked() {
	c.state.Phase = PhaseSignedOut
	c.state.Session = nil
	c.state.Profile = nil
	c.state.Onboarding = models.OnboardingFlags{}
	c.state.Pending = false
	c.committed.profile = nil
	c.committed.flags = models.OnboardingFlags{}
}

// takeDeferredLocked returns and clears the event held back by running
// sign-ins. It reports false while a sign-in is still in flight.
func (c *Controller) takeDeferredLocked() (*models.Principal, bool) {
	if c.authInFlight > 0 || !c.hasDeferred {
		return nil, false
	}
	p := c.deferred
	c.deferred, c.hasDeferred = nil, false
	return p, true
}

func clonePrincipal(p *models.Principal) *models.Principal {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (c *Controller) attachLocked(a attached) {
	c.state.Phase = PhaseSignedIn
	c.state.Session = &a.session
	p := a.profile.Clone()
	c.state.Profile = &p
	c.state.Onboarding = a.flags
	c.state.Pending = false

	committed := a.profile.Clone()
	c.committed.profile = &committed
	c.committed.flags = a.flags
}
