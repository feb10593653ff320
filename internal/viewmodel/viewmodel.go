package viewmodel

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/metrics"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Collaborator is the remote finance API as seen by the view model.
// *client.Client satisfies it once bound to a credential.
type Collaborator interface {
	DashboardOverview(ctx context.Context) (*domain.DashboardOverview, error)
	ListBudgets(ctx context.Context) ([]domain.Budget, error)

	CreateAccount(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, input domain.UpdateAccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, input domain.UpdateTransactionInput) (*domain.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, id int64, category string) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	CreateTransfer(ctx context.Context, input domain.CreateTransferInput) (*domain.Transfer, error)
	UploadCSV(ctx context.Context, accountID int64, filename string, r io.Reader) (*domain.CSVImportResult, error)

	CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error)

	ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error)
	CreateCategoryRule(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error)
	ListCustomCategories(ctx context.Context) ([]domain.CategoryRule, error)
	CreateCustomCategory(ctx context.Context, input domain.CategoryRuleInput) (*domain.CategoryRule, error)
	UpdateCustomCategory(ctx context.Context, id int64, input domain.CategoryRuleInput) (*domain.CategoryRule, error)
	DeleteCustomCategory(ctx context.Context, id int64) error

	ListBills(ctx context.Context) ([]domain.Bill, error)
	CreateBill(ctx context.Context, input domain.CreateBillInput) (*domain.Bill, error)
}

// Option customises a DashboardViewModel
type Option func(*DashboardViewModel)

// WithPublisher sends view-model events to sessionID's subscribers
func WithPublisher(publisher websocket.EventPublisher, sessionID string) Option {
	return func(vm *DashboardViewModel) {
		vm.publisher = publisher
		vm.sessionID = sessionID
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(vm *DashboardViewModel) { vm.recorder = r }
}

// WithLogger replaces the global zerolog logger
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *DashboardViewModel) { vm.logger = logger }
}

// WithClock overrides the time source stamped on snapshots
func WithClock(now func() time.Time) Option {
	return func(vm *DashboardViewModel) { vm.now = now }
}

// DashboardViewModel holds the cached server snapshot plus the user's
// selection and search, and derives every figure the dashboard shows.
// It is safe for concurrent use; the lock is never held across a
// collaborator call.
type DashboardViewModel struct {
	collab    Collaborator
	publisher websocket.EventPublisher
	sessionID string
	recorder  metrics.Recorder
	logger    zerolog.Logger
	now       func() time.Time

	issued atomic.Uint64

	mu         sync.Mutex
	snapshot   *domain.DashboardSnapshot
	applied    uint64
	inFlight   int
	selected   *int64
	search     string
	view       View
	needsLogin bool
	lastErr    error
}

// New creates a view model over collaborator
func New(collaborator Collaborator, opts ...Option) *DashboardViewModel {
	vm := &DashboardViewModel{
		collab:    collaborator,
		publisher: &websocket.NoOpPublisher{},
		recorder:  metrics.NoOpRecorder{},
		logger:    log.Logger,
		now:       time.Now,
		view:      DashboardView(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Load fetches a fresh snapshot and replaces the cached one. Only the
// response to the most recently issued Load is applied; older responses
// return ErrStaleResponse and leave the cache untouched. On failure the
// previous snapshot stays visible.
func (vm *DashboardViewModel) Load(ctx context.Context) (*domain.DashboardSnapshot, error) {
	return vm.load(ctx, vm.issued.Add(1))
}

func (vm *DashboardViewModel) load(ctx context.Context, seq uint64) (*domain.DashboardSnapshot, error) {

	vm.mu.Lock()
	vm.inFlight++
	vm.mu.Unlock()
	defer func() {
		vm.mu.Lock()
		vm.inFlight--
		vm.mu.Unlock()
	}()

	overview, err := vm.collab.DashboardOverview(ctx)
	var budgets []domain.Budget
	if err == nil {
		budgets, err = vm.collab.ListBudgets(ctx)
	}
	if err != nil {
		return nil, vm.loadFailed(seq, err)
	}

	snap := &domain.DashboardSnapshot{
		User:         overview.User,
		Accounts:     overview.Accounts,
		Transactions: overview.Transactions,
		Summary:      overview.Summary,
		Budgets:      budgets,
		Sequence:     seq,
		LoadedAt:     vm.now(),
	}

	vm.mu.Lock()
	if seq != vm.issued.Load() || seq <= vm.applied {
		vm.mu.Unlock()
		vm.recorder.IncrementLoad(metrics.LoadStale)
		vm.logger.Debug().Uint64("sequence", seq).Msg("Discarded stale dashboard snapshot")
		return nil, domain.ErrStaleResponse
	}
	vm.snapshot = snap
	vm.applied = seq
	vm.needsLogin = false
	vm.lastErr = nil
	viewChanged := false
	if vm.selected != nil {
		if _, ok := snap.FindAccount(*vm.selected); !ok {
			vm.selected = nil
			vm.view = DashboardView()
			viewChanged = true
		}
	}
	view := vm.view
	vm.mu.Unlock()

	vm.recorder.IncrementLoad(metrics.LoadApplied)
	vm.logger.Debug().
		Uint64("sequence", seq).
		Int("accounts", len(snap.Accounts)).
		Int("transactions", len(snap.Transactions)).
		Int("budgets", len(snap.Budgets)).
		Msg("Dashboard snapshot replaced")

	vm.publisher.Publish(vm.sessionID, websocket.SnapshotReplaced(snap))
	if viewChanged {
		vm.publisher.Publish(vm.sessionID, websocket.ViewChanged(view))
	}
	return snap, nil
}

func (vm *DashboardViewModel) loadFailed(seq uint64, err error) error {
	vm.recorder.IncrementLoad(metrics.LoadFailed)
	vm.logger.Warn().Err(err).Uint64("sequence", seq).Msg("Dashboard load failed")

	vm.mu.Lock()
	latest := seq == vm.issued.Load()
	if latest {
		vm.lastErr = err
	}
	vm.mu.Unlock()

	vm.noteAuth(err)
	return err
}

// noteAuth flags the session for re-login when err is an auth failure
func (vm *DashboardViewModel) noteAuth(err error) {
	if !domain.IsAuth(err) {
		return
	}
	vm.mu.Lock()
	already := vm.needsLogin
	vm.needsLogin = true
	vm.mu.Unlock()

	if !already {
		vm.publisher.Publish(vm.sessionID, websocket.SessionExpired(map[string]string{"reason": err.Error()}))
	}
}

// ReloadError means a mutation was accepted but the reload after it
// failed. The cached snapshot does not show the change until the next
// successful load.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return "change saved but reload failed: " + e.Err.Error()
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}

// resync runs the mandatory reload after a successful mutation. When that
// reload is overtaken, the change is only visible once a load issued after
// it has been applied; a newer load that failed instead is reported as a
// ReloadError.
func (vm *DashboardViewModel) resync(ctx context.Context) error {
	seq := vm.issued.Add(1)
	_, err := vm.load(ctx, seq)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrStaleResponse) {
		return &ReloadError{Err: err}
	}

	vm.mu.Lock()
	applied, lastErr := vm.applied, vm.lastErr
	vm.mu.Unlock()
	if applied < seq && lastErr != nil {
		return &ReloadError{Err: lastErr}
	}
	return nil
}

// Snapshot returns the cached snapshot, or nil before the first successful
// load. The snapshot is replaced, never modified, so callers may read it
// without locking but must not change it.
func (vm *DashboardViewModel) Snapshot() *domain.DashboardSnapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshot
}

// Loading reports whether any Load is in flight
func (vm *DashboardViewModel) Loading() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.inFlight > 0
}

// NeedsLogin reports whether the credential was rejected. The presentation
// layer should send the user back to login.
func (vm *DashboardViewModel) NeedsLogin() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.needsLogin
}

// LastError returns the error of the latest failed load, cleared by the next success
func (vm *DashboardViewModel) LastError() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.lastErr
}
