package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"go.uber.org/zap"
)

// DefaultDebounceInterval is the quiet period before an auto-push.
const DefaultDebounceInterval = 3 * time.Second

// endpointPattern matches a sync endpoint such as
// https://host/macros/s/<deployment>/exec inside arbitrary text.
var endpointPattern = regexp.MustCompile(`(https://[A-Za-z0-9.-]+(?::[0-9]+)?/(?:[A-Za-z0-9._~-]+/)*[A-Za-z0-9_-]+/exec)(?:[^A-Za-z0-9_./-]|$)`)

// MatchEndpoint returns the first endpoint URL found in text.
func MatchEndpoint(text string) (string, bool) {
	m := endpointPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// syncEngine keeps the local store and the remote partition eventually
// consistent. All flags live on the instance; Start and Stop bound the
// background work.
type syncEngine struct {
	BaseService
	store        portsrepo.LocalStateStore
	gateway      gateways.RemoteGateway
	connectivity ports.ConnectivitySource
	bootstrapURL string
	debounce     time.Duration

	// resolveMu serialises endpoint resolution so one bootstrap fetch serves
	// concurrent callers.
	resolveMu sync.Mutex

	mu               sync.Mutex
	online           bool
	endpoint         string
	remoteConfigured bool
	serverResponding bool
	lastPushAt       time.Time
	lastPullAt       time.Time
	timer            *time.Timer
	timerGen         uint64
	started          bool
	stopped          bool
	runCtx           context.Context
	cancel           context.CancelFunc
	unsubscribe      func()
	wg               sync.WaitGroup

	pushing atomic.Bool
}

// SyncEngineOption is a functional option for configuring the sync engine
type SyncEngineOption func(*syncEngine)

// WithConnectivity sets the online/offline signal. Without it the engine
// assumes it is online.
func WithConnectivity(source ports.ConnectivitySource) SyncEngineOption {
	return func(e *syncEngine) {
		e.connectivity = source
	}
}

// WithBootstrapURL sets the URL of the bootstrap document.
func WithBootstrapURL(url string) SyncEngineOption {
	return func(e *syncEngine) {
		e.bootstrapURL = url
	}
}

// WithDebounceInterval overrides the auto-push quiet period.
func WithDebounceInterval(d time.Duration) SyncEngineOption {
	return func(e *syncEngine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithSyncLogger sets the logger used by background work.
func WithSyncLogger(logger *zap.Logger) SyncEngineOption {
	return func(e *syncEngine) {
		e.Logger = logger
	}
}

// NewSyncEngine creates a sync engine over the local store and the gateway.
func NewSyncEngine(store portsrepo.LocalStateStore, gateway gateways.RemoteGateway, options ...SyncEngineOption) portssvc.SyncEngineFacade {
	e := &syncEngine{
		store:    store,
		gateway:  gateway,
		debounce: DefaultDebounceInterval,
		online:   true,
	}
	for _, option := range options {
		option(e)
	}
	if e.connectivity != nil {
		e.online = e.connectivity.Online()
	}
	return e
}

// Ensure syncEngine implements the SyncEngineFacade interface
var _ portssvc.SyncEngineFacade = (*syncEngine)(nil)

func (e *syncEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("sync engine already started")
	}
	e.started = true
	e.runCtx, e.cancel = context.WithCancel(ctx)
	if e.connectivity != nil {
		e.online = e.connectivity.Online()
	}
	e.unsubscribe = e.store.Subscribe(e.onStoreChange)

	if e.connectivity != nil {
		e.wg.Add(1)
		go e.watchConnectivity(e.runCtx, e.connectivity.Changes())
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.ResolveEndpoint(e.runCtx)
	}()

	e.LogInfo(ctx, "Sync engine started",
		zap.Bool("online", e.online),
		zap.Duration("debounce", e.debounce))
	return nil
}

func (e *syncEngine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
	e.cancel()
	unsubscribe := e.unsubscribe
	e.mu.Unlock()

	unsubscribe()
	e.wg.Wait()
	e.LogInfo(context.Background(), "Sync engine stopped")
}

func (e *syncEngine) watchConnectivity(ctx context.Context, changes <-chan bool) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case online := <-changes:
			e.mu.Lock()
			cameOnline := online && !e.online
			e.online = online
			e.mu.Unlock()
			e.LogInfo(ctx, "Connectivity changed", zap.Bool("online", online))
			if cameOnline {
				// An engine started offline has not resolved its endpoint yet.
				e.wg.Add(1)
				go func() {
					defer e.wg.Done()
					e.ResolveEndpoint(ctx)
				}()
			}
		}
	}
}

func (e *syncEngine) isOnline() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

func (e *syncEngine) ResolveEndpoint(ctx context.Context) (string, bool) {
	e.resolveMu.Lock()
	defer e.resolveMu.Unlock()

	e.mu.Lock()
	cached, online := e.endpoint, e.online
	e.mu.Unlock()
	if cached != "" {
		return cached, true
	}

	if endpoint, ok := MatchEndpoint(e.store.State().Settings.RemoteEndpoint); ok {
		e.setEndpoint(endpoint)
		e.LogInfo(ctx, "Remote endpoint taken from settings", zap.String("endpoint", endpoint))
		return endpoint, true
	}

	if !online || e.bootstrapURL == "" {
		return "", false
	}

	body, err := e.gateway.FetchBootstrap(ctx, e.bootstrapURL)
	if err != nil {
		e.LogInfo(ctx, "Remote configuration unavailable", zap.Error(err))
		return "", false
	}
	endpoint, ok := MatchEndpoint(body)
	if !ok {
		e.LogInfo(ctx, "Bootstrap document carries no endpoint", zap.String("bootstrap_url", e.bootstrapURL))
		return "", false
	}
	e.setEndpoint(endpoint)
	e.LogInfo(ctx, "Remote endpoint resolved", zap.String("endpoint", endpoint))
	return endpoint, true
}

func (e *syncEngine) setEndpoint(endpoint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endpoint = endpoint
	e.remoteConfigured = true
}

// partitionKey returns the key the session user syncs against.
func (e *syncEngine) partitionKey(state domain.LocalState) (string, bool) {
	user, ok := state.CurrentUser()
	if !ok {
		return "", false
	}
	return user.PartitionKey(), true
}

func (e *syncEngine) markResponding(responding bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.serverResponding = responding
}

func (e *syncEngine) Push(ctx context.Context) domain.SyncOutcome {
	return e.push(ctx, "")
}

func (e *syncEngine) PushPartition(ctx context.Context, companyID string) domain.SyncOutcome {
	if companyID == "" || companyID == domain.GlobalPartitionKey || companyID == domain.SystemTenantID {
		e.LogWarn(ctx, "Push skipped: not a tenant key", zap.String("partition_key", companyID))
		return domain.SyncSkipped
	}
	return e.push(ctx, companyID)
}

// push sends the session snapshot under the session key, or, when tenant is
// set, that tenant's records under its own key.
func (e *syncEngine) push(ctx context.Context, tenant string) domain.SyncOutcome {
	if !e.isOnline() {
		e.LogDebug(ctx, "Push skipped: offline")
		return domain.SyncSkipped
	}
	endpoint, ok := e.ResolveEndpoint(ctx)
	if !ok {
		e.LogDebug(ctx, "Push skipped: remote not configured")
		return domain.SyncSkipped
	}
	if !e.pushing.CompareAndSwap(false, true) {
		e.LogDebug(ctx, "Push skipped: another push is in flight")
		return domain.SyncSkipped
	}
	defer e.pushing.Store(false)

	// Read the state only now so a delayed push sends the latest snapshot.
	state := e.store.State()
	key, collections := tenant, state.Collections
	if tenant == "" {
		if key, ok = e.partitionKey(state); !ok {
			e.LogDebug(ctx, "Push skipped: no session")
			return domain.SyncSkipped
		}
	} else {
		collections = state.ForTenant(tenant)
	}
	doc, err := domain.EncodeCollections(collections)
	if err != nil {
		e.LogError(ctx, err, "Failed to encode local state for push")
		return domain.SyncFailed
	}

	err = e.gateway.SendPush(ctx, endpoint, domain.SyncPushRequest{
		Action:    domain.ActionSyncPush,
		CompanyID: key,
		Data:      doc,
	})
	if err != nil {
		e.markResponding(false)
		e.LogError(ctx, err, "Push failed", zap.String("partition_key", key))
		return domain.SyncFailed
	}

	e.mu.Lock()
	e.serverResponding = true
	e.lastPushAt = time.Now()
	e.mu.Unlock()
	e.LogInfo(ctx, "Push sent",
		zap.String("partition_key", key),
		zap.Int("transactions", len(collections.Transactions)),
		zap.Int("users", len(collections.Users)))
	return domain.SyncSent
}

func (e *syncEngine) Pull(ctx context.Context) domain.SyncOutcome {
	if !e.isOnline() {
		e.LogDebug(ctx, "Pull skipped: offline")
		return domain.SyncSkipped
	}
	endpoint, ok := e.ResolveEndpoint(ctx)
	if !ok {
		e.LogDebug(ctx, "Pull skipped: remote not configured")
		return domain.SyncSkipped
	}
	key, ok := e.partitionKey(e.store.State())
	if !ok {
		e.LogDebug(ctx, "Pull skipped: no session")
		return domain.SyncSkipped
	}

	resp, err := e.gateway.FetchPull(ctx, endpoint, key)
	if err != nil {
		e.markResponding(false)
		e.LogError(ctx, err, "Pull failed", zap.String("partition_key", key))
		return domain.SyncFailed
	}
	e.mu.Lock()
	e.serverResponding = true
	e.lastPullAt = time.Now()
	e.mu.Unlock()

	if resp.Status != domain.StatusSuccess || resp.Data == nil {
		e.LogWarn(ctx, "Pull returned no data",
			zap.String("partition_key", key),
			zap.String("status", resp.Status),
			zap.String("message", resp.Message))
		return domain.SyncNoData
	}

	patch, decodeErr := domain.DecodeCollections(*resp.Data)
	if decodeErr != nil {
		e.LogWarn(ctx, "Some pulled collections were ignored", zap.Error(decodeErr))
	}

	var changed []domain.Collection
	err = e.store.Update(ctx, portsrepo.OriginRemote, func(state *domain.LocalState) ([]domain.Collection, error) {
		changed = patch.ApplyTo(&state.Collections)
		if state.EnsureSuperAdmin() && !slices.Contains(changed, domain.CollectionUsers) {
			changed = append(changed, domain.CollectionUsers)
		}
		return changed, nil
	})
	if err != nil {
		e.LogError(ctx, err, "Failed to apply pulled state")
		return domain.SyncFailed
	}
	e.LogInfo(ctx, "Pull merged",
		zap.String("partition_key", key),
		zap.Int("collections", len(changed)))
	return domain.SyncMerged
}

func (e *syncEngine) LookupUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if !e.isOnline() {
		return nil, fmt.Errorf("%w: offline", apperrors.ErrNotFound)
	}
	endpoint, ok := e.ResolveEndpoint(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: remote not configured", apperrors.ErrNotFound)
	}
	resp, err := e.gateway.LookupUser(ctx, endpoint, email)
	if err != nil {
		e.markResponding(false)
		e.LogError(ctx, err, "Remote user lookup failed")
		return nil, fmt.Errorf("%w: remote lookup failed", apperrors.ErrNotFound)
	}
	e.markResponding(true)
	if resp.Status != domain.StatusSuccess || resp.Data == nil {
		return nil, apperrors.ErrNotFound
	}
	return resp.Data, nil
}

func (e *syncEngine) Status() portssvc.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return portssvc.SyncStatus{
		Online:           e.online,
		RemoteConfigured: e.remoteConfigured,
		ServerResponding: e.serverResponding,
		Endpoint:         e.endpoint,
		PushInFlight:     e.pushing.Load(),
		PushScheduled:    e.timer != nil,
		LastPushAt:       e.lastPushAt,
		LastPullAt:       e.lastPullAt,
	}
}

// onStoreChange runs after every committed store update.
func (e *syncEngine) onStoreChange(event portsrepo.ChangeEvent) {
	if event.Origin != portsrepo.OriginLocal {
		return
	}
	if event.Touches(domain.CollectionSettings) {
		e.invalidateEndpointIfChanged()
	}
	if !event.Touches(domain.GlobalCollections...) {
		return
	}
	if !e.store.State().Settings.AutoSync {
		return
	}
	e.schedulePush()
}

// invalidateEndpointIfChanged drops the cached endpoint when the settings
// now name a different one.
func (e *syncEngine) invalidateEndpointIfChanged() {
	configured, ok := MatchEndpoint(e.store.State().Settings.RemoteEndpoint)
	e.mu.Lock()
	defer e.mu.Unlock()
	if ok && configured != e.endpoint {
		e.endpoint = ""
		e.remoteConfigured = false
	}
}

// schedulePush (re)arms the trailing-edge debounce timer.
func (e *syncEngine) schedulePush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.stopped || !e.online || !e.remoteConfigured {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timerGen++
	gen := e.timerGen
	e.timer = time.AfterFunc(e.debounce, func() { e.fireScheduledPush(gen) })
}

func (e *syncEngine) fireScheduledPush(gen uint64) {
	e.mu.Lock()
	if gen != e.timerGen || e.stopped {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	ctx := e.runCtx
	e.wg.Add(1)
	e.mu.Unlock()

	defer e.wg.Done()
	e.Push(ctx)
}
