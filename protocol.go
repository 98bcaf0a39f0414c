// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lendgov is the administrative control plane of a lending protocol:
// governance, multisig, upgrade and recovery over a shared transactional
// store.
package lendgov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database"
	"github.com/blinklabs-io/lendgov/database/models"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/blinklabs-io/lendgov/reentrancy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ParameterObserver is implemented by the external modules that react to
// control plane changes. Callbacks run inside the changing call while it
// holds the call lock; an error aborts it. State-changing calls made with the
// context passed to the callback fail with common.ErrReentrancyDetected.
// Making them on any other context from the callback goroutine deadlocks and
// is not supported. Read calls are allowed.
type ParameterObserver interface {
	OnParameterChanged(ctx context.Context, name params.Name, value string) error
	OnOwnershipTransferred(
		ctx context.Context,
		account common.Address,
		previousOwner common.Address,
		newOwner common.Address,
	) error
}

var ErrClosed = errors.New("protocol is closed")

type Protocol struct {
	db            *database.Database
	eventBus      *event.EventBus
	logger        *slog.Logger
	metrics       *protocolMetrics
	tracer        trace.Tracer
	shutdownFuncs []func(context.Context) error
	config        Config
	mu            sync.Mutex
	closeMu       sync.RWMutex
	closed        atomic.Bool
	ownsDB        bool
	ownsEventBus  bool
}

// New opens the storage and returns a Protocol ready to accept calls
func New(opts ...ConfigOptionFunc) (*Protocol, error) {
	cfg := NewConfig(opts...)
	p := &Protocol{
		config:   cfg,
		logger:   cfg.logger,
		eventBus: cfg.eventBus,
		db:       cfg.db,
	}
	if p.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.tracing {
		if err := p.setupTracing(); err != nil {
			return nil, err
		}
	}
	p.tracer = otel.Tracer(tracerName)
	if cfg.promRegistry != nil {
		p.metrics = &protocolMetrics{}
		p.metrics.init(cfg.promRegistry)
	}
	if p.eventBus == nil {
		p.eventBus = event.NewEventBus(cfg.promRegistry, p.logger)
		p.ownsEventBus = true
	}
	if p.db == nil {
		db, err := database.New(&database.Config{
			Logger:         p.logger,
			PromRegistry:   cfg.promRegistry,
			DataDir:        cfg.dataDir,
			BlobPlugin:     cfg.blobPlugin,
			MetadataPlugin: cfg.metadataPlugin,
		})
		if db == nil {
			p.shutdown()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		p.db = db
		p.ownsDB = true
		if err != nil {
			var tsErr database.CommitTimestampError
			if !errors.As(err, &tsErr) {
				p.shutdown()
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			// Blob state is authoritative, only the audit trail may lag
			p.logger.Warn(
				"database commit timestamps differ, audit log may be incomplete",
				"component", "protocol",
				"error", err,
			)
		}
	}
	initialized, err := p.Initialized()
	if err != nil {
		p.shutdown()
		return nil, err
	}
	p.metrics.setInitialized(initialized)
	return p, nil
}

// Close releases the storage and event bus if the Protocol created them
func (p *Protocol) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Wait for in-flight reads
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	return p.shutdown()
}

func (p *Protocol) shutdown() error {
	var errs []error
	if p.ownsDB && p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if p.ownsEventBus && p.eventBus != nil {
		p.eventBus.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}

func (p *Protocol) EventBus() *event.EventBus {
	return p.eventBus
}

func (p *Protocol) Database() *database.Database {
	return p.db
}

// call is the state of a single state-changing entrypoint invocation
type call struct {
	ctx     context.Context
	kv      types.KV
	now     uint64
	subject string
	detail  string
	events  []event.Event
}

func (c *call) emit(eventType event.EventType, data any) {
	c.events = append(c.events, event.NewEvent(eventType, data))
}

// mutate runs fn as one atomic call. Every write made by fn and the audit
// entry commit together, or nothing does. Events are published only after
// the commit.
func (p *Protocol) mutate(
	ctx context.Context,
	entrypoint string,
	caller common.Address,
	fn func(*call) error,
) error {
	return p.run(ctx, entrypoint, caller, true, fn)
}

func (p *Protocol) run(
	ctx context.Context,
	entrypoint string,
	caller common.Address,
	needInit bool,
	fn func(*call) error,
) error {
	start := time.Now()
	ctx, span := p.tracer.Start(
		ctx,
		entrypoint,
		trace.WithAttributes(
			attribute.String("lendgov.entrypoint", entrypoint),
			attribute.String("lendgov.caller", caller.String()),
		),
	)
	defer span.End()
	c := &call{ctx: ctx}
	err := p.guard(ctx)
	if err == nil {
		err = p.serialized(func() error {
			return p.execute(entrypoint, caller, needInit, c, fn)
		})
	}
	outcome := outcomeOf(err)
	p.metrics.observe(entrypoint, outcome.String(), start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Debug(
			"call rejected",
			"component", "protocol",
			"entrypoint", entrypoint,
			"caller", caller,
			"code", common.Code(err),
			"error", err,
		)
		return err
	}
	span.SetAttributes(attribute.String("lendgov.subject", c.subject))
	p.logger.Info(
		entrypoint,
		"component", "protocol",
		"caller", caller,
		"subject", c.subject,
	)
	for _, evt := range c.events {
		p.eventBus.Publish(evt.Type, evt)
	}
	return nil
}

// serialized runs fn while holding the call lock. Only one call touches
// the store at a time.
func (p *Protocol) serialized(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn()
}

// guard rejects calls made from inside an observer callback. Calls from
// other goroutines wait on the call lock instead.
func (p *Protocol) guard(ctx context.Context) error {
	return reentrancy.Check(ctx)
}

func (p *Protocol) execute(
	entrypoint string,
	caller common.Address,
	needInit bool,
	c *call,
	fn func(*call) error,
) error {
	if p.closed.Load() {
		return ErrClosed
	}
	c.now = p.config.timeSource()
	txn := p.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		c.kv = txn.KV()
		if needInit {
			if err := requireInitialized(c.kv); err != nil {
				return err
			}
		}
		if err := fn(c); err != nil {
			return err
		}
		txn.SetAudit(&models.AuditEntry{
			Timestamp:  types.Uint64(c.now),
			Entrypoint: entrypoint,
			Caller:     caller.String(),
			Subject:    c.subject,
			Outcome:    models.OutcomeOk,
			Detail:     c.detail,
		})
		return nil
	})
	if err != nil {
		c.events = nil
		p.auditFailure(entrypoint, caller, c, err)
	}
	return err
}

// auditFailure records a rejected call after its changes were rolled back
func (p *Protocol) auditFailure(
	entrypoint string,
	caller common.Address,
	c *call,
	callErr error,
) {
	err := p.db.RecordAudit(&models.AuditEntry{
		Timestamp:  types.Uint64(c.now),
		Entrypoint: entrypoint,
		Caller:     caller.String(),
		Subject:    c.subject,
		Outcome:    outcomeOf(callErr),
		Code:       common.Code(callErr),
		Detail:     callErr.Error(),
	})
	if err != nil {
		p.logger.Warn(
			"failed to record audit entry",
			"component", "protocol",
			"entrypoint", entrypoint,
			"error", err,
		)
	}
}

func outcomeOf(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeOk
	case common.Code(err) == common.CodeInternal:
		return models.OutcomeFailed
	default:
		return models.OutcomeRejected
	}
}

// view runs a read-only function against the committed state
func (p *Protocol) view(fn func(types.KV) error) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed.Load() {
		return ErrClosed
	}
	txn := p.db.BlobTransaction(false)
	defer txn.Release()
	return fn(txn.KV())
}

// query is view for state that only exists after Initialize
func (p *Protocol) query(fn func(types.KV) error) error {
	return p.view(func(kv types.KV) error {
		if err := requireInitialized(kv); err != nil {
			return err
		}
		return fn(kv)
	})
}

// callout runs an observer callback under the reentrancy guard
func (p *Protocol) callout(c *call, name string, fn func(context.Context) error) error {
	if p.config.observer == nil {
		return nil
	}
	return reentrancy.Call(c.ctx, c.kv, name, fn)
}

// AuditEntries returns recorded entrypoint calls, oldest first. It waits for
// the call in progress, so it fails when made from an observer callback.
func (p *Protocol) AuditEntries(
	ctx context.Context,
	query models.AuditQuery,
) ([]models.AuditEntry, error) {
	if err := p.guard(ctx); err != nil {
		return nil, err
	}
	var ret []models.AuditEntry
	err := p.serialized(func() error {
		if p.closed.Load() {
			return ErrClosed
		}
		var err error
		ret, err = p.db.AuditEntries(query)
		return err
	})
	return ret, err
}
