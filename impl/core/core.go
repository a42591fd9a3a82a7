// Package core holds the pass lifecycle: issuing passes and moving them between
// "pending entry" and "entry registered".
//
// Two transitions exist on purpose. SetPassStatus is an administrative override
// that always applies (last writer wins). RegisterScan serves the QR scan flow and
// is a single guarded store update, so two scans of the same code racing each
// other produce exactly one check-in.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entrypass/entity"
	"entrypass/lib/apperr"
	"entrypass/lib/clock"
	"entrypass/lib/sl"
)

type PassStore interface {
	CreatePass(ctx context.Context, pass *entity.Pass) (*entity.Pass, error)
	GetPass(ctx context.Context, id int64) (*entity.Pass, error)
	UpdatePassStatus(ctx context.Context, upd entity.StatusUpdate) (*entity.Pass, bool, error)
	ListPasses(ctx context.Context, search string) ([]*entity.Pass, error)
}

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
	Login(ctx context.Context, username, password string) (*entity.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
}

type Notifier interface {
	Publish()
	Subscribe() (<-chan struct{}, func())
}

type Core struct {
	store    PassStore
	auth     AuthService
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func New(store PassStore, notifier Notifier, log *slog.Logger) *Core {
	if store == nil {
		panic("pass store is nil")
	}
	if notifier == nil {
		panic("notifier is nil")
	}
	return &Core{
		store:    store,
		notifier: notifier,
		log:      log.With(sl.Module("core")),
		now:      time.Now,
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Core) timestamp() time.Time {
	return clock.Truncate(c.now())
}

// IssuePass creates a pending pass. The owner is the explicit actorId when given,
// otherwise the signed-in staff member. Issuing does not notify watchers.
func (c *Core) IssuePass(ctx context.Context, req *entity.IssueRequest, actor *entity.User) (*entity.Pass, error) {
	if req == nil {
		return nil, apperr.Validation("request is empty")
	}
	req.Normalize()
	if req.Name == "" || req.Surname == "" || req.NationalId == "" {
		return nil, apperr.Validation("name, surname and nationalId are required")
	}

	now := c.timestamp()
	pass := &entity.Pass{
		Name:            req.Name,
		Surname:         req.Surname,
		NationalId:      req.NationalId,
		Status:          entity.StatusPending,
		CreatedAt:       now,
		RecordCreatedAt: now,
		RecordUpdatedAt: now,
	}
	switch {
	case req.ActorId != nil:
		id := *req.ActorId
		pass.OwnerId = &id
	case actor != nil && actor.Id != 0:
		id := actor.Id
		pass.OwnerId = &id
	}

	created, err := c.store.CreatePass(ctx, pass)
	if err != nil {
		c.log.Error("create pass", sl.Err(err))
		return nil, fmt.Errorf("create pass: %w", err)
	}
	c.log.With(sl.Pass(created.Id)).Info("pass issued")
	return created, nil
}

func (c *Core) GetPass(ctx context.Context, id int64) (*entity.Pass, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid pass id %d", id)
	}
	pass, err := c.store.GetPass(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			c.log.With(sl.Pass(id)).Error("get pass", sl.Err(err))
		}
		return nil, fmt.Errorf("get pass: %w", err)
	}
	return pass, nil
}

func (c *Core) ListPasses(ctx context.Context, search string) ([]*entity.Pass, error) {
	passes, err := c.store.ListPasses(ctx, search)
	if err != nil {
		c.log.Error("list passes", sl.Err(err))
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return passes, nil
}

// SetPassStatus applies status regardless of the current state. Setting the
// current state again still rewrites CheckedInAt.
func (c *Core) SetPassStatus(ctx context.Context, id int64, status entity.Status) (*entity.Pass, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid pass id %d", id)
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}

	now := c.timestamp()
	upd := entity.StatusUpdate{
		Id:        id,
		Status:    status,
		UpdatedAt: now,
	}
	if status == entity.StatusRegistered {
		upd.CheckedInAt = &now
	}

	pass, err := c.update(ctx, upd)
	if err != nil {
		return nil, err
	}
	c.log.With(
		sl.Pass(id),
		slog.String("status", string(status)),
	).Info("pass status set")
	return pass, nil
}

// RegisterScan checks a pending pass in. A pass that does not exist and a pass
// that is already registered both yield NotFound; callers cannot tell them apart.
func (c *Core) RegisterScan(ctx context.Context, id int64) (*entity.Pass, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid pass id %d", id)
	}

	now := c.timestamp()
	pending := entity.StatusPending
	pass, err := c.update(ctx, entity.StatusUpdate{
		Id:          id,
		Expect:      &pending,
		Status:      entity.StatusRegistered,
		CheckedInAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.log.With(sl.Pass(id)).Warn("scan rejected: unknown or already registered")
		}
		return nil, err
	}
	c.log.With(sl.Pass(id)).Info("entry registered by scan")
	return pass, nil
}

func (c *Core) update(ctx context.Context, upd entity.StatusUpdate) (*entity.Pass, error) {
	pass, ok, err := c.store.UpdatePassStatus(ctx, upd)
	if err != nil {
		c.log.With(sl.Pass(upd.Id)).Error("update pass status", sl.Err(err))
		return nil, fmt.Errorf("update pass status: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("pass %d not found or already registered", upd.Id)
	}
	c.notifier.Publish()
	return pass, nil
}

// PassCode returns the text to encode into the pass QR image.
func (c *Core) PassCode(ctx context.Context, id int64) (*entity.PassCode, error) {
	pass, err := c.GetPass(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.PassCode{Id: pass.Id, Code: pass.Code()}, nil
}

func (c *Core) Subscribe() (<-chan struct{}, func()) {
	return c.notifier.Subscribe()
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, apperr.Internal("authenticate", fmt.Errorf("auth service not connected"))
	}
	return c.auth.UserByToken(token)
}

func (c *Core) Login(ctx context.Context, username, password string) (*entity.TokenPair, error) {
	if c.auth == nil {
		return nil, apperr.Internal("login", fmt.Errorf("auth service not connected"))
	}
	pair, err := c.auth.Login(ctx, username, password)
	if err != nil {
		c.log.With(slog.String("username", username)).Warn("login failed", sl.Err(err))
		return nil, err
	}
	c.log.With(slog.String("username", username)).Info("user logged in")
	return pair, nil
}

func (c *Core) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	if c.auth == nil {
		return nil, apperr.Internal("refresh", fmt.Errorf("auth service not connected"))
	}
	return c.auth.Refresh(ctx, refreshToken)
}
