// Package session gates views on the signed-in state of one browsing
// session.
//
// A Controller starts in StateUnknown and moves to StateAnonymous or
// StateAuthenticated on each identity provider notification. Decide is a
// pure function of that state; it never fetches data.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/thread-storefront/domain"
	"go.uber.org/zap"
)

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthSource is the identity provider as the controller sees it.
type AuthSource interface {
	Subscribe(fn func(user *domain.User)) (unsubscribe func())
	SignInWithToken(ctx context.Context, token string) (domain.User, error)
}

type CartCounter interface {
	Count(ctx context.Context, userID string) (int, error)
}

type OutcomeKind int

const (
	Render OutcomeKind = iota
	Redirect
	Pending
)

func (k OutcomeKind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	default:
		return "render"
	}
}

type Outcome struct {
	Kind   OutcomeKind `json:"-"`
	View   View        `json:"view"`
	Target View        `json:"target,omitempty"`
}

type Controller struct {
	counter CartCounter
	logger  *zap.Logger

	mu          sync.RWMutex
	state       State
	user        *domain.User
	degraded    bool
	cartCount   int
	unsubscribe func()
}

func NewController(counter CartCounter, logger *zap.Logger) *Controller {
	return &Controller{counter: counter, logger: logger, state: StateUnknown}
}

// Start subscribes to auth. A nil or panicking source leaves the controller
// degraded: public views still render and protected views redirect to login.
// A bootstrap token, when given, is tried once; failure only logs.
func (c *Controller) Start(ctx context.Context, auth AuthSource, bootstrapToken string) {
	if err := c.subscribe(ctx, auth); err != nil {
		c.logger.Error("identity provider unavailable, protected views disabled", zap.Error(err))
		c.mu.Lock()
		c.degraded = true
		c.mu.Unlock()
		return
	}
	if bootstrapToken == "" {
		return
	}
	if _, err := auth.SignInWithToken(ctx, bootstrapToken); err != nil {
		c.logger.Warn("bootstrap token sign-in failed", zap.Error(err))
	}
}

func (c *Controller) subscribe(ctx context.Context, auth AuthSource) (err error) {
	if auth == nil {
		return &domain.ConfigurationError{Component: "identity provider", Err: errors.New("no auth source")}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ConfigurationError{Component: "identity provider", Err: fmt.Errorf("subscribe: %v", r)}
		}
	}()
	unsubscribe := auth.Subscribe(func(user *domain.User) {
		c.OnAuthChanged(ctx, user)
	})
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

// Stop detaches from the auth source.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// OnAuthChanged applies one identity notification and refreshes the cart badge.
func (c *Controller) OnAuthChanged(ctx context.Context, user *domain.User) {
	c.mu.Lock()
	if user == nil {
		c.state = StateAnonymous
		c.user = nil
	} else {
		u := *user
		c.state = StateAuthenticated
		c.user = &u
	}
	c.mu.Unlock()

	c.RefreshCartCount(ctx)
}

// RefreshCartCount sets the badge to 0 for anonymous sessions without asking
// storage. A failed lookup also shows 0.
func (c *Controller) RefreshCartCount(ctx context.Context) {
	user, ok := c.User()
	if !ok || c.counter == nil {
		c.setCount(0)
		return
	}
	n, err := c.counter.Count(ctx, user.ID)
	if err != nil {
		c.logger.Warn("cart count refresh failed", zap.String("user_id", user.ID), zap.Error(err))
		n = 0
	}
	c.setCount(n)
}

func (c *Controller) setCount(n int) {
	c.mu.Lock()
	c.cartCount = n
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) User() (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

func (c *Controller) CartCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cartCount
}

func (c *Controller) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

func (c *Controller) Decide(view View) Outcome {
	c.mu.RLock()
	state, degraded := c.state, c.degraded
	c.mu.RUnlock()
	return Decide(state, degraded, view)
}

// Decide is the routing table.
func Decide(state State, degraded bool, view View) Outcome {
	if !view.Protected() {
		if view == ViewLogin && state == StateAuthenticated {
			return Outcome{Kind: Redirect, View: view, Target: ViewAccount}
		}
		return Outcome{Kind: Render, View: view}
	}

	switch {
	case state == StateAuthenticated:
		return Outcome{Kind: Render, View: view}
	case degraded, state == StateAnonymous:
		return Outcome{Kind: Redirect, View: view, Target: ViewLogin}
	default:
		return Outcome{Kind: Pending, View: view}
	}
}
