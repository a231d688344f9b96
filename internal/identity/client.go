package identity

import (
	"context"
	"sync"

	"github.com/fjod/thread-storefront/domain"
)

// Listener receives the current user, or nil when signed out.
type Listener = func(user *domain.User)

// Client is one session's view of the identity provider.
type Client struct {
	svc *Service

	mu        sync.Mutex
	user      *domain.User
	token     string
	listeners map[int]Listener
	nextID    int
}

func NewClient(svc *Service) *Client {
	return &Client{svc: svc, listeners: make(map[int]Listener)}
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (domain.User, error) {
	user, err := c.svc.SignUp(ctx, email, password, displayName)
	if err != nil {
		return domain.User{}, err
	}
	return user, c.setUser(user)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.User, error) {
	user, err := c.svc.SignIn(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	return user, c.setUser(user)
}

// SignInWithToken restores a session from a previously issued token.
func (c *Client) SignInWithToken(ctx context.Context, token string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	user, err := c.svc.VerifyToken(token)
	if err != nil {
		return domain.User{}, err
	}
	c.mu.Lock()
	c.user = &user
	c.token = token
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, &user)
	return user, nil
}

func (c *Client) SignOut() {
	c.mu.Lock()
	c.user = nil
	c.token = ""
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, nil)
}

func (c *Client) CurrentUser() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe calls fn right away with the current user and again after every
// sign-in or sign-out. The returned func removes the listener.
func (c *Client) Subscribe(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.currentCopy()
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) setUser(user domain.User) error {
	token, err := c.svc.IssueToken(user)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.user = &user
	c.token = token
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, &user)
	return nil
}

func (c *Client) currentCopy() *domain.User {
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, user *domain.User) {
	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
