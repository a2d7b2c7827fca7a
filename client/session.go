package client

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	ErrEmailTaken   = errors.New("client: email already registered")
	ErrNotLoggedIn  = errors.New("client: not logged in")
	ErrPostNotFound = errors.New("client: post not in local state")
	ErrNotOwner     = errors.New("client: post belongs to another user")
)

// Session is the local view of the blog: the users and posts last fetched
// plus the logged-in user. Local state changes only through mutations.
type Session struct {
	client *Client

	mu    sync.Mutex
	user  *PublicUser
	users []User
	posts []Post
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// mutation is one state transition: commit talks to the server, apply changes
// local state, revert undoes apply. Optimistic mutations apply before commit
// and revert when it fails; the rest apply only after commit succeeds.
type mutation struct {
	optimistic bool
	commit     func(ctx context.Context) error
	apply      func(s *Session)
	revert     func(s *Session)
}

func (s *Session) run(ctx context.Context, m mutation) error {
	if m.optimistic {
		s.locked(m.apply)
	}

	if err := m.commit(ctx); err != nil {
		if m.optimistic && m.revert != nil {
			s.locked(m.revert)
		}
		return err
	}

	if !m.optimistic {
		s.locked(m.apply)
	}

	return nil
}

func (s *Session) locked(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Session) Login(ctx context.Context, email, password string) (PublicUser, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return PublicUser{}, err
	}

	s.locked(func(s *Session) { s.user = &resp.User })

	return resp.User, nil
}

// Resume restores a login saved from an earlier Login, such as one kept in a
// local file between runs. The token is not checked until it is used.
func (s *Session) Resume(user PublicUser, token string) {
	s.client.SetToken(token)
	s.locked(func(s *Session) { s.user = &user })
}

// Logout forgets the token and the current user. The server keeps the token.
func (s *Session) Logout() {
	s.client.SetToken("")
	s.locked(func(s *Session) { s.user = nil })
}

func (s *Session) CurrentUser() (PublicUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return PublicUser{}, false
	}

	return *s.user, true
}

// Refresh replaces local users and posts with the server's.
func (s *Session) Refresh(ctx context.Context) error {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return err
	}

	posts, err := s.client.ListPosts(ctx)
	if err != nil {
		return err
	}

	s.locked(func(s *Session) {
		s.users = users
		s.posts = posts
	})

	return nil
}

// CanEdit reports whether the current user authored p. Posts without a userId
// are matched by author name.
func (s *Session) CanEdit(p Post) bool {
	me, ok := s.CurrentUser()
	if !ok {
		return false
	}

	if p.UserID != "" {
		return p.UserID == me.ID
	}

	return p.Author != "" && p.Author == me.Name
}

// checkOwner fails for a post in local state that the current user may not
// edit. Posts not fetched yet are left to the server.
func (s *Session) checkOwner(id string) error {
	s.mu.Lock()
	i := s.postIndex(id)
	var p Post
	if i != -1 {
		p = s.posts[i]
	}
	s.mu.Unlock()

	if i != -1 && !s.CanEdit(p) {
		return ErrNotOwner
	}

	return nil
}

func (s *Session) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.users)
}

func (s *Session) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.posts)
}

// Register creates a user unless one with the same email already exists.
func (s *Session) Register(ctx context.Context, u User) (User, error) {
	existing, err := s.client.FindUsersByEmail(ctx, u.Email)
	if err != nil {
		return User{}, err
	}
	if len(existing) > 0 {
		return User{}, ErrEmailTaken
	}

	var created User
	err = s.run(ctx, mutation{
		commit: func(ctx context.Context) error {
			created, err = s.client.CreateUser(ctx, u)
			return err
		},
		apply: func(s *Session) { s.users = append(s.users, created) },
	})

	return created, err
}

// CreatePost publishes p as the current user.
func (s *Session) CreatePost(ctx context.Context, p Post) (Post, error) {
	me, ok := s.CurrentUser()
	if !ok {
		return Post{}, ErrNotLoggedIn
	}

	if p.UserID == "" {
		p.UserID = me.ID
	}

	var created Post
	err := s.run(ctx, mutation{
		commit: func(ctx context.Context) (err error) {
			created, err = s.client.CreatePost(ctx, p)
			return err
		},
		apply: func(s *Session) { s.posts = append(s.posts, created) },
	})

	return created, err
}

func (s *Session) UpdatePost(ctx context.Context, id string, patch Post) (Post, error) {
	if err := s.checkOwner(id); err != nil {
		return Post{}, err
	}

	var updated Post
	err := s.run(ctx, mutation{
		commit: func(ctx context.Context) (err error) {
			updated, err = s.client.UpdatePost(ctx, id, patch)
			return err
		},
		apply: func(s *Session) {
			if i := s.postIndex(id); i != -1 {
				s.posts[i] = updated
			}
		},
	})

	return updated, err
}

// DeletePost removes the post locally right away and puts it back if the
// server refuses.
func (s *Session) DeletePost(ctx context.Context, id string) error {
	var removed Post

	s.mu.Lock()
	at := s.postIndex(id)
	if at != -1 {
		removed = s.posts[at]
	}
	s.mu.Unlock()

	if at == -1 {
		return ErrPostNotFound
	}
	if !s.CanEdit(removed) {
		return ErrNotOwner
	}

	return s.run(ctx, mutation{
		optimistic: true,
		commit: func(ctx context.Context) error {
			_, err := s.client.DeletePost(ctx, id)
			return err
		},
		apply: func(s *Session) {
			if i := s.postIndex(id); i != -1 {
				s.posts = slices.Delete(s.posts, i, i+1)
			}
		},
		revert: func(s *Session) {
			if s.postIndex(id) != -1 {
				return
			}
			s.posts = slices.Insert(s.posts, min(at, len(s.posts)), removed)
		},
	})
}

func (s *Session) postIndex(id string) int {
	return slices.IndexFunc(s.posts, func(p Post) bool { return p.ID == id })
}
