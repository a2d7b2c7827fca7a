package main

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// mergeJSON decodes body over a copy of base, so only fields present in body
// change.
func mergeJSON[T any](base T, body []byte) (T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return base, nil
	}

	merged := base
	if err := json.Unmarshal(body, &merged); err != nil {
		return base, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	return merged, nil
}

func userID(u User) ID { return u.ID }
func postID(p Post) ID { return p.ID }

func (d *Document) userIndex(id ID) int {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return i
		}
	}

	return -1
}

func (d *Document) postIndex(id ID) int {
	for i := range d.Posts {
		if d.Posts[i].ID == id {
			return i
		}
	}

	return -1
}

func (d *Document) User(id ID) (User, bool) {
	i := d.userIndex(id)
	if i == -1 {
		return User{}, false
	}

	return d.Users[i], true
}

// UsersByEmail returns the users whose email is exactly email.
func (d *Document) UsersByEmail(email string) []User {
	users := []User{}
	for _, u := range d.Users {
		if u.Email == email {
			users = append(users, u)
		}
	}

	return users
}

// CreateUser appends a user built from body under the next free id.
func (d *Document) CreateUser(body []byte) (User, error) {
	u, err := mergeJSON(User{}, body)
	if err != nil {
		return User{}, err
	}

	u.ID = nextID(d.Users, userID)
	d.Users = append(d.Users, u)

	return u, nil
}

func (d *Document) UpdateUser(id ID, body []byte) (User, error) {
	i := d.userIndex(id)
	if i == -1 {
		return User{}, ErrUserNotFound
	}

	u, err := mergeJSON(d.Users[i], body)
	if err != nil {
		return User{}, err
	}

	u.ID = d.Users[i].ID
	d.Users[i] = u

	return u, nil
}

func (d *Document) setUser(u User) {
	if i := d.userIndex(u.ID); i != -1 {
		d.Users[i] = u
	}
}

// DeleteUser removes the user and every post that references it by userId.
func (d *Document) DeleteUser(id ID) (User, error) {
	i := d.userIndex(id)
	if i == -1 {
		return User{}, ErrUserNotFound
	}

	deleted := d.Users[i]

	posts := make([]Post, 0, len(d.Posts))
	for _, p := range d.Posts {
		if p.UserID != id {
			posts = append(posts, p)
		}
	}
	d.Posts = posts

	d.Users = append(d.Users[:i:i], d.Users[i+1:]...)

	return deleted, nil
}

// CreatePost appends a post built from body. When body names no userId,
// owner is used.
func (d *Document) CreatePost(body []byte, owner ID) (Post, error) {
	p, err := mergeJSON(Post{}, body)
	if err != nil {
		return Post{}, err
	}

	if p.UserID == "" && owner != "" && d.userIndex(owner) != -1 {
		p.UserID = owner
	}

	p.ID = nextID(d.Posts, postID)
	p = d.linkAuthor(p)
	d.Posts = append(d.Posts, p)

	return d.resolvePost(p), nil
}

func (d *Document) UpdatePost(id ID, body []byte) (Post, error) {
	i := d.postIndex(id)
	if i == -1 {
		return Post{}, ErrPostNotFound
	}

	p, err := mergeJSON(d.Posts[i], body)
	if err != nil {
		return Post{}, err
	}

	p.ID = d.Posts[i].ID
	p = d.linkAuthor(p)
	d.Posts[i] = p

	return d.resolvePost(p), nil
}

func (d *Document) DeletePost(id ID) (Post, error) {
	i := d.postIndex(id)
	if i == -1 {
		return Post{}, ErrPostNotFound
	}

	deleted := d.resolvePost(d.Posts[i])
	d.Posts = append(d.Posts[:i:i], d.Posts[i+1:]...)

	return deleted, nil
}

// linkAuthor drops the stored author name of a post owned by a known user;
// the name is resolved from the user on every read instead.
func (d *Document) linkAuthor(p Post) Post {
	if p.UserID != "" && d.userIndex(p.UserID) != -1 {
		p.Author = ""
	}

	return p
}

func (d *Document) resolvePost(p Post) Post {
	if u, ok := d.User(p.UserID); ok && p.UserID != "" {
		p.Author = u.Name
	}

	return p
}

// ResolvedPosts returns all posts with author names filled in from their users.
func (d *Document) ResolvedPosts() []Post {
	posts := make([]Post, 0, len(d.Posts))
	for _, p := range d.Posts {
		posts = append(posts, d.resolvePost(p))
	}

	return posts
}

// Authenticate finds the user with exactly this email and a matching password.
func (d *Document) Authenticate(email, password string) (User, error) {
	if email == "" {
		return User{}, ErrInvalidCredentials
	}

	for _, u := range d.Users {
		if u.Email == email && verifyPassword(password, u.Password) {
			return u, nil
		}
	}

	return User{}, ErrInvalidCredentials
}

func (d *Document) HasToken(token string) bool {
	for _, t := range d.Tokens {
		if t == token {
			return true
		}
	}

	return false
}

func (d *Document) AddToken(token string) {
	d.Tokens = append(d.Tokens, token)
}

// RevokeTokens drops every token for which revoked returns true.
func (d *Document) RevokeTokens(revoked func(token string) bool) int {
	kept := make([]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		if !revoked(t) {
			kept = append(kept, t)
		}
	}

	n := len(d.Tokens) - len(kept)
	d.Tokens = kept

	return n
}
