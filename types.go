package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a record identifier. It is always a string on the wire, but legacy
// documents may hold numeric ids, so it decodes from either form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())

	return nil
}

// Int returns the numeric value of the id, or 0 when it is not an integer.
func (id ID) Int() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0
	}

	return n
}

type User struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// PublicUser is the projection of a user returned by login.
type PublicUser struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type Post struct {
	ID     ID     `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Image  string `json:"image"`
	UserID ID     `json:"userId,omitempty"`
	Author string `json:"author,omitempty"`
}

// Document is the whole persisted state.
type Document struct {
	Users  []User   `json:"users"`
	Posts  []Post   `json:"posts"`
	Tokens []string `json:"tokens"`
}

func NewDocument() *Document {
	return &Document{
		Users:  []User{},
		Posts:  []Post{},
		Tokens: []string{},
	}
}

// normalize replaces nil collections so they are written as [] instead of null.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Posts == nil {
		d.Posts = []Post{}
	}
	if d.Tokens == nil {
		d.Tokens = []string{}
	}
}

func nextID[T any](items []T, id func(T) ID) ID {
	var highest int64
	for _, it := range items {
		if n := id(it).Int(); n > highest {
			highest = n
		}
	}

	return ID(strconv.FormatInt(highest+1, 10))
}
