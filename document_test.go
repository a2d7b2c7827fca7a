package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`"7"`, "7"},
		{`7`, "7"},
		{`"abc"`, "abc"},
		{`null`, ""},
	}

	for _, tc := range tests {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(tc.in), &id), tc.in)
		assert.Equal(t, tc.want, id, tc.in)
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestID_MarshalsAsString(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id": 12, "name": "n"}`), &u))

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":"12"`)
}

func TestNextID(t *testing.T) {
	assert.Equal(t, ID("1"), nextID(nil, userID))
	assert.Equal(t, ID("1"), nextID([]User{{ID: "x"}}, userID))
	assert.Equal(t, ID("6"), nextID([]User{{ID: "2"}, {ID: "5"}, {ID: "3"}}, userID))
	assert.Equal(t, ID("3"), nextID([]Post{{ID: "1"}, {ID: "2"}}, postID))
}

func TestDocument_NextIDFollowsHighestRemaining(t *testing.T) {
	doc := NewDocument()

	_, err := doc.CreateUser([]byte(`{"name":"a"}`))
	require.NoError(t, err)
	second, err := doc.CreateUser([]byte(`{"name":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, ID("2"), second.ID)

	// A gap below the highest id is not filled.
	_, err = doc.DeleteUser("1")
	require.NoError(t, err)

	third, err := doc.CreateUser([]byte(`{"name":"c"}`))
	require.NoError(t, err)
	assert.Equal(t, ID("3"), third.ID)

	// Deleting the highest id hands it to the next user.
	_, err = doc.DeleteUser("3")
	require.NoError(t, err)

	fourth, err := doc.CreateUser([]byte(`{"name":"d"}`))
	require.NoError(t, err)
	assert.Equal(t, ID("3"), fourth.ID)
}

func TestDocument_DeleteUserCascades(t *testing.T) {
	doc := &Document{
		Users: []User{{ID: "1"}, {ID: "2"}},
		Posts: []Post{
			{ID: "1", UserID: "1"},
			{ID: "2", UserID: "2"},
			{ID: "3", UserID: "1"},
			{ID: "4", Author: "legacy"},
		},
	}

	deleted, err := doc.DeleteUser("1")
	require.NoError(t, err)
	assert.Equal(t, ID("1"), deleted.ID)
	assert.Equal(t, []User{{ID: "2"}}, doc.Users)
	assert.Equal(t, []Post{{ID: "2", UserID: "2"}, {ID: "4", Author: "legacy"}}, doc.Posts)
}

func TestDocument_DeleteMissing(t *testing.T) {
	doc := &Document{Users: []User{{ID: "1"}}, Posts: []Post{{ID: "1", UserID: "1"}}}

	_, err := doc.DeleteUser("2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = doc.DeletePost("2")
	assert.ErrorIs(t, err, ErrPostNotFound)

	assert.Len(t, doc.Users, 1)
	assert.Len(t, doc.Posts, 1)
}

func TestDocument_UpdateIsShallowMerge(t *testing.T) {
	doc := &Document{Posts: []Post{{ID: "1", Title: "t", Body: "b", Image: "i"}}}

	p, err := doc.UpdatePost("1", []byte(`{"body":"new","id":"9"}`))
	require.NoError(t, err)
	assert.Equal(t, Post{ID: "1", Title: "t", Body: "new", Image: "i"}, p)
	assert.Equal(t, p, doc.Posts[0])
}

func TestDocument_UpdateRejectsBadBody(t *testing.T) {
	doc := &Document{Users: []User{{ID: "1", Name: "a"}}}

	_, err := doc.UpdateUser("1", []byte(`{"name": 5}`))
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "a", doc.Users[0].Name)
}

func TestDocument_EmptyBodyCreatesBareRecord(t *testing.T) {
	doc := NewDocument()

	u, err := doc.CreateUser(nil)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "1"}, u)
}

func TestDocument_CreatePostOwner(t *testing.T) {
	doc := &Document{Users: []User{{ID: "1", Name: "Alice"}}}

	p, err := doc.CreatePost([]byte(`{"title":"t"}`), "1")
	require.NoError(t, err)
	assert.Equal(t, ID("1"), p.UserID)
	assert.Equal(t, "Alice", p.Author)
	assert.Empty(t, doc.Posts[0].Author)

	// An owner that is not a known user is not recorded.
	p, err = doc.CreatePost([]byte(`{"title":"t","author":"Bob"}`), "42")
	require.NoError(t, err)
	assert.Empty(t, p.UserID)
	assert.Equal(t, "Bob", p.Author)
}

func TestDocument_Authenticate(t *testing.T) {
	hashed, err := hashPassword("secret")
	require.NoError(t, err)

	doc := &Document{Users: []User{
		{ID: "1", Email: "a@x.com", Password: "plain"},
		{ID: "2", Email: "b@x.com", Password: hashed},
		{ID: "3"},
	}}

	u, err := doc.Authenticate("a@x.com", "plain")
	require.NoError(t, err)
	assert.Equal(t, ID("1"), u.ID)

	u, err = doc.Authenticate("b@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, ID("2"), u.ID)

	_, err = doc.Authenticate("a@x.com", "PLAIN")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = doc.Authenticate("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDocument_Tokens(t *testing.T) {
	doc := NewDocument()
	assert.False(t, doc.HasToken("a"))

	doc.AddToken("a")
	assert.True(t, doc.HasToken("a"))
	assert.False(t, doc.HasToken("b"))
}

func TestDocument_RevokeTokens(t *testing.T) {
	doc := &Document{Tokens: []string{"a", "b", "a", "c"}}

	n := doc.RevokeTokens(func(tok string) bool { return tok == "a" })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"b", "c"}, doc.Tokens)

	assert.Zero(t, doc.RevokeTokens(func(string) bool { return false }))
	assert.Equal(t, []string{"b", "c"}, doc.Tokens)
}
