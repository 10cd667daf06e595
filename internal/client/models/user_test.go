package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFromProfile(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    User
	}{
		{
			name: "full flat profile",
			payload: map[string]any{
				"uid":      "u-1",
				"username": "alice",
				"email":    "alice@example.com",
				"role":     "admin",
				"photoURL": "https://cdn/x.png",
			},
			want: User{UID: "u-1", Username: "alice", Email: "alice@example.com", Role: RoleAdmin, PhotoURL: "https://cdn/x.png"},
		},
		{
			name:    "numeric id becomes uid",
			payload: map[string]any{"id": float64(1234), "name": "bob"},
			want:    User{UID: "1234", Username: "bob", Role: RoleUser},
		},
		{
			name:    "sub as uid fallback",
			payload: map[string]any{"sub": "oidc|777", "email": "carol@example.com"},
			want:    User{UID: "oidc|777", Username: "carol", Email: "carol@example.com", Role: RoleUser},
		},
		{
			name:    "uid wins over id and sub",
			payload: map[string]any{"uid": "u-9", "id": "i-9", "sub": "s-9", "name": "n"},
			want:    User{UID: "u-9", Username: "n", Role: RoleUser},
		},
		{
			name: "claims name before email local part",
			payload: map[string]any{
				"uid":    "u-2",
				"email":  "dave@example.com",
				"claims": map[string]any{"name": "Dave C"},
			},
			want: User{UID: "u-2", Username: "Dave C", Email: "dave@example.com", Role: RoleUser},
		},
		{
			name: "claims nickname fallback",
			payload: map[string]any{
				"uid":    "u-3",
				"claims": map[string]any{"nickname": "dv"},
			},
			want: User{UID: "u-3", Username: "dv", Role: RoleUser},
		},
		{
			name:    "email local part fallback",
			payload: map[string]any{"uid": "u-4", "email": "eve@example.com"},
			want:    User{UID: "u-4", Username: "eve", Email: "eve@example.com", Role: RoleUser},
		},
		{
			name:    "default username when nothing usable",
			payload: map[string]any{"uid": "u-5"},
			want:    User{UID: "u-5", Username: DefaultUsername, Role: RoleUser},
		},
		{
			name:    "unknown role normalized to user",
			payload: map[string]any{"uid": "u-6", "name": "n", "role": "superuser"},
			want:    User{UID: "u-6", Username: "n", Role: RoleUser},
		},
		{
			name:    "role matching is case-insensitive",
			payload: map[string]any{"uid": "u-7", "name": "n", "role": "Admin"},
			want:    User{UID: "u-7", Username: "n", Role: RoleAdmin},
		},
		{
			name:    "avatar as photo fallback",
			payload: map[string]any{"uid": "u-8", "name": "n", "avatar": "https://cdn/a.png"},
			want:    User{UID: "u-8", Username: "n", Role: RoleUser, PhotoURL: "https://cdn/a.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserFromProfile(tt.payload))
		})
	}
}

func TestUserFromProfile_GeneratedUID(t *testing.T) {
	orig := nowMillis
	nowMillis = func() int64 { return 1700000000000 }
	t.Cleanup(func() { nowMillis = orig })

	got := UserFromProfile(map[string]any{"email": "x@example.com"})
	assert.Equal(t, "user-1700000000000", got.UID)
	assert.Equal(t, "x", got.Username)
}

func TestUserFromProfile_EmptyPayload(t *testing.T) {
	got := UserFromProfile(map[string]any{})
	assert.True(t, strings.HasPrefix(got.UID, "user-"))
	assert.Equal(t, DefaultUsername, got.Username)
	assert.Equal(t, RoleUser, got.Role)
}
