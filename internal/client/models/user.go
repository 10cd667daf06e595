// Package models defines the client-side data model of the HOMIN+ assistant:
// the canonical User record and the conversation/message types used by the
// chat view. Backend payloads are mapped into these types at the API boundary.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is the access level reported by the backend for a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultUsername is shown when no usable name can be derived from a profile.
const DefaultUsername = "User"

// User is the identity record held in memory and mirrored to the local
// session store. It is never partially updated: each profile fetch replaces
// the value wholesale.
type User struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// nowMillis is a test seam for the generated-UID fallback.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// UserFromProfile maps a semi-structured /auth/me payload into the canonical
// User record. The backend may nest fields under "user"/"claims" or return a
// bare object, and several field names are possible for the same attribute;
// the precedence below is part of the contract with the backend and must not
// be reordered.
//
//	uid      ← uid | id | sub | generated placeholder
//	username ← username | name | claims.name | claims.nickname |
//	           local part of email | DefaultUsername
//	email    ← email | ""
//	photo    ← photoURL | avatar
//	role     ← role when "user"/"admin", otherwise RoleUser
//
// The function is total: any input produces a usable User.
func UserFromProfile(payload map[string]any) User {
	claims, _ := payload["claims"].(map[string]any)

	uid := firstString(payload, "uid", "id", "sub")
	if uid == "" {
		uid = fmt.Sprintf("user-%d", nowMillis())
	}

	email := asString(payload["email"])

	username := firstString(payload, "username", "name")
	if username == "" {
		username = firstString(claims, "name", "nickname")
	}
	if username == "" && email != "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if username == "" {
		username = DefaultUsername
	}

	photo := firstString(payload, "photoURL", "avatar")

	role := RoleUser
	if r := Role(strings.ToLower(asString(payload["role"]))); r == RoleAdmin {
		role = RoleAdmin
	}

	return User{
		UID:      uid,
		Username: username,
		Email:    email,
		Role:     role,
		PhotoURL: photo,
	}
}

// firstString returns the first present, non-empty value among keys,
// rendered as a string. A nil map yields "".
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// asString renders JSON scalars as strings. Numeric identifiers arrive as
// float64 after generic unmarshalling and are formatted without an exponent.
func asString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return ""
	}
}
