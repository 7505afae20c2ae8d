package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// UserRecord is one immutable entry of a tunnel's user list.
type UserRecord struct {
	Username string
	Password string
	UserID   string
}

// UserDatabase is a read-only, username-keyed lookup built once when a
// tunnel is constructed from its config. Password comparison is constant-time for plaintext entries
// and uses bcrypt for hashed entries (password values beginning with the
// standard "$2" bcrypt prefix).
type UserDatabase struct {
	byUsername map[string]UserRecord
}

// NewUserDatabase builds a database from (username, password) pairs. The
// user ID assigned to each entry is stable and derived from the username
// so that restarts and tests see consistent IDs.
func NewUserDatabase(users map[string]string) *UserDatabase {
	db := &UserDatabase{byUsername: make(map[string]UserRecord, len(users))}
	for username, password := range users {
		db.byUsername[username] = UserRecord{
			Username: username,
			Password: password,
			UserID:   deriveUserID(username),
		}
	}
	return db
}

func deriveUserID(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hexEncode(sum[:8])
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// Authenticate looks up username and compares password against the
// stored credential, returning the stable user ID on success.
func (db *UserDatabase) Authenticate(username, password string) (userID string, ok bool) {
	record, found := db.byUsername[username]
	if !found {
		return "", false
	}

	if strings.HasPrefix(record.Password, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)); err != nil {
			return "", false
		}
		return record.UserID, true
	}

	if subtle.ConstantTimeCompare([]byte(record.Password), []byte(password)) != 1 {
		return "", false
	}
	return record.UserID, true
}

// Empty reports whether the database has no users at all, the "empty
// database" case spec §4.2 calls out as an automatic rejection.
func (db *UserDatabase) Empty() bool {
	return len(db.byUsername) == 0
}
