package auth

import (
	"context"
	"strings"

	"github.com/coltrade/backend/internal/domain/shared"
)

// User is one entry of the login file
type User struct {
	Username     string
	Email        string
	Name         string
	PasswordHash string
	Password     string
}

// Claim returns the public part of u
func (u User) Claim() UserClaim {
	return UserClaim{Email: u.Email, Username: u.Username, Name: u.Name}
}

// Matches reports whether login names u: exact email or case-insensitive
// username.
func (u User) Matches(login string) bool {
	if u.Email != "" && u.Email == login {
		return true
	}
	return u.Username != "" && strings.EqualFold(u.Username, login)
}

// RecordLoader reads the raw records of a file
type RecordLoader interface {
	Load(ctx context.Context, file string) ([]shared.Record, error)
}

// UserDirectory resolves users from a JSON login file. The file is read on
// every lookup so edits apply without a restart.
type UserDirectory struct {
	loader RecordLoader
	file   string
}

// NewUserDirectory creates a directory over file
func NewUserDirectory(loader RecordLoader, file string) *UserDirectory {
	return &UserDirectory{loader: loader, file: file}
}

// Users returns every configured user
func (d *UserDirectory) Users(ctx context.Context) ([]User, error) {
	records, err := d.loader.Load(ctx, d.file)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(records))
	for _, r := range records {
		users = append(users, User{
			Username:     r.Text("username"),
			Email:        r.Text("email"),
			Name:         r.Text("name"),
			PasswordHash: r.Text("password_hash"),
			Password:     r.Text("password"),
		})
	}
	return users, nil
}

// Find returns the first user matching login
func (d *UserDirectory) Find(ctx context.Context, login string) (User, bool, error) {
	users, err := d.Users(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if u.Matches(login) {
			return u, true, nil
		}
	}
	return User{}, false, nil
}
