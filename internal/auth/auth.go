// Package auth registers users, logs them in with server-side sessions and
// carries the authenticated user id through request contexts.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blog/internal/app"
	"blog/internal/models"
)

var (
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidLogin  = errors.New("invalid username or password")
	ErrNoSession     = errors.New("session not found")
	ErrMissingFields = errors.New("email, username and password are required")
	ErrShortPassword = errors.New("password must be at least 8 characters")
)

type ctxKeyUserID struct{}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

// UserIDFrom reports the authenticated user of a request context; false
// means the request is anonymous.
func UserIDFrom(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxKeyUserID{})
	if v == nil {
		return 0, false
	}
	id, _ := v.(int64)
	return id, id != 0
}

func Register(ctx context.Context, db *gorm.DB, email, username, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(password) < 8 {
		return nil, ErrShortPassword
	}

	conn := db.WithContext(ctx)
	var exists int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}
	if err := conn.Model(&models.User{}).Where("username = ?", username).Count(&exists).Error; err != nil {
		return nil, errors.Wrap(err, "check username")
	}
	if exists > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &models.User{Email: email, Username: username, PasswordHash: string(hash)}
	err = conn.Create(u).Error
	// lost a race with a concurrent sign-up
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Login checks the credentials (login may be a username or an email) and
// opens a new session, replacing the user's previous ones.
func Login(ctx context.Context, db *gorm.DB, login, password string, lifetime time.Duration) (string, int64, error) {
	login = strings.TrimSpace(login)
	log := app.Log.WithField("login", login)

	var u models.User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug("auth.Login: no such user")
		return "", 0, ErrInvalidLogin
	}
	if err != nil {
		return "", 0, errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Debug("auth.Login: bad password")
		return "", 0, ErrInvalidLogin
	}

	sess := models.Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		ExpiresAt: time.Now().UTC().Add(lifetime),
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", u.ID).Delete(&models.Session{}).Error; err != nil {
			return errors.Wrap(err, "delete old sessions")
		}
		if err := tx.Omit("User").Create(&sess).Error; err != nil {
			return errors.Wrap(err, "create session")
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	log.WithField("uid", u.ID).Info("login ok")
	return sess.ID, u.ID, nil
}

func Logout(ctx context.Context, db *gorm.DB, sid string) error {
	return db.WithContext(ctx).Where("id = ?", sid).Delete(&models.Session{}).Error
}

// UserFromSession resolves a session id to its user and expiry.
func UserFromSession(ctx context.Context, db *gorm.DB, sid string) (int64, time.Time, error) {
	var sess models.Session
	err := db.WithContext(ctx).Where("id = ?", sid).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, time.Time{}, ErrNoSession
	}
	if err != nil {
		return 0, time.Time{}, errors.Wrap(err, "load session")
	}
	return sess.UserID, sess.ExpiresAt, nil
}
