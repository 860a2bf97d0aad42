// Package services contains server-side business logic. UserService covers
// registration, login, password confirmation and account settings;
// TaskService covers the task list of a signed-in user.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/cryptox"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

type UserService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewUserService(db *sqlx.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m, now: time.Now}
}

// Register validates the form, then creates the user and its list in one
// transaction. A taken username yields a ValidationError carrying both
// "username" and "username-unavailable".
func (s *UserService) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	username = strings.TrimSpace(username)

	var fields []string
	if username == "" {
		fields = append(fields, common.FieldUsername)
	}
	if !validPassword(password) {
		fields = append(fields, common.FieldPassword)
	}
	if password != confirmation {
		fields = append(fields, common.FieldPasswordConfirmation)
	}
	if err := common.NewValidationError(fields...); err != nil {
		return nil, err
	}

	digest, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, classify("hash password", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		PasswordDigest: digest,
		CreatedOn:      s.now().UTC(),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			if dbx.IsUniqueViolation(err) {
				return common.NewValidationError(common.FieldUsername, common.FieldUsernameUnavailable)
			}
			return err
		}
		return s.repomanager.Lists(tx).Create(ctx, &models.List{ID: uuid.NewString(), UserID: user.ID})
	})
	if err != nil {
		return nil, classify("register", err)
	}

	return user, nil
}

// Login checks credentials and resolves the user's list. Unknown users and
// wrong passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	if username == "" || password == "" {
		return auth.Identity{}, common.ErrInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnCompare(password)
			return auth.Identity{}, common.ErrInvalidCredentials
		}
		return auth.Identity{}, classify("login", err)
	}

	if !cryptox.VerifyPassword(user.PasswordDigest, password) {
		return auth.Identity{}, common.ErrInvalidCredentials
	}

	list, err := s.repomanager.Lists(s.db).GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = fmt.Errorf("user %s has no list", user.ID)
		}
		return auth.Identity{}, classify("login", err)
	}

	return auth.Identity{UserID: user.ID, ListID: list.ID}, nil
}

// VerifyPassword re-checks the signed-in user's password before sensitive
// settings are unlocked.
func (s *UserService) VerifyPassword(ctx context.Context, userID, password string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidCredentials
		}
		return classify("verify password", err)
	}

	if !cryptox.VerifyPassword(user.PasswordDigest, password) {
		return common.ErrInvalidCredentials
	}
	return nil
}

// CurrentUser returns the user behind a session, or common.ErrorNotFound when
// the account no longer exists.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, classify("load user", err)
	}
	return user, nil
}

func (s *UserService) ChangeUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return common.NewValidationError(common.FieldUsername)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Users(tx).UpdateUsername(ctx, userID, username)
		if err != nil {
			if dbx.IsUniqueViolation(err) {
				return common.NewValidationError(common.FieldUsername, common.FieldUsernameUnavailable)
			}
			return err
		}
		if n == 0 {
			return common.ErrorNotFound
		}
		return nil
	})
	return classify("change username", err)
}

// ChangePassword reports at most one failing field, checking the new
// password before the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, password, confirmation string) error {
	if !validPassword(password) {
		return common.NewValidationError(common.FieldNewPassword)
	}
	if password != confirmation {
		return common.NewValidationError(common.FieldNewPasswordConfirmation)
	}

	if err := s.VerifyPassword(ctx, userID, current); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return common.NewValidationError(common.FieldCurrentPassword)
		}
		return err
	}

	digest, err := cryptox.HashPassword(password)
	if err != nil {
		return classify("hash password", err)
	}

	return s.setDigest(ctx, userID, digest)
}

// ResetPassword replaces a user's password without knowing the old one.
// Operator tooling only. The username is trimmed like on register.
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if !validPassword(password) {
		return common.NewValidationError(common.FieldPassword)
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return classify("reset password", err)
	}

	digest, err := cryptox.HashPassword(password)
	if err != nil {
		return classify("hash password", err)
	}

	return s.setDigest(ctx, user.ID, digest)
}

func (s *UserService) setDigest(ctx context.Context, userID, digest string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, digest)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrorNotFound
		}
		return nil
	})
	return classify("change password", err)
}

func validPassword(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength && len(p) <= cryptox.MaxPasswordBytes
}
