package service

import (
	"Go_Attach/model"
	"Go_Attach/utils"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Accounts manages the users allowed to write.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Create hashes the password and stores an active account.
func (a *Accounts) Create(ctx context.Context, username, password string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Location: "body", Name: "username", Description: "Required"}
	}
	if password == "" {
		return nil, &ValidationError{Location: "body", Name: "password", Description: "Required"}
	}
	if _, err := a.find(ctx, username); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := utils.GetPwd(password)
	if err != nil {
		return nil, err
	}
	account := &model.Account{
		UserName: username,
		Password: hashed,
		IsActive: true,
	}
	if err := a.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Authenticate checks the password of an active account.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	account, err := a.find(ctx, strings.TrimSpace(username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive || !utils.CheckPwd(password, account.Password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (a *Accounts) find(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	if err := a.db.WithContext(ctx).Where("user_name = ?", username).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
