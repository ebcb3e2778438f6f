package middleware

import (
	"context"
	"errors"

	"socialhub/internal/pkg/config"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrFirebaseDisabled 未配置 Firebase
var ErrFirebaseDisabled = errors.New("firebase auth is not configured")

// PhoneLookup 按手机号查找本系统用户 ID
type PhoneLookup func(ctx context.Context, phone string) (string, error)

// FirebaseVerifier 校验 Firebase ID Token，并按 phone_number 映射到本系统用户
type FirebaseVerifier struct {
	client *fbauth.Client
	lookup PhoneLookup
}

func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig, lookup PhoneLookup) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, ErrFirebaseDisabled
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{client: client, lookup: lookup}, nil
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	phone, _ := t.Claims["phone_number"].(string)
	if phone == "" {
		return "", errors.New("firebase token has no phone_number claim")
	}
	return v.lookup(ctx, phone)
}
