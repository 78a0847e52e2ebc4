package services

import (
	"context"

	apple "github.com/Timothylock/go-signin-with-apple/apple"
	"google.golang.org/api/idtoken"
)

type GoogleServiceProvider interface {
	ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

type GoogleService struct {
}

func (gs GoogleService) ValidateIdToken(ctx context.Context, idTokenValue string, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(context.Background(), idTokenValue, audience)
}

type AppleServiceProvider interface {
	VerifyIdentityToken(ctx context.Context, authorizationCode string) (*apple.ValidationResponse, string, error)
}

type AppleService struct {
}

// VerifyIdentityToken exchanges the app authorization code and extracts the
// stable apple user id from the identity token claims.
func (as AppleService) VerifyIdentityToken(ctx context.Context, authorizationCode string) (*apple.ValidationResponse, string, error) {
	secret, err := apple.GenerateClientSecret(
		GetEnv("APPLE_PRIVATE_KEY", ""),
		GetEnv("APPLE_TEAM_ID", ""),
		GetEnv("APPLE_CLIENT_ID", ""),
		GetEnv("APPLE_KEY_ID", ""),
	)
	if err != nil {
		return nil, "", err
	}

	client := apple.New()
	var resp apple.ValidationResponse
	err = client.VerifyAppToken(ctx, apple.AppValidationTokenRequest{
		ClientID:     GetEnv("APPLE_CLIENT_ID", ""),
		ClientSecret: secret,
		Code:         authorizationCode,
	}, &resp)
	if err != nil {
		return nil, "", err
	}

	uniqueID, err := apple.GetUniqueID(resp.IDToken)
	if err != nil {
		return nil, "", err
	}
	return &resp, uniqueID, nil
}
