package auth

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"

	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// ecrTokenFallbackTTL bounds token lifetime when AWS omits ExpiresAt.
// ECR authorization tokens are documented to last 12 hours.
const ecrTokenFallbackTTL = 12 * time.Hour

// ecrTokenAPI is the slice of the ECR client this package uses.
type ecrTokenAPI interface {
	GetAuthorizationToken(
		ctx context.Context,
		params *ecr.GetAuthorizationTokenInput,
		optFns ...func(*ecr.Options),
	) (*ecr.GetAuthorizationTokenOutput, error)
}

// ECRAuthenticator exchanges static AWS credentials for short-lived ECR
// registry tokens. The token's own expiry drives re-authentication.
type ECRAuthenticator struct {
	newClient func(ctx context.Context) (ecrTokenAPI, error)
	logger    *slog.Logger

	mu        sync.Mutex
	expiresAt time.Time
}

var _ Authenticator = (*ECRAuthenticator)(nil)

// NewECRAuthenticator builds the provider from AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY (both with _FILE indirection), and AWS_REGION.
// Returns (nil, nil) when none are set; a partial configuration is a
// credential error because it almost certainly means a broken deployment.
func NewECRAuthenticator(logger *slog.Logger) (Authenticator, error) {
	accessKey, err := resolveSecret("AWS_ACCESS_KEY_ID")
	if err != nil {
		return nil, err
	}
	secretKey, err := resolveSecret("AWS_SECRET_ACCESS_KEY")
	if err != nil {
		return nil, err
	}
	region, err := resolveSecret("AWS_REGION")
	if err != nil {
		return nil, err
	}

	if accessKey == "" && secretKey == "" && region == "" {
		return nil, nil
	}
	if accessKey == "" || secretKey == "" || region == "" {
		return nil, apperrors.Credential(
			"partial ECR configuration: AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, and AWS_REGION must all be set")
	}

	if logger != nil {
		logger = logger.With("component", "ecr_auth")
		logger.Debug("ECR auth configured", "region", region)
	}

	return &ECRAuthenticator{
		newClient: func(ctx context.Context) (ecrTokenAPI, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx,
				awsconfig.WithRegion(region),
				awsconfig.WithCredentialsProvider(
					credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
				),
			)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodeCredential, "load AWS config")
			}
			return ecr.NewFromConfig(cfg), nil
		},
		logger: logger,
	}, nil
}

// Name implements Authenticator.
func (a *ECRAuthenticator) Name() string { return "ecr" }

// ShouldAuthenticate requires a login when no token was ever obtained or the
// current one has expired.
func (a *ECRAuthenticator) ShouldAuthenticate(lastLogin time.Time) bool {
	if lastLogin.IsZero() {
		return true
	}

	a.mu.Lock()
	expiresAt := a.expiresAt
	a.mu.Unlock()

	if expiresAt.IsZero() {
		return time.Since(lastLogin) >= ecrTokenFallbackTTL
	}
	return !time.Now().Before(expiresAt)
}

// ObtainAuth requests a fresh authorization token. The token decodes to
// "user:password" and the proxy endpoint is the registry to log into.
func (a *ECRAuthenticator) ObtainAuth(ctx context.Context) (Credentials, error) {
	client, err := a.newClient(ctx)
	if err != nil {
		return Credentials{}, err
	}

	out, err := client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return Credentials{}, apperrors.Wrap(err, apperrors.ErrCodeCredential, "get ECR authorization token")
	}
	if len(out.AuthorizationData) == 0 {
		return Credentials{}, apperrors.Credential("ECR returned no authorization data")
	}

	data := out.AuthorizationData[0]
	if data.AuthorizationToken == nil || data.ProxyEndpoint == nil {
		return Credentials{}, apperrors.Credential("ECR authorization data is incomplete")
	}

	decoded, err := base64.StdEncoding.DecodeString(*data.AuthorizationToken)
	if err != nil {
		return Credentials{}, apperrors.Wrap(err, apperrors.ErrCodeCredential, "decode ECR authorization token")
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Credentials{}, apperrors.Credential("ECR authorization token is not user:password")
	}

	expiresAt := time.Now().Add(ecrTokenFallbackTTL)
	if data.ExpiresAt != nil {
		expiresAt = *data.ExpiresAt
	}
	a.mu.Lock()
	a.expiresAt = expiresAt
	a.mu.Unlock()

	if a.logger != nil {
		a.logger.InfoContext(ctx, "obtained ECR token",
			"registry", *data.ProxyEndpoint, "expires_at", expiresAt)
	}

	return Credentials{
		Username: user,
		Password: password,
		Registry: *data.ProxyEndpoint,
	}, nil
}
