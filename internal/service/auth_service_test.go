package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (*AuthServiceImpl, *mocks.MockEventStore, *mocks.MockHashService, *mocks.MockTokenService) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockEventStore(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	return NewAuthService(events, hashSvc, tokenSvc, zerolog.Nop()), events, hashSvc, tokenSvc
}

func registeredStream(t *testing.T, email, hash string) (uuid.UUID, []domain.Event) {
	t.Helper()
	id := domain.UserIDForEmail(email)
	evt, err := domain.NewUser(id).Register(domain.CommandMeta{}, "Ada", email, hash)
	require.NoError(t, err)
	return id, []domain.Event{evt}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, events, hashSvc, _ := setupAuthService(t)
	ctx := context.Background()
	userID := domain.UserIDForEmail("ada@example.com")

	events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(nil, 0))
	hashSvc.EXPECT().Hash("s3cret-pass").Return("$argon2id$hashed", nil)
	events.EXPECT().Append(ctx, userID, int64(0), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ int64, evts []domain.Event) (int64, error) {
			require.Len(t, evts, 1)
			assert.Equal(t, domain.EventTypeUserRegistered, evts[0].Type)
			assert.Equal(t, domain.UserRegistered{Name: "Ada", Email: "ada@example.com", PasswordHash: "$argon2id$hashed"}, evts[0].Payload)
			return 1, nil
		})

	res, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, userID, res.UserID)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, events, _, _ := setupAuthService(t)
	ctx := context.Background()
	userID, stream := registeredStream(t, "ada@example.com", "$argon2id$hashed")

	// hashing is skipped for a known email
	events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(stream, 0))

	_, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "another-pass"})
	appErr := requireAppError(t, err, "USR_001")
	assert.Equal(t, 422, appErr.HTTPStatus)
	assert.Equal(t, "The email has already been taken.", appErr.Message)
}

func TestAuthService_Register_LosesRace(t *testing.T) {
	svc, events, hashSvc, _ := setupAuthService(t)
	ctx := context.Background()
	userID := domain.UserIDForEmail("ada@example.com")

	events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(nil, 0))
	hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$hashed", nil)
	events.EXPECT().Append(ctx, userID, int64(0), gomock.Any()).
		Return(int64(0), domain.NewConcurrencyConflict(userID, 0, 1))

	_, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass"})
	requireAppError(t, err, "USR_001")
}

func TestAuthService_Register_Failures(t *testing.T) {
	ctx := context.Background()
	userID := domain.UserIDForEmail("ada@example.com")

	t.Run("hash error", func(t *testing.T) {
		svc, events, hashSvc, _ := setupAuthService(t)
		events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(nil, 0))
		hashSvc.EXPECT().Hash(gomock.Any()).Return("", errors.New("entropy exhausted"))

		_, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass"})
		requireAppError(t, err, "SYS_001")
	})

	t.Run("blank name", func(t *testing.T) {
		svc, events, hashSvc, _ := setupAuthService(t)
		events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(nil, 0))
		hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$hashed", nil)

		_, err := svc.Register(ctx, ports.RegisterRequest{Name: "  ", Email: "ada@example.com", Password: "s3cret-pass"})
		requireAppError(t, err, "USR_002")
	})

	t.Run("store error", func(t *testing.T) {
		svc, events, hashSvc, _ := setupAuthService(t)
		events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(nil, 0))
		hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$hashed", nil)
		events.EXPECT().Append(ctx, userID, int64(0), gomock.Any()).Return(int64(0), errors.New("connection reset"))

		_, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass"})
		requireAppError(t, err, "SYS_001")
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, events, hashSvc, tokenSvc := setupAuthService(t)
	ctx := context.Background()
	userID, stream := registeredStream(t, "ada@example.com", "$argon2id$hashed")
	expiry := time.Now().Add(time.Hour)

	events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(stream, 0))
	hashSvc.EXPECT().Verify("s3cret-pass", "$argon2id$hashed").Return(true, nil)
	tokenSvc.EXPECT().Generate(userID.String()).Return("jwt-token", expiry, nil)

	token, exp, err := svc.Login(ctx, " ADA@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestAuthService_Login_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		svc, events, _, _ := setupAuthService(t)
		events.EXPECT().Load(ctx, domain.UserIDForEmail("nobody@example.com"), int64(0)).Return(seqOf(nil, 0))

		_, _, err := svc.Login(ctx, "nobody@example.com", "s3cret-pass")
		requireAppError(t, err, "AUTH_002")
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, events, hashSvc, _ := setupAuthService(t)
		userID, stream := registeredStream(t, "ada@example.com", "$argon2id$hashed")
		events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(stream, 0))
		hashSvc.EXPECT().Verify("wrong-pass", "$argon2id$hashed").Return(false, nil)

		_, _, err := svc.Login(ctx, "ada@example.com", "wrong-pass")
		requireAppError(t, err, "AUTH_002")
	})

	t.Run("corrupt hash", func(t *testing.T) {
		svc, events, hashSvc, _ := setupAuthService(t)
		userID, stream := registeredStream(t, "ada@example.com", "garbage")
		events.EXPECT().Load(ctx, userID, int64(0)).Return(seqOf(stream, 0))
		hashSvc.EXPECT().Verify(gomock.Any(), "garbage").Return(false, errMalformedHash)

		_, _, err := svc.Login(ctx, "ada@example.com", "s3cret-pass")
		requireAppError(t, err, "SYS_001")
	})
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 1})
	tokens := NewJWTTokenService("test-secret-key-that-is-long-enough", time.Hour, "wallet-test")
	svc := NewAuthService(h.events, NewArgon2HashService(testArgon2Params), tokens, zerolog.Nop())
	ctx := context.Background()

	res, err := svc.Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, ports.RegisterRequest{Name: "Ada Again", Email: "ADA@example.com", Password: "s3cret-pass"})
	requireAppError(t, err, "USR_001")

	token, _, err := svc.Login(ctx, "ada@example.com", "s3cret-pass")
	require.NoError(t, err)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID.String(), claims.ActorID)

	// the user stream is invisible to the wallet read models
	_, err = h.projector.Rebuild(ctx, 2)
	require.NoError(t, err)
	view, err := h.views.GetWallet(ctx, res.UserID)
	require.NoError(t, err)
	assert.Nil(t, view)
}
