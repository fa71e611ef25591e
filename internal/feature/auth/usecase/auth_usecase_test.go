package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video_backend/internal/feature/auth/domain/entity"
)

// memUserRepository はテスト用のインメモリUserRepositoryです。
// UpdatePasswordAndRotateTokenはミューテックス下の比較交換で、SQLの条件付きUPDATEと同じ振る舞いをします。
type memUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*entity.User

	// 各メソッドのエラー注入用
	createErr error
	findErr   error
	updateErr error
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[uint]*entity.User{}}
}

func (m *memUserRepository) Create(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUserRepository) FindByRecoveryToken(ctx context.Context, token string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.RecoveryToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrInvalidRecoveryToken
}

func (m *memUserRepository) UpdatePasswordAndRotateToken(ctx context.Context, currentToken, passwordHash, nextToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, u := range m.users {
		if u.RecoveryToken == currentToken {
			u.Password = passwordHash
			u.RecoveryToken = nextToken
			return nil
		}
	}
	return ErrInvalidRecoveryToken
}

func (m *memUserRepository) byEmail(t *testing.T, email string) *entity.User {
	t.Helper()
	u, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

// fakeHasher は "hashed:" プレフィックスを付けるだけの可逆なハッシャーです。
type fakeHasher struct {
	err error
}

func (f *fakeHasher) Hash(plaintext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + plaintext, nil
}

func (f *fakeHasher) Verify(plaintext, hash string) bool {
	return hash == "hashed:"+plaintext
}

// mockTokenIssuer is a mock implementation of TokenIssuer.
type mockTokenIssuer struct {
	IssueFunc func(userID uint) (string, error)
}

func (m *mockTokenIssuer) Issue(userID uint) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID)
	}
	return fmt.Sprintf("token-for-%d", userID), nil
}

// seqRecovery は呼び出しごとに異なるトークンを返します。
type seqRecovery struct {
	n   atomic.Int64
	err error
}

func (s *seqRecovery) Generate() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("recovery-%03d", s.n.Add(1)), nil
}

// recordingNotifier は送信されたトークンを記録します。
type recordingNotifier struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (r *recordingNotifier) SendRecoveryMessage(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, user.RecoveryToken)
	return r.err
}

type fixture struct {
	repo     *memUserRepository
	hasher   *fakeHasher
	issuer   *mockTokenIssuer
	recovery *seqRecovery
	notifier *recordingNotifier
	uc       *authUsecase
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemUserRepository(),
		hasher:   &fakeHasher{},
		issuer:   &mockTokenIssuer{},
		recovery: &seqRecovery{},
		notifier: &recordingNotifier{},
	}
	f.uc = NewAuthUsecase(f.repo, f.hasher, f.issuer, f.recovery, f.notifier)
	return f
}

func TestAuthUsecase_Signup(t *testing.T) {
	t.Run("successful signup stores hash and recovery token", func(t *testing.T) {
		f := newFixture()

		err := f.uc.Signup(context.Background(), "  A@X.com ", "pw1")
		require.NoError(t, err)

		u := f.repo.byEmail(t, "a@x.com")
		assert.Equal(t, "hashed:pw1", u.Password)
		assert.NotEqual(t, "pw1", u.Password)
		assert.Equal(t, "recovery-001", u.RecoveryToken)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))

		err := f.uc.Signup(context.Background(), "A@x.com", "pw2")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Len(t, f.repo.users, 1)
	})

	t.Run("concurrent insert conflict surfaces as duplicate", func(t *testing.T) {
		f := newFixture()
		f.repo.createErr = ErrEmailAlreadyExists

		err := f.uc.Signup(context.Background(), "a@x.com", "pw1")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name, email, password string
		}{
			{"empty email", "", "pw"},
			{"blank email", "   ", "pw"},
			{"empty password", "a@x.com", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				err := f.uc.Signup(context.Background(), tt.email, tt.password)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Empty(t, f.repo.users)
			})
		}
	})

	t.Run("internal failures", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(f *fixture)
		}{
			{"lookup fails", func(f *fixture) { f.repo.findErr = errors.New("db down") }},
			{"hash fails", func(f *fixture) { f.hasher.err = errors.New("hash failed") }},
			{"token generation fails", func(f *fixture) { f.recovery.err = errors.New("entropy") }},
			{"insert fails", func(f *fixture) { f.repo.createErr = errors.New("disk full") }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				tt.setup(f)

				err := f.uc.Signup(context.Background(), "a@x.com", "pw1")

				assert.ErrorIs(t, err, ErrInternal)
			})
		}
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	setup := func(t *testing.T) *fixture {
		f := newFixture()
		require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))
		return f
	}

	t.Run("successful login", func(t *testing.T) {
		f := setup(t)
		before := f.repo.byEmail(t, "a@x.com").RecoveryToken

		token, err := f.uc.Login(context.Background(), "A@X.COM", "pw1")

		require.NoError(t, err)
		assert.Equal(t, "token-for-1", token)
		assert.Equal(t, before, f.repo.byEmail(t, "a@x.com").RecoveryToken, "login must not rotate the recovery token")
	})

	t.Run("unknown email", func(t *testing.T) {
		f := setup(t)

		token, err := f.uc.Login(context.Background(), "b@x.com", "pw1")

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setup(t)

		token, err := f.uc.Login(context.Background(), "a@x.com", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setup(t)

		_, err := f.uc.Login(context.Background(), "", "pw1")
		assert.ErrorIs(t, err, ErrValidation)
		_, err = f.uc.Login(context.Background(), "a@x.com", "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("issuer failure is internal", func(t *testing.T) {
		f := setup(t)
		f.issuer.IssueFunc = func(uint) (string, error) { return "", errors.New("sign failed") }

		_, err := f.uc.Login(context.Background(), "a@x.com", "pw1")

		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		f := setup(t)
		f.repo.findErr = errors.New("db down")

		_, err := f.uc.Login(context.Background(), "a@x.com", "pw1")

		assert.ErrorIs(t, err, ErrInternal)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAuthUsecase_RequestPasswordReset(t *testing.T) {
	t.Run("repeated requests send the same token", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))

		require.NoError(t, f.uc.RequestPasswordReset(context.Background(), "a@x.com"))
		require.NoError(t, f.uc.RequestPasswordReset(context.Background(), "A@x.com"))

		require.Len(t, f.notifier.tokens, 2)
		assert.Equal(t, f.notifier.tokens[0], f.notifier.tokens[1])
		assert.Equal(t, f.repo.byEmail(t, "a@x.com").RecoveryToken, f.notifier.tokens[0])
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture()

		err := f.uc.RequestPasswordReset(context.Background(), "nobody@x.com")

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, f.notifier.tokens)
	})

	t.Run("delivery failure is not reported to the caller", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))
		f.notifier.err = errors.New("smtp unavailable")

		err := f.uc.RequestPasswordReset(context.Background(), "a@x.com")

		assert.NoError(t, err)
		assert.Len(t, f.notifier.tokens, 1)
	})

	t.Run("empty email", func(t *testing.T) {
		f := newFixture()
		assert.ErrorIs(t, f.uc.RequestPasswordReset(context.Background(), " "), ErrValidation)
	})
}

func TestAuthUsecase_ChangePassword(t *testing.T) {
	setup := func(t *testing.T) (*fixture, string) {
		f := newFixture()
		require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))
		return f, f.repo.byEmail(t, "a@x.com").RecoveryToken
	}

	t.Run("success rotates token and replaces password", func(t *testing.T) {
		f, t0 := setup(t)

		err := f.uc.ChangePassword(context.Background(), t0, "pw2")
		require.NoError(t, err)

		u := f.repo.byEmail(t, "a@x.com")
		assert.Equal(t, "hashed:pw2", u.Password)
		assert.NotEqual(t, t0, u.RecoveryToken)

		_, err = f.uc.Login(context.Background(), "a@x.com", "pw1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.uc.Login(context.Background(), "a@x.com", "pw2")
		assert.NoError(t, err)
	})

	t.Run("token is single use", func(t *testing.T) {
		f, t0 := setup(t)
		require.NoError(t, f.uc.ChangePassword(context.Background(), t0, "pw2"))

		err := f.uc.ChangePassword(context.Background(), t0, "pw3")

		assert.ErrorIs(t, err, ErrInvalidRecoveryToken)
		assert.Equal(t, "hashed:pw2", f.repo.byEmail(t, "a@x.com").Password)
	})

	t.Run("unknown token", func(t *testing.T) {
		f, _ := setup(t)

		err := f.uc.ChangePassword(context.Background(), "nope", "pw2")

		assert.ErrorIs(t, err, ErrInvalidRecoveryToken)
		assert.Equal(t, "hashed:pw1", f.repo.byEmail(t, "a@x.com").Password)
	})

	t.Run("validation", func(t *testing.T) {
		f, t0 := setup(t)

		assert.ErrorIs(t, f.uc.ChangePassword(context.Background(), "", "pw2"), ErrValidation)
		assert.ErrorIs(t, f.uc.ChangePassword(context.Background(), t0, ""), ErrValidation)
	})

	t.Run("update failure is internal and leaves state unchanged", func(t *testing.T) {
		f, t0 := setup(t)
		f.repo.updateErr = errors.New("db down")

		err := f.uc.ChangePassword(context.Background(), t0, "pw2")

		assert.ErrorIs(t, err, ErrInternal)
		f.repo.updateErr = nil
		u := f.repo.byEmail(t, "a@x.com")
		assert.Equal(t, t0, u.RecoveryToken)
		assert.Equal(t, "hashed:pw1", u.Password)
	})
}

// TestAuthUsecase_ChangePassword_Concurrent は同じトークンによる同時変更で成功するのが1件だけであることを検証します。
func TestAuthUsecase_ChangePassword_Concurrent(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.uc.Signup(context.Background(), "a@x.com", "pw1"))
	t0 := f.repo.byEmail(t, "a@x.com").RecoveryToken

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := f.uc.ChangePassword(context.Background(), t0, fmt.Sprintf("pw-%d", i))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrInvalidRecoveryToken):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())
	assert.NotEqual(t, t0, f.repo.byEmail(t, "a@x.com").RecoveryToken)
}
