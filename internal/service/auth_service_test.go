package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ecociclo/api/internal/auth"
	"github.com/ecociclo/api/internal/repo"
)

type stubRepo struct {
	porEmail map[string]repo.Usuario
	porID    map[uuid.UUID]repo.Usuario
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		porEmail: make(map[string]repo.Usuario),
		porID:    make(map[uuid.UUID]repo.Usuario),
	}
}

func (s *stubRepo) GetUsuarioByEmail(_ context.Context, email string) (repo.Usuario, error) {
	u, ok := s.porEmail[email]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) GetUsuarioByID(_ context.Context, id uuid.UUID) (repo.Usuario, error) {
	u, ok := s.porID[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) InsertUsuario(_ context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	if _, ok := s.porEmail[arg.Email]; ok {
		return repo.Usuario{}, repo.ErrDuplicado
	}
	u := repo.Usuario{
		ID:         uuid.New(),
		Nome:       arg.Nome,
		CPF:        arg.CPF,
		Nascimento: arg.Nascimento,
		Email:      arg.Email,
		SenhaHash:  arg.SenhaHash,
		Tipo:       arg.Tipo,
		CriadoEm:   time.Now(),
	}
	s.porEmail[u.Email] = u
	s.porID[u.ID] = u
	return u, nil
}

func (s *stubRepo) UpdatePerfil(_ context.Context, id uuid.UUID, nome, cpf string) (repo.Usuario, error) {
	u, ok := s.porID[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	u.Nome, u.CPF = nome, cpf
	s.porID[id] = u
	s.porEmail[u.Email] = u
	return u, nil
}

type stubRedis struct {
	valores map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{valores: make(map[string]string)}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	s.valores[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := s.valores[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.valores[k]; ok {
			delete(s.valores, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newAuthService(t *testing.T) (*AuthService, *stubRepo, *stubRedis) {
	t.Helper()
	r := newStubRepo()
	rd := newStubRedis()
	jwtMgr := auth.NewJWTManager("segredo-de-teste", 15*time.Minute)
	return NewAuthService(r, rd, jwtMgr, time.Hour), r, rd
}

func registroValido() RegisterInput {
	return RegisterInput{
		Nome:       "Maria Silva",
		CPF:        "12345678901",
		Nascimento: time.Date(1995, time.July, 2, 0, 0, 0, 0, time.UTC),
		Email:      "maria@example.com",
		Senha:      "senhasegura",
		Tipo:       "USUARIO",
	}
}

func TestRegisterAbreSessao(t *testing.T) {
	s, _, rd := newAuthService(t)

	result, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "USUARIO", result.Usuario.Tipo)
	require.Equal(t, 1, result.Usuario.Nivel.Nivel)
	require.Len(t, rd.valores, 1)

	claims, err := s.JWT().ParseAndValidate(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "USUARIO", claims.Tipo)
}

func TestRegisterValidaCampos(t *testing.T) {
	s, _, _ := newAuthService(t)

	casos := map[string]func(*RegisterInput){
		"cpf curto":      func(in *RegisterInput) { in.CPF = "123" },
		"email inválido": func(in *RegisterInput) { in.Email = "nao-eh-email" },
		"senha curta":    func(in *RegisterInput) { in.Senha = "abc" },
		"tipo inválido":  func(in *RegisterInput) { in.Tipo = "ADMIN" },
		"nascimento futuro": func(in *RegisterInput) {
			in.Nascimento = time.Now().Add(24 * time.Hour)
		},
	}

	for nome, altera := range casos {
		t.Run(nome, func(t *testing.T) {
			in := registroValido()
			altera(&in)
			_, err := s.Register(context.Background(), in)
			require.Error(t, err)
		})
	}
}

func TestRegisterDuplicado(t *testing.T) {
	s, _, _ := newAuthService(t)

	_, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)

	_, err = s.Register(context.Background(), registroValido())
	require.ErrorIs(t, err, ErrEmailEmUso)
}

func TestLogin(t *testing.T) {
	s, _, _ := newAuthService(t)

	_, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)

	result, err := s.Login(context.Background(), "MARIA@example.com", "senhasegura")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	_, err = s.Login(context.Background(), "maria@example.com", "senhaerrada")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), "ninguem@example.com", "senhasegura")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotaciona(t *testing.T) {
	s, _, _ := newAuthService(t)

	first, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)

	second, err := s.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// token antigo foi revogado na rotação
	_, err = s.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	_, err = s.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevoga(t *testing.T) {
	s, _, _ := newAuthService(t)

	result, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background(), result.RefreshToken))

	_, err = s.Refresh(context.Background(), result.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestGetPerfilComNivel(t *testing.T) {
	s, r, _ := newAuthService(t)

	result, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)

	id := uuid.MustParse(result.Usuario.ID)
	u := r.porID[id]
	u.Score = 350
	r.porID[id] = u

	perfil, err := s.GetPerfil(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 350, perfil.Score)
	require.Equal(t, 3, perfil.Nivel.Nivel)
	require.NotNil(t, perfil.ProximoNivel)
	require.Equal(t, 600, perfil.ProximoNivel.ScoreNecessario)
}

func TestUpdatePerfil(t *testing.T) {
	s, _, _ := newAuthService(t)

	result, err := s.Register(context.Background(), registroValido())
	require.NoError(t, err)
	id := uuid.MustParse(result.Usuario.ID)

	perfil, err := s.UpdatePerfil(context.Background(), id, UpdatePerfilInput{Nome: "Maria Souza", CPF: "10987654321"})
	require.NoError(t, err)
	require.Equal(t, "Maria Souza", perfil.Nome)
	require.Equal(t, "10987654321", perfil.CPF)

	_, err = s.UpdatePerfil(context.Background(), id, UpdatePerfilInput{Nome: "M", CPF: "10987654321"})
	require.Error(t, err)
}
