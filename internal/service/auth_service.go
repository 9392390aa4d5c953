package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ecociclo/api/internal/auth"
	"github.com/ecociclo/api/internal/repo"
	"github.com/ecociclo/api/internal/score"
	"github.com/ecociclo/api/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrEmailEmUso indica cadastro com e-mail ou CPF já registrado.
	ErrEmailEmUso = errors.New("e-mail ou CPF já cadastrado")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdatePerfil(ctx context.Context, id uuid.UUID, nome, cpf string) (repo.Usuario, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra cadastro, autenticação e sessões.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe o gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa o retorno padrão de autenticações.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Usuario      Perfil
}

// Perfil é a visão do usuário devolvida pela API, com a gamificação embutida.
type Perfil struct {
	ID           string       `json:"id"`
	Nome         string       `json:"nome"`
	CPF          string       `json:"cpf"`
	Nascimento   string       `json:"nascimento"`
	Email        string       `json:"email"`
	Tipo         string       `json:"tipo"`
	Score        int          `json:"score"`
	Nivel        score.Nivel  `json:"nivel"`
	ProximoNivel *score.Nivel `json:"proximo_nivel,omitempty"`
}

func perfilDe(u repo.Usuario) Perfil {
	return Perfil{
		ID:           u.ID.String(),
		Nome:         u.Nome,
		CPF:          u.CPF,
		Nascimento:   u.Nascimento.Format("2006-01-02"),
		Email:        u.Email,
		Tipo:         string(u.Tipo),
		Score:        u.Score,
		Nivel:        score.NivelPorScore(u.Score),
		ProximoNivel: score.ProximoNivel(u.Score),
	}
}

// RegisterInput carrega os campos do cadastro já normalizados pelo handler.
type RegisterInput struct {
	Nome       string `validate:"required,min=2"`
	CPF        string `validate:"required,cpf"`
	Nascimento time.Time
	Email      string `validate:"required,email"`
	Senha      string `validate:"required,min=8"`
	Tipo       string `validate:"required,oneof=USUARIO CATADOR"`
}

// Register cria a conta e já abre sessão para o novo usuário.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nome = strings.TrimSpace(in.Nome)
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Nascimento.IsZero() || in.Nascimento.After(time.Now()) {
		return nil, errors.New("data de nascimento inválida")
	}

	hash, err := auth.Hash(in.Senha)
	if err != nil {
		return nil, fmt.Errorf("hash da senha: %w", err)
	}

	user, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		Nome:       in.Nome,
		CPF:        in.CPF,
		Nascimento: in.Nascimento,
		Email:      in.Email,
		SenhaHash:  hash,
		Tipo:       repo.TipoUsuario(in.Tipo),
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicado) {
			return nil, ErrEmailEmUso
		}
		return nil, err
	}

	log.Info().Str("usuario_id", user.ID.String()).Str("tipo", string(user.Tipo)).Msg("novo cadastro")
	return s.abrirSessao(ctx, user)
}

// Login autentica por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, senha string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil || !ok {
		log.Warn().Str("usuario_id", user.ID.String()).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	return s.abrirSessao(ctx, user)
}

// Refresh troca um refresh token válido por um novo par de tokens. O token
// antigo é revogado na mesma operação (rotação).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	key := auth.RefreshRedisKey(hash)

	subject, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	user, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	return s.abrirSessao(ctx, user)
}

// Logout revoga o refresh token. Token desconhecido não é erro.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	return s.redis.Del(ctx, key).Err()
}

// GetPerfil devolve o perfil do usuário com nível e próximo nível.
func (s *AuthService) GetPerfil(ctx context.Context, id uuid.UUID) (*Perfil, error) {
	user, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := perfilDe(user)
	return &p, nil
}

// UpdatePerfilInput são os campos editáveis do perfil.
type UpdatePerfilInput struct {
	Nome string `validate:"required,min=2"`
	CPF  string `validate:"required,cpf"`
}

func (s *AuthService) UpdatePerfil(ctx context.Context, id uuid.UUID, in UpdatePerfilInput) (*Perfil, error) {
	in.Nome = strings.TrimSpace(in.Nome)
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdatePerfil(ctx, id, in.Nome, in.CPF)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicado) {
			return nil, ErrEmailEmUso
		}
		return nil, err
	}
	p := perfilDe(user)
	return &p, nil
}

func (s *AuthService) abrirSessao(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(user.ID.String(), string(user.Tipo))
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), user.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		Usuario:      perfilDe(user),
	}, nil
}
