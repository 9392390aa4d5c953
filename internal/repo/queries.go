package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Queries concentra acesso à tabela de usuários.
type Queries struct {
	db *pgxpool.Pool
}

// New cria o conjunto de queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{db: pool}
}

const usuarioColumns = `id, nome, cpf, nascimento, email, senha_hash, tipo, score, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.CPF, &u.Nascimento, &u.Email, &u.SenhaHash, &u.Tipo, &u.Score, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByEmail busca conta pelo email normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.db.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE lower(email) = lower($1)
    `, email)
	return scanUsuario(row)
}

// GetUsuarioByID busca conta pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.db.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE id = $1
    `, id)
	return scanUsuario(row)
}

// InsertUsuarioParams agrupa os campos de criação de conta.
type InsertUsuarioParams struct {
	Nome       string
	CPF        string
	Nascimento time.Time
	Email      string
	SenhaHash  string
	Tipo       TipoUsuario
}

// InsertUsuario cria a conta; CPF e email duplicados viram ErrDuplicado.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.db.QueryRow(ctx, `
        INSERT INTO usuarios (nome, cpf, nascimento, email, senha_hash, tipo)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+usuarioColumns+`
    `, arg.Nome, arg.CPF, arg.Nascimento, arg.Email, arg.SenhaHash, arg.Tipo)

	u, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Usuario{}, ErrDuplicado
		}
		return Usuario{}, err
	}
	return u, nil
}

// UpdatePerfil altera nome e CPF da própria conta.
func (q *Queries) UpdatePerfil(ctx context.Context, id uuid.UUID, nome, cpf string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.db.QueryRow(ctx, `
        UPDATE usuarios
        SET nome = $2, cpf = $3
        WHERE id = $1
        RETURNING `+usuarioColumns+`
    `, id, nome, cpf)

	u, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Usuario{}, ErrDuplicado
		}
		return Usuario{}, err
	}
	return u, nil
}
