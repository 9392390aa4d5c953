package foto

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indica foto ausente.
var ErrNotFound = errors.New("foto não encontrada")

const dbTimeout = 3 * time.Second

// Foto guarda a referência de um arquivo no bucket.
type Foto struct {
	ID       uuid.UUID `json:"id"`
	Chave    string    `json:"chave"`
	CriadoEm time.Time `json:"criado_em"`
}

// Repository persiste metadados de fotos.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create registra a chave do objeto recém enviado.
func (r *Repository) Create(ctx context.Context, chave string) (Foto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var f Foto
	err := r.db.QueryRow(ctx, `
        INSERT INTO fotos (chave)
        VALUES ($1)
        RETURNING id, chave, criado_em
    `, chave).Scan(&f.ID, &f.Chave, &f.CriadoEm)
	if err != nil {
		return Foto{}, err
	}
	return f, nil
}

// GetByID busca a foto pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Foto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var f Foto
	err := r.db.QueryRow(ctx, `
        SELECT id, chave, criado_em
        FROM fotos
        WHERE id = $1
    `, id).Scan(&f.ID, &f.Chave, &f.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Foto{}, ErrNotFound
		}
		return Foto{}, err
	}
	return f, nil
}

// Exists confirma se a foto está cadastrada.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM fotos WHERE id = $1)
    `, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
