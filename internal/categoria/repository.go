package categoria

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Categoria é dado de referência semeado por migração; somente leitura em runtime.
type Categoria struct {
	ID    uuid.UUID `json:"id"`
	Nome  string    `json:"nome"`
	Icone string    `json:"icone"`
}

// Repository lê o registro de categorias.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List devolve todas as categorias ordenadas por nome.
func (r *Repository) List(ctx context.Context) ([]Categoria, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
        SELECT id, nome, icone
        FROM categorias
        ORDER BY nome
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categorias []Categoria
	for rows.Next() {
		var c Categoria
		if err := rows.Scan(&c.ID, &c.Nome, &c.Icone); err != nil {
			return nil, err
		}
		categorias = append(categorias, c)
	}
	return categorias, rows.Err()
}
