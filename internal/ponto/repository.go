package ponto

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecociclo/api/internal/db"
	"github.com/ecociclo/api/internal/score"
)

var (
	ErrNotFound  = errors.New("ponto ou item não encontrado")
	ErrForbidden = errors.New("sem acesso ao ponto de coleta")
	// ErrItemReservado impede excluir item já vinculado a uma coleta.
	ErrItemReservado = errors.New("item vinculado a uma coleta")
)

const dbTimeout = 3 * time.Second

// PontoColeta é um local geográfico onde itens descartáveis se acumulam.
type PontoColeta struct {
	ID          uuid.UUID  `json:"id"`
	Nome        string     `json:"nome"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	AutorID     uuid.UUID  `json:"autor_id"`
	CriadoEm    time.Time  `json:"criado_em"`
	Itens       []Item     `json:"itens,omitempty"`
	DistanciaKm *float64   `json:"distancia_km,omitempty"`
}

// Item é um objeto descartável aguardando retirada em um ponto.
type Item struct {
	ID          uuid.UUID      `json:"id"`
	PontoID     uuid.UUID      `json:"ponto_id"`
	CategoriaID uuid.UUID      `json:"categoria_id"`
	AutorID     uuid.UUID      `json:"autor_id"`
	FotoID      *uuid.UUID     `json:"foto_id,omitempty"`
	Coletado    bool           `json:"coletado"`
	ColetaID    *uuid.UUID     `json:"coleta_id,omitempty"`
	CriadoEm    time.Time      `json:"criado_em"`
	Categoria   *CategoriaInfo `json:"categoria,omitempty"`
}

// CategoriaInfo é a projeção da categoria embutida nas listagens.
type CategoriaInfo struct {
	Nome  string `json:"nome"`
	Icone string `json:"icone"`
}

// Repository encapsula consultas de pontos de coleta e seus itens.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// CriarPonto grava o ponto e credita a recompensa do autor na mesma transação.
func (r *Repository) CriarPonto(ctx context.Context, nome string, latitude, longitude float64, autorID uuid.UUID) (PontoColeta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p PontoColeta
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
            INSERT INTO pontos_coleta (nome, latitude, longitude, autor_id)
            VALUES ($1, $2, $3, $4)
            RETURNING id, nome, latitude, longitude, autor_id, criado_em
        `, nome, latitude, longitude, autorID).Scan(&p.ID, &p.Nome, &p.Latitude, &p.Longitude, &p.AutorID, &p.CriadoEm); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
            UPDATE usuarios SET score = score + $2 WHERE id = $1
        `, autorID, score.RecompensaPonto)
		return err
	})
	if err != nil {
		return PontoColeta{}, err
	}
	return p, nil
}

// GetPonto busca o ponto pelo identificador.
func (r *Repository) GetPonto(ctx context.Context, id uuid.UUID) (PontoColeta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p PontoColeta
	err := r.db.QueryRow(ctx, `
        SELECT id, nome, latitude, longitude, autor_id, criado_em
        FROM pontos_coleta
        WHERE id = $1
    `, id).Scan(&p.ID, &p.Nome, &p.Latitude, &p.Longitude, &p.AutorID, &p.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PontoColeta{}, ErrNotFound
		}
		return PontoColeta{}, err
	}
	return p, nil
}

// ListByAutor devolve os pontos criados pelo usuário.
func (r *Repository) ListByAutor(ctx context.Context, autorID uuid.UUID) ([]PontoColeta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
        SELECT id, nome, latitude, longitude, autor_id, criado_em
        FROM pontos_coleta
        WHERE autor_id = $1
        ORDER BY criado_em DESC
    `, autorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pontos []PontoColeta
	for rows.Next() {
		var p PontoColeta
		if err := rows.Scan(&p.ID, &p.Nome, &p.Latitude, &p.Longitude, &p.AutorID, &p.CriadoEm); err != nil {
			return nil, err
		}
		pontos = append(pontos, p)
	}
	return pontos, rows.Err()
}

// ListComItensDisponiveis devolve pontos que tenham ao menos um item livre
// (não coletado e fora de qualquer coleta), com os itens livres aninhados.
// categoriaIDs vazio significa sem filtro.
func (r *Repository) ListComItensDisponiveis(ctx context.Context, categoriaIDs []uuid.UUID) ([]PontoColeta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
        SELECT p.id, p.nome, p.latitude, p.longitude, p.autor_id, p.criado_em,
               i.id, i.categoria_id, i.autor_id, i.foto_id, i.criado_em,
               c.nome, c.icone
        FROM pontos_coleta p
        JOIN itens i ON i.ponto_id = p.id AND i.coletado = FALSE AND i.coleta_id IS NULL
        JOIN categorias c ON c.id = i.categoria_id
        WHERE cardinality($1::uuid[]) = 0 OR i.categoria_id = ANY($1)
        ORDER BY p.criado_em DESC, i.criado_em
    `, categoriaIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pontos []PontoColeta
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var p PontoColeta
		var it Item
		var cat CategoriaInfo
		if err := rows.Scan(
			&p.ID, &p.Nome, &p.Latitude, &p.Longitude, &p.AutorID, &p.CriadoEm,
			&it.ID, &it.CategoriaID, &it.AutorID, &it.FotoID, &it.CriadoEm,
			&cat.Nome, &cat.Icone,
		); err != nil {
			return nil, err
		}
		it.PontoID = p.ID
		it.Categoria = &cat

		pos, ok := index[p.ID]
		if !ok {
			pos = len(pontos)
			index[p.ID] = pos
			pontos = append(pontos, p)
		}
		pontos[pos].Itens = append(pontos[pos].Itens, it)
	}
	return pontos, rows.Err()
}

// ListItensDisponiveis devolve os itens ainda não coletados de um ponto.
func (r *Repository) ListItensDisponiveis(ctx context.Context, pontoID uuid.UUID) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
        SELECT i.id, i.ponto_id, i.categoria_id, i.autor_id, i.foto_id, i.coletado, i.coleta_id, i.criado_em,
               c.nome, c.icone
        FROM itens i
        JOIN categorias c ON c.id = i.categoria_id
        WHERE i.ponto_id = $1 AND i.coletado = FALSE
        ORDER BY i.criado_em
    `, pontoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var itens []Item
	for rows.Next() {
		var it Item
		var cat CategoriaInfo
		if err := rows.Scan(
			&it.ID, &it.PontoID, &it.CategoriaID, &it.AutorID, &it.FotoID, &it.Coletado, &it.ColetaID, &it.CriadoEm,
			&cat.Nome, &cat.Icone,
		); err != nil {
			return nil, err
		}
		it.Categoria = &cat
		itens = append(itens, it)
	}
	return itens, rows.Err()
}

// GetItem busca um item pelo identificador.
func (r *Repository) GetItem(ctx context.Context, itemID uuid.UUID) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
        SELECT id, ponto_id, categoria_id, autor_id, foto_id, coletado, coleta_id, criado_em
        FROM itens
        WHERE id = $1
    `, itemID).Scan(&it.ID, &it.PontoID, &it.CategoriaID, &it.AutorID, &it.FotoID, &it.Coletado, &it.ColetaID, &it.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// CriarItem grava o item (autor herdado do ponto) e credita a recompensa na
// mesma transação.
func (r *Repository) CriarItem(ctx context.Context, pontoID, categoriaID, autorID uuid.UUID, fotoID *uuid.UUID) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var it Item
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
            INSERT INTO itens (ponto_id, categoria_id, autor_id, foto_id)
            VALUES ($1, $2, $3, $4)
            RETURNING id, ponto_id, categoria_id, autor_id, foto_id, coletado, coleta_id, criado_em
        `, pontoID, categoriaID, autorID, fotoID).Scan(
			&it.ID, &it.PontoID, &it.CategoriaID, &it.AutorID, &it.FotoID, &it.Coletado, &it.ColetaID, &it.CriadoEm,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
            UPDATE usuarios SET score = score + $2 WHERE id = $1
        `, autorID, score.RecompensaItem)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

// DeleteItem remove o item do ponto.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM itens WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
