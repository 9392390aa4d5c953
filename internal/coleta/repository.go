package coleta

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecociclo/api/internal/db"
	"github.com/ecociclo/api/internal/score"
)

var (
	ErrNotFound           = errors.New("coleta não encontrada")
	ErrForbidden          = errors.New("acesso negado")
	ErrConcluida          = errors.New("coleta já concluída")
	ErrSemItens           = errors.New("coleta sem itens")
	ErrItensIndisponiveis = errors.New("um ou mais itens não estão disponíveis")
)

// Status do ciclo de vida de uma coleta. A transição é só para frente:
// EM_ANDAMENTO -> CONCLUIDA.
type Status string

const (
	StatusEmAndamento Status = "EM_ANDAMENTO"
	StatusConcluida   Status = "CONCLUIDA"
)

type Coleta struct {
	ID        uuid.UUID `json:"id"`
	CatadorID uuid.UUID `json:"catador_id"`
	Nome      string    `json:"nome"`
	Score     int       `json:"score"`
	Status    Status    `json:"status"`
	CriadoEm  time.Time `json:"criado_em"`
	Itens     []Item    `json:"itens,omitempty"`
}

// Item é a projeção de um item reservado dentro de uma coleta.
type Item struct {
	ID        uuid.UUID  `json:"id"`
	PontoID   uuid.UUID  `json:"ponto_id"`
	Coletado  bool       `json:"coletado"`
	FotoID    *uuid.UUID `json:"foto_id,omitempty"`
	Categoria *Categoria `json:"categoria,omitempty"`
	Ponto     *Ponto     `json:"ponto,omitempty"`
}

type Categoria struct {
	Nome  string `json:"nome"`
	Icone string `json:"icone"`
}

type Ponto struct {
	Nome      string  `json:"nome"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const dbTimeout = 3 * time.Second

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Criar reserva os itens informados e abre uma coleta em andamento. Os
// itens são travados com FOR UPDATE para que duas coletas simultâneas não
// disputem o mesmo item.
func (r *Repository) Criar(ctx context.Context, catadorID uuid.UUID, itemIDs []uuid.UUID) (*Coleta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var coleta Coleta
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id FROM itens
			WHERE id = ANY($1::uuid[]) AND coleta_id IS NULL AND coletado = FALSE
			FOR UPDATE`, itemIDs)
		if err != nil {
			return fmt.Errorf("travar itens: %w", err)
		}
		livres, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("coletar itens livres: %w", err)
		}
		if len(livres) != len(itemIDs) {
			return ErrItensIndisponiveis
		}

		nome := fmt.Sprintf("Coleta de %d itens", len(itemIDs))
		if len(itemIDs) == 1 {
			nome = "Coleta de 1 item"
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO coletas (catador_id, nome, score, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, catador_id, nome, score, status, criado_em`,
			catadorID, nome, score.RecompensaColeta(len(itemIDs)), StatusEmAndamento,
		).Scan(&coleta.ID, &coleta.CatadorID, &coleta.Nome, &coleta.Score, &coleta.Status, &coleta.CriadoEm)
		if err != nil {
			return fmt.Errorf("inserir coleta: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE itens SET coleta_id = $1 WHERE id = ANY($2::uuid[])`, coleta.ID, itemIDs); err != nil {
			return fmt.Errorf("reservar itens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &coleta, nil
}

// ListEmAndamento retorna as coletas abertas do catador com seus itens,
// categoria e localização do ponto de origem.
func (r *Repository) ListEmAndamento(ctx context.Context, catadorID uuid.UUID) ([]Coleta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.catador_id, c.nome, c.score, c.status, c.criado_em,
		       i.id, i.ponto_id, i.coletado, i.foto_id,
		       cat.nome, cat.icone,
		       p.nome, p.latitude, p.longitude
		FROM coletas c
		JOIN itens i ON i.coleta_id = c.id
		JOIN categorias cat ON cat.id = i.categoria_id
		JOIN pontos_coleta p ON p.id = i.ponto_id
		WHERE c.catador_id = $1 AND c.status = $2
		ORDER BY c.criado_em DESC, i.criado_em ASC`, catadorID, StatusEmAndamento)
	if err != nil {
		return nil, fmt.Errorf("listar coletas: %w", err)
	}
	defer rows.Close()

	coletas := make([]Coleta, 0)
	indice := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			c    Coleta
			item Item
			cat  Categoria
			p    Ponto
		)
		if err := rows.Scan(
			&c.ID, &c.CatadorID, &c.Nome, &c.Score, &c.Status, &c.CriadoEm,
			&item.ID, &item.PontoID, &item.Coletado, &item.FotoID,
			&cat.Nome, &cat.Icone,
			&p.Nome, &p.Latitude, &p.Longitude,
		); err != nil {
			return nil, fmt.Errorf("ler coleta: %w", err)
		}
		item.Categoria = &cat
		item.Ponto = &p

		pos, ok := indice[c.ID]
		if !ok {
			c.Itens = []Item{item}
			coletas = append(coletas, c)
			indice[c.ID] = len(coletas) - 1
			continue
		}
		coletas[pos].Itens = append(coletas[pos].Itens, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar coletas: %w", err)
	}
	return coletas, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Coleta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c Coleta
	err := r.pool.QueryRow(ctx, `
		SELECT id, catador_id, nome, score, status, criado_em
		FROM coletas WHERE id = $1`, id,
	).Scan(&c.ID, &c.CatadorID, &c.Nome, &c.Score, &c.Status, &c.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscar coleta: %w", err)
	}
	return &c, nil
}

// Concluir fecha a coleta, marca todos os itens como coletados e credita a
// pontuação ao catador. O UPDATE guarda a transição no status atual, então
// uma segunda chamada não credita de novo.
func (r *Repository) Concluir(ctx context.Context, id uuid.UUID) (*Coleta, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c Coleta
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var total int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM itens WHERE coleta_id = $1`, id).Scan(&total); err != nil {
			return fmt.Errorf("contar itens: %w", err)
		}
		if total == 0 {
			return ErrSemItens
		}

		pontos := score.RecompensaColeta(total)
		err := tx.QueryRow(ctx, `
			UPDATE coletas
			SET status = $1, score = $2
			WHERE id = $3 AND status = $4
			RETURNING id, catador_id, nome, score, status, criado_em`,
			StatusConcluida, pontos, id, StatusEmAndamento,
		).Scan(&c.ID, &c.CatadorID, &c.Nome, &c.Score, &c.Status, &c.CriadoEm)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConcluida
		}
		if err != nil {
			return fmt.Errorf("concluir coleta: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE itens SET coletado = TRUE WHERE coleta_id = $1`, id); err != nil {
			return fmt.Errorf("marcar itens: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE usuarios SET score = score + $1 WHERE id = $2`, pontos, c.CatadorID); err != nil {
			return fmt.Errorf("creditar catador: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// travar prende a linha da coleta até o fim da transação. A conferência do
// status dentro do lock é o que impede cancelar ou mexer nos itens de uma
// coleta que acabou de ser concluída por outra requisição.
func travar(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var status Status
	err := tx.QueryRow(ctx, `SELECT status FROM coletas WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("travar coleta: %w", err)
	}
	if status == StatusConcluida {
		return ErrConcluida
	}
	return nil
}

// Cancelar libera os itens reservados e apaga a coleta.
func (r *Repository) Cancelar(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := travar(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE itens SET coleta_id = NULL, coletado = FALSE WHERE coleta_id = $1`, id); err != nil {
			return fmt.Errorf("liberar itens: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM coletas WHERE id = $1`, id); err != nil {
			return fmt.Errorf("apagar coleta: %w", err)
		}
		return nil
	})
}

// RemoverItens devolve os itens informados ao ponto de origem. Se a coleta
// ficar vazia ela é apagada junto.
func (r *Repository) RemoverItens(ctx context.Context, id uuid.UUID, itemIDs []uuid.UUID) (esvaziada bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err = db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := travar(ctx, tx, id); err != nil {
			return err
		}
		// Itens que não pertencem à coleta ficam como estão.
		if _, err := tx.Exec(ctx, `
			UPDATE itens SET coleta_id = NULL, coletado = FALSE
			WHERE coleta_id = $1 AND id = ANY($2::uuid[])`, id, itemIDs); err != nil {
			return fmt.Errorf("liberar itens: %w", err)
		}

		var restantes int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM itens WHERE coleta_id = $1`, id).Scan(&restantes); err != nil {
			return fmt.Errorf("contar itens restantes: %w", err)
		}
		if restantes == 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM coletas WHERE id = $1`, id); err != nil {
				return fmt.Errorf("apagar coleta vazia: %w", err)
			}
			esvaziada = true
			return nil
		}

		if _, err := tx.Exec(ctx, `UPDATE coletas SET score = $1 WHERE id = $2`, score.RecompensaColeta(restantes), id); err != nil {
			return fmt.Errorf("ajustar pontuação: %w", err)
		}
		return nil
	})
	return esvaziada, err
}

// MarcarItem registra se um item da coleta já foi recolhido no ponto.
func (r *Repository) MarcarItem(ctx context.Context, coletaID, itemID uuid.UUID, coletado bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := travar(ctx, tx, coletaID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE itens SET coletado = $1 WHERE id = $2 AND coleta_id = $3`, coletado, itemID, coletaID)
		if err != nil {
			return fmt.Errorf("marcar item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
