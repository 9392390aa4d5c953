package coleta

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ecociclo/api/internal/repo"
)

type repository interface {
	Criar(ctx context.Context, catadorID uuid.UUID, itemIDs []uuid.UUID) (*Coleta, error)
	ListEmAndamento(ctx context.Context, catadorID uuid.UUID) ([]Coleta, error)
	Get(ctx context.Context, id uuid.UUID) (*Coleta, error)
	Concluir(ctx context.Context, id uuid.UUID) (*Coleta, error)
	Cancelar(ctx context.Context, id uuid.UUID) error
	RemoverItens(ctx context.Context, id uuid.UUID, itemIDs []uuid.UUID) (bool, error)
	MarcarItem(ctx context.Context, coletaID, itemID uuid.UUID, coletado bool) error
}

// Service aplica as regras de negócio do ciclo de coleta: só catadores
// operam coletas, e sempre sobre as próprias.
type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Criar(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, itemIDs []uuid.UUID) (*Coleta, error) {
	if tipo != repo.TipoCatador {
		return nil, ErrForbidden
	}
	if len(itemIDs) == 0 {
		return nil, ErrSemItens
	}

	vistos := make(map[uuid.UUID]struct{}, len(itemIDs))
	unicos := make([]uuid.UUID, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := vistos[id]; ok {
			continue
		}
		vistos[id] = struct{}{}
		unicos = append(unicos, id)
	}

	c, err := s.repo.Criar(ctx, catadorID, unicos)
	if err != nil {
		return nil, fmt.Errorf("criar coleta: %w", err)
	}
	return c, nil
}

func (s *Service) Listar(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario) ([]Coleta, error) {
	if tipo != repo.TipoCatador {
		return nil, ErrForbidden
	}
	return s.repo.ListEmAndamento(ctx, catadorID)
}

// Concluir fecha a coleta do catador. Concluir uma coleta já concluída não
// credita pontos de novo: a chamada devolve a coleta como está.
func (s *Service) Concluir(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID uuid.UUID) (*Coleta, error) {
	c, err := s.dono(ctx, catadorID, tipo, coletaID)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusConcluida {
		return c, nil
	}

	concluida, err := s.repo.Concluir(ctx, coletaID)
	if err != nil {
		return nil, fmt.Errorf("concluir coleta: %w", err)
	}
	return concluida, nil
}

func (s *Service) Cancelar(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID uuid.UUID) error {
	c, err := s.dono(ctx, catadorID, tipo, coletaID)
	if err != nil {
		return err
	}
	if c.Status == StatusConcluida {
		return ErrConcluida
	}
	return s.repo.Cancelar(ctx, coletaID)
}

// RemoverItens devolve itens da coleta ao ponto de origem. Devolve true
// quando a coleta ficou vazia e foi apagada junto.
func (s *Service) RemoverItens(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID uuid.UUID, itemIDs []uuid.UUID) (bool, error) {
	c, err := s.dono(ctx, catadorID, tipo, coletaID)
	if err != nil {
		return false, err
	}
	if c.Status == StatusConcluida {
		return false, ErrConcluida
	}
	if len(itemIDs) == 0 {
		return false, ErrSemItens
	}
	return s.repo.RemoverItens(ctx, coletaID, itemIDs)
}

func (s *Service) RemoverItem(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID, itemID uuid.UUID) (bool, error) {
	return s.RemoverItens(ctx, catadorID, tipo, coletaID, []uuid.UUID{itemID})
}

// MarcarItem registra no item da coleta se ele já foi recolhido no ponto.
func (s *Service) MarcarItem(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID, itemID uuid.UUID, coletado bool) error {
	c, err := s.dono(ctx, catadorID, tipo, coletaID)
	if err != nil {
		return err
	}
	if c.Status == StatusConcluida {
		return ErrConcluida
	}
	return s.repo.MarcarItem(ctx, coletaID, itemID, coletado)
}

// AtualizarStatus trata a troca de status pedida pelo catador. CONCLUIDA
// conclui (idempotente); voltar para EM_ANDAMENTO depois de concluída é
// conflito, o status só anda para frente.
func (s *Service) AtualizarStatus(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID uuid.UUID, status Status) (*Coleta, error) {
	switch status {
	case StatusConcluida:
		return s.Concluir(ctx, catadorID, tipo, coletaID)
	case StatusEmAndamento:
		c, err := s.dono(ctx, catadorID, tipo, coletaID)
		if err != nil {
			return nil, err
		}
		if c.Status == StatusConcluida {
			return nil, ErrConcluida
		}
		return c, nil
	default:
		return nil, fmt.Errorf("status inválido: %s", status)
	}
}

func (s *Service) dono(ctx context.Context, catadorID uuid.UUID, tipo repo.TipoUsuario, coletaID uuid.UUID) (*Coleta, error) {
	if tipo != repo.TipoCatador {
		return nil, ErrForbidden
	}
	c, err := s.repo.Get(ctx, coletaID)
	if err != nil {
		return nil, err
	}
	if c.CatadorID != catadorID {
		return nil, ErrForbidden
	}
	return c, nil
}
