package ponto

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ecociclo/api/internal/geo"
	"github.com/ecociclo/api/internal/repo"
)

type repository interface {
	CriarPonto(ctx context.Context, nome string, latitude, longitude float64, autorID uuid.UUID) (PontoColeta, error)
	GetPonto(ctx context.Context, id uuid.UUID) (PontoColeta, error)
	ListByAutor(ctx context.Context, autorID uuid.UUID) ([]PontoColeta, error)
	ListComItensDisponiveis(ctx context.Context, categoriaIDs []uuid.UUID) ([]PontoColeta, error)
	ListItensDisponiveis(ctx context.Context, pontoID uuid.UUID) ([]Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (Item, error)
	CriarItem(ctx context.Context, pontoID, categoriaID, autorID uuid.UUID, fotoID *uuid.UUID) (Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type fotoChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ErrFotoNaoEncontrada indica fotoId apontando para registro inexistente.
var ErrFotoNaoEncontrada = errors.New("foto associada não encontrada")

// Service aplica as regras de pontos de coleta e itens.
type Service struct {
	repo  repository
	fotos fotoChecker
}

func NewService(r repository, fotos fotoChecker) *Service {
	return &Service{repo: r, fotos: fotos}
}

// CriarPonto registra um ponto em nome do usuário autenticado (+25 de score).
func (s *Service) CriarPonto(ctx context.Context, autorID uuid.UUID, tipo repo.TipoUsuario, nome string, latitude, longitude float64) (PontoColeta, error) {
	switch tipo {
	case repo.TipoUsuarioComum:
		// segue
	case repo.TipoCatador:
		return PontoColeta{}, ErrForbidden
	default:
		return PontoColeta{}, ErrForbidden
	}

	nome = strings.TrimSpace(nome)
	if nome == "" {
		return PontoColeta{}, errors.New("nome obrigatório")
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return PontoColeta{}, errors.New("coordenadas inválidas")
	}

	return s.repo.CriarPonto(ctx, nome, latitude, longitude, autorID)
}

// ListarFiltro parametriza a listagem de pontos para catadores.
type ListarFiltro struct {
	Categorias []uuid.UUID
	// Lat/Lng opcionais; quando presentes a resposta ganha distância e vem
	// ordenada do mais próximo ao mais distante.
	Lat *float64
	Lng *float64
}

// Listar devolve a visão de pontos conforme o papel do chamador.
func (s *Service) Listar(ctx context.Context, userID uuid.UUID, tipo repo.TipoUsuario, filtro ListarFiltro) ([]PontoColeta, error) {
	switch tipo {
	case repo.TipoUsuarioComum:
		return s.repo.ListByAutor(ctx, userID)
	case repo.TipoCatador:
		pontos, err := s.repo.ListComItensDisponiveis(ctx, filtro.Categorias)
		if err != nil {
			return nil, err
		}
		if filtro.Lat != nil && filtro.Lng != nil {
			for i := range pontos {
				d := geo.DistanciaKm(*filtro.Lat, *filtro.Lng, pontos[i].Latitude, pontos[i].Longitude)
				pontos[i].DistanciaKm = &d
			}
			sort.Slice(pontos, func(i, j int) bool {
				return *pontos[i].DistanciaKm < *pontos[j].DistanciaKm
			})
		}
		return pontos, nil
	default:
		return nil, ErrForbidden
	}
}

// ListarItens devolve os itens ainda não coletados do ponto.
func (s *Service) ListarItens(ctx context.Context, pontoID uuid.UUID) ([]Item, error) {
	if _, err := s.repo.GetPonto(ctx, pontoID); err != nil {
		return nil, err
	}
	return s.repo.ListItensDisponiveis(ctx, pontoID)
}

// CriarItem adiciona um item ao ponto do próprio chamador (+10 de score para
// o autor do ponto).
func (s *Service) CriarItem(ctx context.Context, callerID uuid.UUID, pontoID, categoriaID uuid.UUID, fotoID *uuid.UUID) (Item, error) {
	p, err := s.repo.GetPonto(ctx, pontoID)
	if err != nil {
		return Item{}, err
	}
	if p.AutorID != callerID {
		return Item{}, ErrForbidden
	}

	if fotoID != nil {
		ok, err := s.fotos.Exists(ctx, *fotoID)
		if err != nil {
			return Item{}, err
		}
		if !ok {
			return Item{}, ErrFotoNaoEncontrada
		}
	}

	return s.repo.CriarItem(ctx, pontoID, categoriaID, p.AutorID, fotoID)
}

// RemoverItem exclui um item livre do ponto do próprio chamador. Itens já
// vinculados a uma coleta (em andamento ou concluída) só saem pelos fluxos
// de coleta.
func (s *Service) RemoverItem(ctx context.Context, callerID, pontoID, itemID uuid.UUID) error {
	p, err := s.repo.GetPonto(ctx, pontoID)
	if err != nil {
		return err
	}
	if p.AutorID != callerID {
		return ErrForbidden
	}

	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if it.PontoID != pontoID {
		return ErrNotFound
	}
	if it.ColetaID != nil {
		return ErrItemReservado
	}
	return s.repo.DeleteItem(ctx, itemID)
}
