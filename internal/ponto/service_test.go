package ponto

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecociclo/api/internal/repo"
)

type stubRepo struct {
	pontos map[uuid.UUID]PontoColeta
	itens  map[uuid.UUID]Item
	scores map[uuid.UUID]int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		pontos: make(map[uuid.UUID]PontoColeta),
		itens:  make(map[uuid.UUID]Item),
		scores: make(map[uuid.UUID]int),
	}
}

func (s *stubRepo) CriarPonto(_ context.Context, nome string, latitude, longitude float64, autorID uuid.UUID) (PontoColeta, error) {
	p := PontoColeta{ID: uuid.New(), Nome: nome, Latitude: latitude, Longitude: longitude, AutorID: autorID}
	s.pontos[p.ID] = p
	s.scores[autorID] += 25
	return p, nil
}

func (s *stubRepo) GetPonto(_ context.Context, id uuid.UUID) (PontoColeta, error) {
	p, ok := s.pontos[id]
	if !ok {
		return PontoColeta{}, ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) ListByAutor(_ context.Context, autorID uuid.UUID) ([]PontoColeta, error) {
	out := make([]PontoColeta, 0)
	for _, p := range s.pontos {
		if p.AutorID == autorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) ListComItensDisponiveis(_ context.Context, _ []uuid.UUID) ([]PontoColeta, error) {
	out := make([]PontoColeta, 0, len(s.pontos))
	for _, p := range s.pontos {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubRepo) ListItensDisponiveis(_ context.Context, pontoID uuid.UUID) ([]Item, error) {
	out := make([]Item, 0)
	for _, it := range s.itens {
		if it.PontoID == pontoID && !it.Coletado {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubRepo) GetItem(_ context.Context, itemID uuid.UUID) (Item, error) {
	it, ok := s.itens[itemID]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (s *stubRepo) CriarItem(_ context.Context, pontoID, categoriaID, autorID uuid.UUID, fotoID *uuid.UUID) (Item, error) {
	it := Item{ID: uuid.New(), PontoID: pontoID, CategoriaID: categoriaID, FotoID: fotoID}
	s.itens[it.ID] = it
	s.scores[autorID] += 10
	return it, nil
}

func (s *stubRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if _, ok := s.itens[itemID]; !ok {
		return ErrNotFound
	}
	delete(s.itens, itemID)
	return nil
}

type stubFotos struct {
	existentes map[uuid.UUID]bool
}

func (s *stubFotos) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.existentes[id], nil
}

func newService(stub *stubRepo) (*Service, *stubFotos) {
	fotos := &stubFotos{existentes: make(map[uuid.UUID]bool)}
	return NewService(stub, fotos), fotos
}

func TestCriarPontoCreditaVinteCinco(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	p, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto Centro", -22.9, -43.2)
	require.NoError(t, err)
	require.Equal(t, autor, p.AutorID)
	require.Equal(t, 25, stub.scores[autor])
}

func TestCriarPontoRecusaCatador(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)

	_, err := s.CriarPonto(context.Background(), uuid.New(), repo.TipoCatador, "Ecoponto", -22.9, -43.2)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCriarPontoValidaEntrada(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	_, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "   ", -22.9, -43.2)
	require.Error(t, err)

	_, err = s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto", -91, -43.2)
	require.Error(t, err)
}

func TestListarPorPapel(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	_, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto A", -22.9, -43.2)
	require.NoError(t, err)
	_, err = s.CriarPonto(context.Background(), uuid.New(), repo.TipoUsuarioComum, "Ecoponto B", -23.5, -46.6)
	require.NoError(t, err)

	proprios, err := s.Listar(context.Background(), autor, repo.TipoUsuarioComum, ListarFiltro{})
	require.NoError(t, err)
	require.Len(t, proprios, 1)

	todos, err := s.Listar(context.Background(), uuid.New(), repo.TipoCatador, ListarFiltro{})
	require.NoError(t, err)
	require.Len(t, todos, 2)

	_, err = s.Listar(context.Background(), uuid.New(), repo.TipoUsuario("ADMIN"), ListarFiltro{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestListarOrdenaPorDistancia(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)

	// São Paulo fica mais perto do ponto de referência que o Rio.
	_, err := s.CriarPonto(context.Background(), uuid.New(), repo.TipoUsuarioComum, "Rio", -22.9068, -43.1729)
	require.NoError(t, err)
	_, err = s.CriarPonto(context.Background(), uuid.New(), repo.TipoUsuarioComum, "São Paulo", -23.5505, -46.6333)
	require.NoError(t, err)

	lat, lng := -23.2, -45.9
	pontos, err := s.Listar(context.Background(), uuid.New(), repo.TipoCatador, ListarFiltro{Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	require.Len(t, pontos, 2)
	require.Equal(t, "São Paulo", pontos[0].Nome)
	require.NotNil(t, pontos[0].DistanciaKm)
	require.Less(t, *pontos[0].DistanciaKm, *pontos[1].DistanciaKm)
}

func TestCriarItemCreditaDez(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	p, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto", -22.9, -43.2)
	require.NoError(t, err)

	it, err := s.CriarItem(context.Background(), autor, p.ID, uuid.New(), nil)
	require.NoError(t, err)
	require.False(t, it.Coletado)
	require.Equal(t, 35, stub.scores[autor])
}

func TestCriarItemExigeDonoDoPonto(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)

	p, err := s.CriarPonto(context.Background(), uuid.New(), repo.TipoUsuarioComum, "Ecoponto", -22.9, -43.2)
	require.NoError(t, err)

	_, err = s.CriarItem(context.Background(), uuid.New(), p.ID, uuid.New(), nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCriarItemComFotoInexistente(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	p, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto", -22.9, -43.2)
	require.NoError(t, err)

	foto := uuid.New()
	_, err = s.CriarItem(context.Background(), autor, p.ID, uuid.New(), &foto)
	require.ErrorIs(t, err, ErrFotoNaoEncontrada)
}

func TestRemoverItemReservado(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	p, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto", -22.9, -43.2)
	require.NoError(t, err)
	it, err := s.CriarItem(context.Background(), autor, p.ID, uuid.New(), nil)
	require.NoError(t, err)

	coleta := uuid.New()
	reservado := stub.itens[it.ID]
	reservado.ColetaID = &coleta
	stub.itens[it.ID] = reservado

	err = s.RemoverItem(context.Background(), autor, p.ID, it.ID)
	require.ErrorIs(t, err, ErrItemReservado)
}

func TestRemoverItemDeOutroPonto(t *testing.T) {
	stub := newStubRepo()
	s, _ := newService(stub)
	autor := uuid.New()

	p, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto A", -22.9, -43.2)
	require.NoError(t, err)
	outro, err := s.CriarPonto(context.Background(), autor, repo.TipoUsuarioComum, "Ecoponto B", -23.5, -46.6)
	require.NoError(t, err)
	it, err := s.CriarItem(context.Background(), autor, p.ID, uuid.New(), nil)
	require.NoError(t, err)

	err = s.RemoverItem(context.Background(), autor, outro.ID, it.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
