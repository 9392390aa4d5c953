package repo

import (
	"time"

	"github.com/google/uuid"
)

// TipoUsuario é o papel fechado de uma conta: criador de pontos ou catador.
type TipoUsuario string

const (
	TipoUsuarioComum TipoUsuario = "USUARIO"
	TipoCatador      TipoUsuario = "CATADOR"
)

// Valid informa se o valor pertence ao conjunto fechado de papéis.
func (t TipoUsuario) Valid() bool {
	switch t {
	case TipoUsuarioComum, TipoCatador:
		return true
	}
	return false
}

// Usuario representa uma conta do EcoCiclo.
type Usuario struct {
	ID         uuid.UUID
	Nome       string
	CPF        string
	Nascimento time.Time
	Email      string
	SenhaHash  string
	Tipo       TipoUsuario
	Score      int
	CriadoEm   time.Time
}
