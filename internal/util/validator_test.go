package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type cadastro struct {
	Nome  string `validate:"required"`
	CPF   string `validate:"required,cpf"`
	Email string `validate:"required,email"`
	Senha string `validate:"required,min=8"`
	Tipo  string `validate:"required,oneof=USUARIO CATADOR"`
}

func TestValidateStruct(t *testing.T) {
	valido := cadastro{
		Nome:  "Maria",
		CPF:   "12345678901",
		Email: "maria@example.com",
		Senha: "segredo123",
		Tipo:  "USUARIO",
	}
	require.NoError(t, ValidateStruct(valido))

	semNome := valido
	semNome.Nome = ""
	require.Error(t, ValidateStruct(semNome))

	cpfCurto := valido
	cpfCurto.CPF = "123"
	require.ErrorContains(t, ValidateStruct(cpfCurto), "cpf")

	emailRuim := valido
	emailRuim.Email = "nao-e-email"
	require.Error(t, ValidateStruct(emailRuim))

	tipoInvalido := valido
	tipoInvalido.Tipo = "ADMIN"
	require.Error(t, ValidateStruct(tipoInvalido))
}

func TestValidateCPF(t *testing.T) {
	require.NoError(t, ValidateCPF("12345678901"))
	require.Error(t, ValidateCPF("1234567890"))
	require.Error(t, ValidateCPF("1234567890a"))
}
