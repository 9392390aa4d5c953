package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicado é retornado quando CPF ou email já estão cadastrados.
	ErrDuplicado = errors.New("registro duplicado")
)
