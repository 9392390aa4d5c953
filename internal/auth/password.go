package auth

import "github.com/alexedwards/argon2id"

// 64 MB por hash; ajustar junto com o limite de memória do container.
var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id da senha; os parâmetros vão embutidos no resultado.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, params)
}

// Verify confere a senha contra o hash usando os parâmetros embutidos nele.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
