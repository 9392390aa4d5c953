package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ecociclo/api/internal/auth"
	"github.com/ecociclo/api/internal/config"
	"github.com/ecociclo/api/internal/db"
	"github.com/ecociclo/api/internal/repo"
)

// Aplica as migrações (incluindo as categorias) e, com -demo, cria um par de
// contas de demonstração para desenvolvimento local.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	demo := flag.Bool("demo", false, "cria contas de demonstração (usuário e catador)")
	senha := flag.String("senha", "ecociclo123", "senha das contas de demonstração")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := db.MigrateUp(cfg.DBDSN); err != nil {
		log.Fatal().Err(err).Msg("migrações")
	}
	log.Info().Msg("migrações aplicadas")

	if !*demo {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()

	queries := repo.New(pool)
	hash, err := auth.Hash(*senha)
	if err != nil {
		log.Fatal().Err(err).Msg("hash")
	}

	nascimento := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
	contas := []repo.InsertUsuarioParams{
		{Nome: "Ana Demo", CPF: "11122233344", Nascimento: nascimento, Email: "usuario@ecociclo.dev", SenhaHash: hash, Tipo: repo.TipoUsuarioComum},
		{Nome: "Carlos Demo", CPF: "55566677788", Nascimento: nascimento, Email: "catador@ecociclo.dev", SenhaHash: hash, Tipo: repo.TipoCatador},
	}

	for _, conta := range contas {
		u, err := queries.InsertUsuario(ctx, conta)
		if errors.Is(err, repo.ErrDuplicado) {
			log.Info().Str("email", conta.Email).Msg("conta já existe, pulando")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("email", conta.Email).Msg("criar conta")
		}
		fmt.Printf("%s (%s): %s\n", u.Nome, u.Tipo, u.Email)
	}
}
