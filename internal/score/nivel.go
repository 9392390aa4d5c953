package score

// Nivel descreve um degrau da gamificação exibido no perfil.
type Nivel struct {
	Nivel           int    `json:"nivel"`
	ScoreNecessario int    `json:"score_necessario"`
	Nome            string `json:"nome"`
	Frase           string `json:"frase"`
}

var niveis = []Nivel{
	{Nivel: 1, ScoreNecessario: 0, Nome: "Iniciante Verde", Frase: "Cada passo conta na jornada para um planeta mais limpo!"},
	{Nivel: 2, ScoreNecessario: 100, Nome: "Guardião da Natureza", Frase: "Você está fazendo a diferença, continue assim!"},
	{Nivel: 3, ScoreNecessario: 300, Nome: "Herói Sustentável", Frase: "Seus esforços inspiram outros a cuidar do planeta!"},
	{Nivel: 4, ScoreNecessario: 600, Nome: "Defensor Ecológico", Frase: "Você é um verdadeiro exemplo de compromisso ambiental!"},
	{Nivel: 5, ScoreNecessario: 1000, Nome: "Líder do EcoCiclo", Frase: "Parabéns! Sua dedicação é essencial para um futuro sustentável."},
}

// Niveis devolve a tabela completa, do primeiro ao último degrau.
func Niveis() []Nivel {
	out := make([]Nivel, len(niveis))
	copy(out, niveis)
	return out
}

// NivelPorScore devolve o maior nível alcançado com o score informado.
func NivelPorScore(score int) Nivel {
	atual := niveis[0]
	for _, n := range niveis {
		if score >= n.ScoreNecessario {
			atual = n
		}
	}
	return atual
}

// ProximoNivel devolve o próximo degrau, ou nil quando já está no topo.
func ProximoNivel(score int) *Nivel {
	for _, n := range niveis {
		if score < n.ScoreNecessario {
			next := n
			return &next
		}
	}
	return nil
}
