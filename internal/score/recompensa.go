package score

// Recompensas fixas por ação cívica. Incrementos acontecem sempre dentro da
// transação que grava a ação; não existe caminho de estorno.
const (
	RecompensaItem  = 10
	RecompensaPonto = 25
)

// RecompensaColeta calcula o score de uma coleta a partir da quantidade de itens.
func RecompensaColeta(qtdItens int) int {
	return qtdItens * RecompensaItem
}
