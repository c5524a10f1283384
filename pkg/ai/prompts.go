package ai

import (
	"fmt"
	"strings"

	"baterysul.com.br/ledger/pkg/models"
)

const StockAnalysisSystemPrompt = `Você é um gerente de logística especialista em lojas de baterias automotivas.
Analise o inventário atual da loja e escreva um relatório curto e estratégico (no máximo 3 parágrafos).
- Identifique itens críticos (estoque abaixo do mínimo ou zerado).
- Sugira ações de reposição urgentes.
- Se o estoque estiver saudável, elogie o equilíbrio.
Use formatação Markdown para deixar o texto legível.`

// Fixed texts shown instead of a report
const (
	EmptyReportMessage    = "Não foi possível gerar a análise no momento."
	ServiceErrorMessage   = "Erro ao conectar com a IA para análise de estoque. Verifique sua chave de API."
	EmptyInventoryMessage = "Nenhuma bateria cadastrada para analisar."
)

// formatInventoryPrompt lists one line per battery in the order given
func formatInventoryPrompt(rows []models.AdvisoryRow) string {
	var lines strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&lines, "- %s %dAh: %d unidades (Mínimo ideal: %d)\n", row.Brand, row.Amperage, row.Quantity, row.MinStock)
	}

	return fmt.Sprintf(`Dados do Inventário:
%s
Instruções:
1. Identifique itens críticos (estoque abaixo do mínimo ou zerado).
2. Sugira ações de reposição urgentes.
3. Se o estoque estiver saudável, elogie o equilíbrio.`, lines.String())
}
