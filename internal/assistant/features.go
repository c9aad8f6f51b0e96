package assistant

import "sort"

// Feature is help content returned by explicar_funcionalidade.
type Feature struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	Action      string   `json:"action,omitempty"`
}

const defaultFeature = "geral"

var features = map[string]Feature{
	"geral": {
		Title: "Finanças em Família",
		Description: "Organize as finanças da família em um só lugar: registre transações, " +
			"defina orçamentos, crie metas e converse com o assistente.",
		Examples: []string{"Gastei 50 reais em Alimentação no mercado", "Qual meu saldo do mês?"},
	},
	"transacoes": {
		Title:       "Transações",
		Description: "Registre despesas e receitas manualmente ou pelo chat.",
		Steps: []string{
			"Abra a aba Transações",
			"Clique em Nova transação",
			"Informe tipo, valor, descrição, categoria e data",
		},
		Examples: []string{"Gastei 120 em Transporte com combustível", "Recebi 3000 de Salário"},
		Action:   "/transactions",
	},
	"orcamentos": {
		Title:       "Orçamentos",
		Description: "Defina limites de gasto por categoria e receba alertas quando forem ultrapassados.",
		Steps: []string{
			"Abra a aba Orçamentos",
			"Escolha uma categoria de despesa",
			"Informe o limite e o período",
		},
		Examples: []string{"Crie um orçamento de 800 para Alimentação por mês"},
		Action:   "/budgets",
	},
	"metas": {
		Title:       "Metas",
		Description: "Acompanhe objetivos como viagens, reserva de emergência ou a compra de um carro.",
		Steps:       []string{"Abra a aba Metas", "Informe nome, valor alvo e prazo"},
		Examples:    []string{"Quero juntar 5000 para uma viagem até dezembro"},
		Action:      "/goals",
	},
	"familia": {
		Title:       "Família",
		Description: "Convide pessoas por e-mail para compartilhar as finanças da família.",
		Steps:       []string{"Abra Configurações > Família", "Informe o e-mail do convidado", "O convidado aceita pelo link recebido"},
		Action:      "/settings/family",
	},
	"notificacoes": {
		Title:       "Notificações",
		Description: "Ative alertas de transação, orçamento, metas e família nas configurações.",
		Action:      "/settings/notifications",
	},
	"assistente": {
		Title:       "Assistente",
		Description: "Converse em linguagem natural e escolha a personalidade do assistente nas configurações.",
		Examples:    []string{"Quanto gastei esta semana?", "Apague a transação do mercado de 50 reais"},
	},
}

// ExplainFeature returns the help entry for key, falling back to the general one.
func ExplainFeature(key string) Feature {
	if f, ok := features[key]; ok {
		return f
	}
	return features[defaultFeature]
}

// FeatureKeys lists the help topics in stable order.
func FeatureKeys() []string {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
