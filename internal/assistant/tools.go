package assistant

import (
	"github.com/dvloznov/family-finance/internal/llm"
)

// Tool names exposed to the model. They are part of the prompt contract.
const (
	ToolRegisterTransaction = "registrar_transacao"
	ToolSearchTransactions  = "buscar_transacoes"
	ToolCreateBudget        = "criar_orcamento"
	ToolCreateGoal          = "criar_meta"
	ToolFinancialSummary    = "resumo_financeiro"
	ToolExplainFeature      = "explicar_funcionalidade"
	ToolDeleteTransaction   = "deletar_transacao"
)

// Property is one parameter of a tool.
type Property struct {
	Type        string
	Description string
	Enum        []string
}

// Tool is a registry entry.
type Tool struct {
	Name        string
	Description string
	Properties  map[string]Property
	Required    []string
}

var registry = []Tool{
	{
		Name: ToolRegisterTransaction,
		Description: "Registra uma nova transação (despesa ou receita) da família. " +
			"Use somente quando o usuário informar valor, descrição e uma categoria existente; " +
			"se faltar a categoria, pergunte antes de chamar.",
		Properties: map[string]Property{
			"type":        {Type: "string", Description: "Tipo da transação", Enum: []string{"expense", "income"}},
			"amount":      {Type: "number", Description: "Valor positivo da transação em reais"},
			"description": {Type: "string", Description: "Descrição curta da transação, ex.: mercado"},
			"category":    {Type: "string", Description: "Nome exato de uma das categorias disponíveis"},
			"subcategory": {Type: "string", Description: "Nome da subcategoria, se houver"},
			"date":        {Type: "string", Description: "Data no formato AAAA-MM-DD; padrão é hoje"},
		},
		Required: []string{"type", "amount", "description", "category"},
	},
	{
		Name:        ToolSearchTransactions,
		Description: "Busca transações da família com filtros opcionais, das mais recentes para as mais antigas.",
		Properties: map[string]Property{
			"type":       {Type: "string", Description: "Filtra por tipo", Enum: []string{"expense", "income"}},
			"category":   {Type: "string", Description: "Nome da categoria"},
			"start_date": {Type: "string", Description: "Data inicial AAAA-MM-DD"},
			"end_date":   {Type: "string", Description: "Data final AAAA-MM-DD"},
			"limit":      {Type: "integer", Description: "Quantidade máxima de resultados (padrão 10)"},
		},
		Required: []string{},
	},
	{
		Name:        ToolCreateBudget,
		Description: "Cria ou atualiza o orçamento de uma categoria de despesa para o período atual.",
		Properties: map[string]Property{
			"category": {Type: "string", Description: "Nome da categoria de despesa"},
			"amount":   {Type: "number", Description: "Valor limite do orçamento em reais"},
			"period":   {Type: "string", Description: "Período do orçamento", Enum: []string{"weekly", "monthly", "yearly"}},
		},
		Required: []string{"category", "amount", "period"},
	},
	{
		Name:        ToolCreateGoal,
		Description: "Cria uma meta financeira para a família.",
		Properties: map[string]Property{
			"name":          {Type: "string", Description: "Nome da meta, ex.: Viagem de férias"},
			"target_amount": {Type: "number", Description: "Valor a ser alcançado em reais"},
			"deadline":      {Type: "string", Description: "Prazo no formato AAAA-MM-DD"},
			"category":      {Type: "string", Description: "Categoria livre da meta, ex.: viagem"},
		},
		Required: []string{"name", "target_amount"},
	},
	{
		Name:        ToolFinancialSummary,
		Description: "Calcula receitas, despesas e saldo da família em um período.",
		Properties: map[string]Property{
			"period": {Type: "string", Description: "Período do resumo", Enum: []string{"week", "month", "year", "all"}},
		},
		Required: []string{"period"},
	},
	{
		Name:        ToolExplainFeature,
		Description: "Explica como usar uma funcionalidade do aplicativo.",
		Properties: map[string]Property{
			"feature": {
				Type:        "string",
				Description: "Funcionalidade a explicar",
				Enum:        FeatureKeys(),
			},
		},
		Required: []string{"feature"},
	},
	{
		Name: ToolDeleteTransaction,
		Description: "Exclui uma transação encontrada pela descrição e, opcionalmente, valor e data. " +
			"Confirme com o usuário antes de excluir.",
		Properties: map[string]Property{
			"description": {Type: "string", Description: "Parte da descrição da transação"},
			"amount":      {Type: "number", Description: "Valor exato da transação"},
			"date":        {Type: "string", Description: "Data exata AAAA-MM-DD"},
		},
		Required: []string{"description"},
	},
}

// Tools returns the registry.
func Tools() []Tool {
	out := make([]Tool, len(registry))
	copy(out, registry)
	return out
}

// ToolNames returns the registered tool names in declaration order.
func ToolNames() []string {
	names := make([]string, 0, len(registry))
	for _, t := range registry {
		names = append(names, t.Name)
	}
	return names
}

// Schema renders the tool's parameters as a JSON schema object.
func (t Tool) Schema() map[string]any {
	props := make(map[string]any, len(t.Properties))
	for name, p := range t.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}
	required := t.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToolDefinitions returns the registry in the llm package's shape.
func ToolDefinitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(registry))
	for _, t := range registry {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema(),
		})
	}
	return defs
}
