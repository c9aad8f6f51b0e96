package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	KindTransactionAlert: "Nova transação registrada",
	KindBudgetAlert:      "Orçamento ultrapassado",
	KindGoalAlert:        "Nova meta criada",
	KindFamilyAlert:      "Novidades na sua família",
	KindInvite:           "Você foi convidado para uma família",
	KindPasswordChange:   "Sua senha foi alterada",
	KindWaitlist:         "Seu acesso está liberado",
	KindAdminNewUser:     "Novo usuário cadastrado",
}

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{"brl": FormatBRL}).ParseFS(templateFS, "templates/*.html"),
)

type templateData struct {
	AppURL string
	Data   any
}

func render(kind string, data templateData) (subject, body string, err error) {
	subject, ok := subjects[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, kind+".html", data); err != nil {
		return "", "", fmt.Errorf("rendering %s: %w", kind, err)
	}
	return subject, buf.String(), nil
}

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,50".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}
