package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the transactions database.
const (
	PropName          = "Name"
	PropTransactionID = "Transaction ID"
	PropFamilyID      = "Family ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropType          = "Type"
	PropCategory      = "Category"
	PropSubcategory   = "Subcategory"
	PropSource        = "Source"
	PropCreatedAt     = "Created At"
)

var typeLabels = map[domain.TransactionType]string{
	domain.TransactionExpense: "Despesa",
	domain.TransactionIncome:  "Receita",
}

// Names resolves category and subcategory IDs to display names.
type Names struct {
	Categories    map[string]string
	Subcategories map[string]string
}

// TransactionToNotionProperties converts a transaction to Notion properties.
// Expenses are written with a negative amount so the database can sum a
// balance column.
func TransactionToNotionProperties(tx *domain.Transaction, names Names) notionapi.Properties {
	amount, _ := tx.Signed().Float64()

	props := notionapi.Properties{
		PropName:          notionapi.TitleProperty{Title: richText(tx.Description)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		PropFamilyID:      notionapi.RichTextProperty{RichText: richText(tx.FamilyID)},
		PropDate:          dateProperty(civilToTime(tx.Date)),
		PropAmount:        notionapi.NumberProperty{Number: amount},
		PropType:          notionapi.SelectProperty{Select: notionapi.Option{Name: typeLabels[tx.Type]}},
	}

	if name := names.Categories[tx.CategoryID]; name != "" {
		props[PropCategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
	}
	if name := names.Subcategories[tx.SubcategoryID]; name != "" {
		props[PropSubcategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
	}
	if tx.Source != "" {
		props[PropSource] = notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Source)}}
	}
	if !tx.CreatedAt.IsZero() {
		props[PropCreatedAt] = dateProperty(tx.CreatedAt)
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func civilToTime(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// pageText reads a text or title property. Pages returned by the API carry
// pointer properties with PlainText set; pages built locally carry values.
func pageText(page notionapi.Page, name string) string {
	var texts []notionapi.RichText
	switch p := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		texts = p.RichText
	case notionapi.RichTextProperty:
		texts = p.RichText
	case *notionapi.TitleProperty:
		texts = p.Title
	case notionapi.TitleProperty:
		texts = p.Title
	}
	if len(texts) == 0 {
		return ""
	}
	if texts[0].PlainText != "" {
		return texts[0].PlainText
	}
	if texts[0].Text != nil {
		return texts[0].Text.Content
	}
	return ""
}

// pageDate reads the start of a date property.
func pageDate(page notionapi.Page, name string) (civil.Date, bool) {
	var obj *notionapi.DateObject
	switch p := page.Properties[name].(type) {
	case *notionapi.DateProperty:
		obj = p.Date
	case notionapi.DateProperty:
		obj = p.Date
	}
	if obj == nil || obj.Start == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(time.Time(*obj.Start)), true
}
