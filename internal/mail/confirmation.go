package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/alejolo311/CDZGR/internal/models"
)

// ConfirmationData feeds the individual confirmation email.
type ConfirmationData struct {
	FirstName   string
	LastName    string
	Email       string
	Category    string
	Subcategory string
	PriceCOP    int64
}

// GroupConfirmationData feeds the group-leader confirmation email.
type GroupConfirmationData struct {
	GroupName        string
	LeaderFirstName  string
	LeaderLastName   string
	Email            string
	Category         string
	ParticipantCount int
	TotalPriceCOP    int64
}

// FormatPriceCOP renders an amount the Colombian way: $899.000 COP.
func FormatPriceCOP(n int64) string {
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "$" + b.String() + " COP"
}

// CategoryLabel is the human name of a race category.
func CategoryLabel(category string) string {
	switch category {
	case models.CategoryGravel:
		return "Gravel Race"
	case models.CategoryPaseo:
		return "El Paseo"
	default:
		return category
	}
}

// ConfirmationSubject is the subject line for a confirmed payment.
func ConfirmationSubject(category string) string {
	return fmt.Sprintf("¡Inscripción confirmada! Caídos del Zarzo 2026 – %s", CategoryLabel(category))
}

// RenderConfirmation builds the individual confirmation HTML.
func RenderConfirmation(d ConfirmationData) string {
	rows := []detailRow{
		{"Modalidad", CategoryLabel(d.Category)},
	}
	if strings.TrimSpace(d.Subcategory) != "" {
		rows = append(rows, detailRow{"Subcategoría", d.Subcategory})
	}
	rows = append(rows,
		detailRow{"Valor pagado", FormatPriceCOP(d.PriceCOP)},
		detailRow{"Fecha del evento", "Domingo 20 de Septiembre, 2026"},
		detailRow{"Lugar de salida", "Plaza Central, Sevilla Valle del Cauca"},
	)
	greeting := fmt.Sprintf("Hola <strong>%s %s</strong>,<br>tu lugar en Caídos del Zarzo 2026 está asegurado.",
		html.EscapeString(d.FirstName), html.EscapeString(d.LastName))
	return renderLayout(greeting, rows)
}

// RenderGroupConfirmation builds the confirmation HTML sent to the
// leader of a fully paid group.
func RenderGroupConfirmation(d GroupConfirmationData) string {
	rows := []detailRow{
		{"Grupo", d.GroupName},
		{"Modalidad", CategoryLabel(d.Category)},
		{"Participantes", fmt.Sprintf("%d", d.ParticipantCount)},
		{"Valor pagado", FormatPriceCOP(d.TotalPriceCOP)},
		{"Fecha del evento", "Domingo 20 de Septiembre, 2026"},
		{"Lugar de salida", "Plaza Central, Sevilla Valle del Cauca"},
	}
	greeting := fmt.Sprintf("Hola <strong>%s %s</strong>,<br>la inscripción del grupo <strong>%s</strong> está confirmada para todos sus participantes.",
		html.EscapeString(d.LeaderFirstName), html.EscapeString(d.LeaderLastName), html.EscapeString(d.GroupName))
	return renderLayout(greeting, rows)
}

type detailRow struct {
	label string
	value string
}

func renderLayout(greeting string, rows []detailRow) string {
	var detail strings.Builder
	for _, row := range rows {
		detail.WriteString(fmt.Sprintf(`<tr>
  <td style="padding:10px 0;color:#999;font-size:13px;width:150px;vertical-align:top">%s</td>
  <td style="padding:10px 0;color:#1a1208;font-weight:700;font-size:15px">%s</td>
</tr>
`, html.EscapeString(row.label), html.EscapeString(row.value)))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>Inscripción Confirmada · Caídos del Zarzo 2026</title>
</head>
<body style="margin:0;padding:0;background:#f0ebe3;font-family:Arial,Helvetica,sans-serif">
<table width="100%%" cellpadding="0" cellspacing="0" role="presentation" style="background:#f0ebe3;padding:40px 16px">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" role="presentation" style="max-width:600px;width:100%%">
  <tr>
    <td style="background:#c47818;padding:40px 48px 36px;text-align:center">
      <p style="margin:0 0 6px;color:rgba(255,255,255,.7);font-size:11px;letter-spacing:4px;text-transform:uppercase">Confirmación de Inscripción</p>
      <h1 style="margin:0 0 6px;color:#fff;font-size:36px;font-weight:900;letter-spacing:5px;text-transform:uppercase;line-height:1">CAÍDOS DEL ZARZO</h1>
      <p style="margin:0;color:rgba(255,255,255,.85);font-size:12px;letter-spacing:3px;text-transform:uppercase">Gravel Race &nbsp;·&nbsp; 2026</p>
    </td>
  </tr>
  <tr>
    <td style="background:#1a1208;padding:32px 48px;text-align:center">
      <h2 style="margin:18px 0 8px;color:#f0e8d8;font-size:26px;font-weight:700;letter-spacing:1px">¡Pago Confirmado!</h2>
      <p style="margin:0;color:rgba(240,232,216,.65);font-size:14px;line-height:1.6">%s</p>
    </td>
  </tr>
  <tr>
    <td style="background:#ffffff;padding:36px 48px">
      <p style="margin:0 0 20px;color:#aaa;font-size:11px;font-weight:700;letter-spacing:3px;text-transform:uppercase;border-bottom:2px solid #f5f0e8;padding-bottom:14px">Detalle de tu inscripción</p>
      <table width="100%%" cellpadding="0" cellspacing="0" role="presentation">
%s      </table>
    </td>
  </tr>
  <tr>
    <td style="background:#fff;padding:28px 48px;text-align:center;border-top:2px solid #f5f0e8">
      <p style="margin:0 0 16px;color:#888;font-size:14px">¿Tienes preguntas? Escríbenos a info@caidosdelzarzo.co</p>
    </td>
  </tr>
  <tr>
    <td style="background:#1a1208;padding:24px 48px;text-align:center">
      <p style="margin:0;color:rgba(240,232,216,.35);font-size:11px">© 2026 Caídos del Zarzo SAS &nbsp;·&nbsp; Sevilla, Valle del Cauca, Colombia</p>
    </td>
  </tr>
</table>
</td></tr>
</table>
</body>
</html>`, greeting, detail.String())
}
