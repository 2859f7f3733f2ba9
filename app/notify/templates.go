package notify

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

var receiptText = texttemplate.Must(texttemplate.New("receipt.txt").Parse(`Olá, {{.Name}}!

Recebemos a sua doação. Muito obrigado pelo apoio.

Valor: {{.Amount}}
Forma de pagamento: {{.PaymentMethod}}
Data: {{.Date}}
Código da doação: {{.DonationID}}
{{- if .TransactionID}}
Código da transação: {{.TransactionID}}
{{- end}}

Guarde este email como comprovante.
`))

var receiptHTML = htmltemplate.Must(htmltemplate.New("receipt.html").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Olá, {{.Name}}!</p>
  <p>Recebemos a sua doação. Muito obrigado pelo apoio.</p>
  <table cellpadding="4">
    <tr><td><strong>Valor</strong></td><td>{{.Amount}}</td></tr>
    <tr><td><strong>Forma de pagamento</strong></td><td>{{.PaymentMethod}}</td></tr>
    <tr><td><strong>Data</strong></td><td>{{.Date}}</td></tr>
    <tr><td><strong>Código da doação</strong></td><td>{{.DonationID}}</td></tr>
    {{- if .TransactionID}}
    <tr><td><strong>Código da transação</strong></td><td>{{.TransactionID}}</td></tr>
    {{- end}}
  </table>
  <p>Guarde este email como comprovante.</p>
</body>
</html>
`))
