package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// EmailData carries everything the transactional templates can reference.
// Services fill in what the given email needs.
type EmailData struct {
	DocumentLabel string // "quote" or "invoice"
	Number        string
	ClientName    string
	SignerName    string
	SignerEmail   string
	AmountDue     string
	Currency      string
	Link          string
	OwnerName     string
	CompanyName   string
	IBAN          string
	BIC           string
	Holder        string
}

var (
	signatureClientTmpl = template.Must(template.New("signature_client").Parse(`
<p>Hello {{.SignerName}},</p>
<p>Thank you, your signature on {{.DocumentLabel}} <strong>{{.Number}}</strong> has been recorded.</p>
<p>You will receive a confirmation email shortly.</p>
<p>{{.CompanyName}}</p>`))

	signatureOwnerTmpl = template.Must(template.New("signature_owner").Parse(`
<p>Hello {{.OwnerName}},</p>
<p>{{.DocumentLabel}} <strong>{{.Number}}</strong> was just signed by {{.SignerName}} ({{.SignerEmail}}).</p>`))

	paymentClientTmpl = template.Must(template.New("payment_client").Parse(`
<p>Hello {{.ClientName}},</p>
<p>Your payment of <strong>{{.AmountDue}} {{.Currency}}</strong> on {{.DocumentLabel}} <strong>{{.Number}}</strong> has been received.</p>
<p>Thank you.</p>
<p>{{.CompanyName}}</p>`))

	paymentOwnerTmpl = template.Must(template.New("payment_owner").Parse(`
<p>Hello {{.OwnerName}},</p>
<p>A payment of <strong>{{.AmountDue}} {{.Currency}}</strong> was received on {{.DocumentLabel}} <strong>{{.Number}}</strong>.</p>`))

	bankTransferClientTmpl = template.Must(template.New("bank_transfer_client").Parse(`
<p>Hello {{.ClientName}},</p>
<p>You chose to settle {{.DocumentLabel}} <strong>{{.Number}}</strong> ({{.AmountDue}} {{.Currency}}) by bank transfer.</p>
<p>Account holder: {{.Holder}}<br>IBAN: {{.IBAN}}<br>BIC: {{.BIC}}</p>
<p>The document will be confirmed once the transfer is received.</p>
<p>{{.CompanyName}}</p>`))

	bankTransferOwnerTmpl = template.Must(template.New("bank_transfer_owner").Parse(`
<p>Hello {{.OwnerName}},</p>
<p>The client announced a bank transfer for {{.DocumentLabel}} <strong>{{.Number}}</strong> ({{.AmountDue}} {{.Currency}}).</p>
<p>Remember to reconcile it manually once received.</p>`))

	sendDocumentTmpl = template.Must(template.New("send_document").Parse(`
<p>Hello {{.ClientName}},</p>
<p>{{.CompanyName}} sent you {{.DocumentLabel}} <strong>{{.Number}}</strong>.</p>
<p><a href="{{.Link}}">Review the document</a></p>`))
)

func render(tmpl *template.Template, data EmailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func SignatureClientEmail(data EmailData) (Message, error) {
	html, err := render(signatureClientTmpl, data)
	return Message{
		To:      data.SignerEmail,
		Subject: fmt.Sprintf("Your signature on %s %s", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func SignatureOwnerEmail(to string, data EmailData) (Message, error) {
	html, err := render(signatureOwnerTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s %s was signed", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func PaymentClientEmail(to string, data EmailData) (Message, error) {
	html, err := render(paymentClientTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Payment received for %s %s", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func PaymentOwnerEmail(to string, data EmailData) (Message, error) {
	html, err := render(paymentOwnerTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Payment received on %s %s", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func BankTransferClientEmail(to string, data EmailData) (Message, error) {
	html, err := render(bankTransferClientTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Bank transfer details for %s %s", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func BankTransferOwnerEmail(to string, data EmailData) (Message, error) {
	html, err := render(bankTransferOwnerTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Bank transfer announced on %s %s", data.DocumentLabel, data.Number),
		HTML:    html,
	}, err
}

func SendDocumentEmail(to string, data EmailData) (Message, error) {
	html, err := render(sendDocumentTmpl, data)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s %s from %s", data.DocumentLabel, data.Number, data.CompanyName),
		HTML:    html,
	}, err
}
