package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"shop_backend/config"
	"shop_backend/model"

	"github.com/jordan-wright/email"
	"gopkg.in/gomail.v2"
)

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`
<h2>Thanks for your order, {{.FirstName}}!</h2>
<p>Order <b>{{.OrderNumber}}</b> has been paid and is being prepared.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Total charged: <b>{{printf "%.2f" .Total}} {{.Currency}}</b></p>
<p>We will email you again when the order ships.</p>
`))

var statusTmpl = template.Must(template.New("order_status").Parse(`
<h2>Order {{.OrderNumber}} update</h2>
<p>Your order is now <b>{{.Status}}</b>.</p>
{{if .TrackingNumber}}<p>Tracking number: <b>{{.TrackingNumber}}</b></p>{{end}}
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
`))

func dialer() (*gomail.Dialer, string) {
	port, _ := strconv.Atoi(config.ConfigDefault("SMTP_PORT", "587"))
	d := gomail.NewDialer(
		config.Config("SMTP_HOST"),
		port,
		config.Config("SMTP_USERNAME"),
		config.Config("SMTP_PASSWORD"),
	)
	return d, config.Config("SMTP_FROM")
}

// SendOrderConfirmationEmail renders and sends the paid-order mail.
// Callers decide whether this blocks; the dispatcher never lets it block
// a checkout response.
func SendOrderConfirmationEmail(order model.Order) error {
	data := map[string]any{
		"FirstName":   order.Customer.FirstName,
		"OrderNumber": order.OrderNumber,
		"Items":       order.Items,
		"Total":       order.PaymentInfo.Amount,
		"Currency":    order.PaymentInfo.Currency,
	}

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return err
	}

	d, from := dialer()
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", order.Customer.Email)
	m.SetHeader("Subject", "Order confirmation #"+order.OrderNumber)
	m.SetBody("text/html", body.String())

	return d.DialAndSend(m)
}

func SendStatusChangeEmail(order model.Order) error {
	data := map[string]any{
		"OrderNumber":    order.OrderNumber,
		"Status":         strings.ToUpper(string(order.OrderStatus)),
		"TrackingNumber": order.TrackingNumber,
		"Notes":          order.Notes,
	}

	var body bytes.Buffer
	if err := statusTmpl.Execute(&body, data); err != nil {
		return err
	}

	d, from := dialer()
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", order.Customer.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order %s is %s", order.OrderNumber, order.OrderStatus))
	m.SetBody("text/html", body.String())

	return d.DialAndSend(m)
}

// SendOpsAlert pushes a plain-text alert to the operator mailbox. Used for
// charged-but-unrecorded orders, which need a human.
func SendOpsAlert(subject, body string) error {
	addr := fmt.Sprintf("%s:%s", config.Config("SMTP_HOST"), config.ConfigDefault("SMTP_PORT", "587"))

	e := email.NewEmail()
	e.From = config.Config("SMTP_FROM")
	e.To = []string{config.Config("OPS_EMAIL")}
	e.Subject = subject
	e.Text = []byte(body)
	return e.Send(addr, smtp.PlainAuth("",
		config.Config("SMTP_USERNAME"),
		config.Config("SMTP_PASSWORD"),
		config.Config("SMTP_HOST")))
}
