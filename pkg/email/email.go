package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/smtp"
	"time"
)

// Sender delivers transactional emails over SMTP. Delivery is best effort:
// failures are logged and swallowed so they never abort the caller's
// transaction (local dev and tests typically run without an SMTP server).
type Sender struct {
	host string
	port string
	from string
	tmpl *template.Template
}

// NewSender builds a Sender with the match/message notification templates compiled in.
func NewSender(host, port, from string) *Sender {
	return &Sender{
		host: host,
		port: port,
		from: from,
		tmpl: template.Must(template.New("email").Parse(notificationTemplates)),
	}
}

// SendTemplate renders the named HTML template and delivers it.
func (s *Sender) SendTemplate(to, subject, name string, data map[string]string) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Failed to render email template %s: %v\n", name, err)
		return
	}
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n",
		s.from, to, subject, buf.String(),
	)
	s.deliver(to, []byte(msg))
}

func (s *Sender) deliver(to string, msg []byte) {
	addr := net.JoinHostPort(s.host, s.port)
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		log.Printf("Email delivery skipped, SMTP unreachable at %s: %v\n", addr, err)
		return
	}
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	defer client.Close()

	if err := client.Mail(s.from); err != nil {
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	if err := client.Rcpt(to); err != nil {
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	w, err := client.Data()
	if err != nil {
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	if _, err := w.Write(msg); err != nil {
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	if err := w.Close(); err != nil {
		log.Printf("Email delivery failed: %v\n", err)
		return
	}
	_ = client.Quit()
}

// Template names used by the match lifecycle and messaging flows.
const (
	TemplateMatchPending   = "match_pending"
	TemplateMatchAccepted  = "match_accepted"
	TemplateMatchConfirmed = "match_confirmed"
	TemplateMatchRejected  = "match_rejected"
)

const notificationTemplates = `
{{define "match_pending"}}<html><body>
<h2>{{.subject}}</h2>
<p>Bonjour {{.user_email}},</p>
<p>Une nouvelle demande de garde correspond à votre disponibilité
du {{.start_date}} au {{.end_date}}.</p>
<p>Demandeur : {{.requester_email}}</p>
<p><a href="{{.app_url}}">Répondre à la demande</a></p>
</body></html>{{end}}

{{define "match_accepted"}}<html><body>
<h2>{{.subject}}</h2>
<p>Bonjour {{.user_email}},</p>
<p>Votre demande de garde du {{.start_date}} au {{.end_date}} a été acceptée
par {{.offer_owner_email}}. Confirmez pour finaliser la garde.</p>
<p><a href="{{.app_url}}">Confirmer</a></p>
</body></html>{{end}}

{{define "match_confirmed"}}<html><body>
<h2>{{.subject}}</h2>
<p>Bonjour {{.user_email}},</p>
<p>La garde du {{.start_date}} au {{.end_date}} est confirmée.</p>
<p>Garde : {{.offer_owner_email}} — Demandeur : {{.requester_email}}</p>
</body></html>{{end}}

{{define "match_rejected"}}<html><body>
<h2>{{.subject}}</h2>
<p>Bonjour {{.user_email}},</p>
<p>La demande de garde du {{.start_date}} au {{.end_date}} a été annulée.</p>
</body></html>{{end}}
`
