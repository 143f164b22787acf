package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
	"github.com/mikey/mailguard/internal/whitelist"
)

// PostfixFilter implements a Postfix content filter: it receives mail over
// SMTP, classifies it and re-injects it with verdict headers.
type PostfixFilter struct {
	service        *core.SpamFilterService
	whitelist      *whitelist.Checker
	processor      *textproc.Processor
	logger         *zap.Logger
	opts           Options
	listenAddr     string
	server         *smtp.Server
	listener       net.Listener
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.SpamFilterService,
	checker *whitelist.Checker,
	processor *textproc.Processor,
	logger *zap.Logger,
	opts Options,
	listenAddr string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
) *PostfixFilter {
	return &PostfixFilter{
		service:        service,
		whitelist:      checker,
		processor:      processor,
		logger:         logger,
		opts:           opts.withDefaults(),
		listenAddr:     listenAddr,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = ln

	f.logger.Info("Postfix filter starting", zap.String("address", ln.Addr().String()))
	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (f *PostfixFilter) Addr() string {
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies an email without any SMTP transport
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// filtered is the outcome of running one raw message through the filter
type filtered struct {
	result      *core.ClassificationResult
	whitelisted bool
	reject      bool
	message     []byte
}

// filterMessage classifies a raw message and rebuilds it with verdict headers
func (f *PostfixFilter) filterMessage(ctx context.Context, sender string, recipients []string, raw []byte) (*filtered, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	if f.whitelist.IsWhitelisted(sender) {
		f.logger.Debug("Skipping whitelisted sender", zap.String("sender", sender))
		return &filtered{whitelisted: true, message: raw}, nil
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	subject, err := decodeEncodedHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	email := &core.Email{
		From:    sender,
		To:      recipients,
		Subject: f.processor.Prepare(subject),
		Body:    f.processor.Prepare(text),
		Headers: msg.Header,
	}

	out := &filtered{}
	result, analysisErr := f.service.AnalyzeEmail(ctx, email)
	if analysisErr != nil {
		// mail keeps flowing when the classifier cannot answer
		f.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", sender),
			zap.String("sender_domain", whitelist.Domain(sender)))
		out.message = prependHeaders(raw, []header{{"X-Spam-Analysis-Error", sanitizeHeaderValue(analysisErr.Error())}}, "", false)
		return out, nil
	}
	out.result = result

	if f.opts.shouldReject(result) {
		out.reject = true
		return out, nil
	}

	newSubject, changed := f.opts.rewriteSubject(result, subject)
	out.message = prependHeaders(raw, f.opts.verdictHeaders(result), newSubject, changed)
	return out, nil
}

// prependHeaders writes extra header fields ahead of the original message,
// optionally replacing the Subject, and keeps the body bytes untouched.
func prependHeaders(raw []byte, extra []header, subject string, replaceSubject bool) []byte {
	headerEnd, sepLen := bytes.Index(raw, []byte("\r\n\r\n")), 4
	if headerEnd < 0 {
		headerEnd, sepLen = bytes.Index(raw, []byte("\n\n")), 2
	}
	if headerEnd < 0 {
		headerEnd, sepLen = len(raw), 0
	}

	var buf bytes.Buffer
	for _, h := range extra {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.name, h.value)
	}
	if replaceSubject {
		fmt.Fprintf(&buf, "Subject: %s\r\n", mime2047(subject))
	}

	skipping := false
	for _, line := range strings.SplitAfter(string(raw[:headerEnd]), "\n") {
		if line == "" {
			continue
		}
		folded := line[0] == ' ' || line[0] == '\t'
		if !folded {
			skipping = replaceSubject && strings.HasPrefix(strings.ToLower(line), "subject:")
		}
		if skipping {
			continue
		}
		buf.WriteString(strings.TrimRight(line, "\r\n"))
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	if sepLen > 0 {
		buf.Write(raw[headerEnd+sepLen:])
	}
	return buf.Bytes()
}

// sendToPostfix re-injects the processed message into Postfix
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.postfixAddr, fmt.Sprint(f.postfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data filters the message and hands it back to Postfix
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter
	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := f.filterMessage(ctx, s.sender, s.recipients, raw)
	if err != nil {
		f.logger.Error("Failed to filter message", zap.Error(err), zap.String("sender", s.sender))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	if out.reject {
		f.logger.Info("Rejecting spam email",
			zap.String("from", s.sender),
			zap.String("sender_domain", whitelist.Domain(s.sender)),
			zap.Float64("spam_probability", out.result.SpamProbability),
			zap.Strings("keywords", out.result.Keywords))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      rejectMessage(out.result),
		}
	}

	if f.postfixEnabled {
		if err := f.sendToPostfix(s.sender, s.recipients, out.message); err != nil {
			f.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", s.sender))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 3, 0},
				Message:      "Temporary failure re-injecting message",
			}
		}
	} else {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	fields := []zap.Field{
		zap.String("from", s.sender),
		zap.String("sender_domain", whitelist.Domain(s.sender)),
		zap.Bool("whitelisted", out.whitelisted),
	}
	if out.result != nil {
		fields = append(fields,
			zap.String("classification", string(out.result.Classification)),
			zap.Float64("spam_probability", out.result.SpamProbability),
			zap.String("threat_level", string(out.result.ThreatLevel)),
			zap.String("processing_id", out.result.ProcessingID))
	}
	f.logger.Info("Processed email", fields...)
	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
