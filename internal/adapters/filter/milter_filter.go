package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/d--j/go-milter"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
	"github.com/mikey/mailguard/internal/whitelist"
)

// MilterFilter implements a Milter filter for spam detection
type MilterFilter struct {
	service    *core.SpamFilterService
	whitelist  *whitelist.Checker
	processor  *textproc.Processor
	logger     *zap.Logger
	opts       Options
	listenAddr string
	server     *milter.Server
	listener   net.Listener
}

// NewMilterFilter creates a new Milter filter
func NewMilterFilter(
	service *core.SpamFilterService,
	checker *whitelist.Checker,
	processor *textproc.Processor,
	logger *zap.Logger,
	opts Options,
	listenAddr string,
) *MilterFilter {
	return &MilterFilter{
		service:    service,
		whitelist:  checker,
		processor:  processor,
		logger:     logger,
		opts:       opts.withDefaults(),
		listenAddr: listenAddr,
	}
}

// Start starts the Milter filter service
func (f *MilterFilter) Start() error {
	f.server = milter.NewServer(
		milter.WithMilter(func() milter.Milter {
			return f.newHandler()
		}),
		milter.WithAction(milter.OptAddHeader|milter.OptChangeHeader),
		milter.WithReadTimeout(30*time.Second),
		milter.WithWriteTimeout(30*time.Second),
	)

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = ln

	f.logger.Info("Milter filter started", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, milter.ErrServerClosed) {
			f.logger.Error("Milter server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (f *MilterFilter) Addr() string {
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Stop stops the Milter filter service
func (f *MilterFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.server.Shutdown(ctx); err != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail processes an email and returns the classification.
// This is mainly used for testing or direct API calls.
func (f *MilterFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

func (f *MilterFilter) newHandler() *milterHandler {
	return &milterHandler{filter: f}
}

// headerWriter is the part of milter.Modifier the handler needs
type headerWriter interface {
	AddHeader(name, value string) error
	ChangeHeader(index int, name, value string) error
}

// milterHandler holds the state of one milter connection
type milterHandler struct {
	milter.NoOpMilter
	filter *MilterFilter

	from    string
	rcpts   []string
	headers []header
	body    bytes.Buffer
}

func (h *milterHandler) reset() {
	h.from = ""
	h.rcpts = nil
	h.headers = nil
	h.body.Reset()
}

// MailFrom is called for each new message in the connection
func (h *milterHandler) MailFrom(from string, _ string, _ milter.Modifier) (*milter.Response, error) {
	h.reset()
	h.from = strings.Trim(from, "<>")
	return milter.RespContinue, nil
}

// RcptTo is called for each recipient
func (h *milterHandler) RcptTo(rcptTo string, _ string, _ milter.Modifier) (*milter.Response, error) {
	h.rcpts = append(h.rcpts, strings.Trim(rcptTo, "<>"))
	return milter.RespContinue, nil
}

// Header is called for each header field
func (h *milterHandler) Header(name string, value string, _ milter.Modifier) (*milter.Response, error) {
	h.headers = append(h.headers, header{name: name, value: value})
	return milter.RespContinue, nil
}

// BodyChunk is called for each body chunk
func (h *milterHandler) BodyChunk(chunk []byte, _ milter.Modifier) (*milter.Response, error) {
	limit := h.filter.processor.MaxBodySize()
	if limit > 0 && h.body.Len() >= limit {
		return milter.RespContinue, nil
	}
	h.body.Write(chunk)
	return milter.RespContinue, nil
}

// EndOfMessage classifies the collected message
func (h *milterHandler) EndOfMessage(m milter.Modifier) (*milter.Response, error) {
	defer h.reset()
	return h.finish(m)
}

// Abort is called when the message is aborted
func (h *milterHandler) Abort(_ milter.Modifier) error {
	h.reset()
	return nil
}

// message rebuilds the collected header fields and body as an RFC 5322 message
func (h *milterHandler) message() (*mail.Message, error) {
	var buf bytes.Buffer
	for _, hdr := range h.headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", hdr.name, hdr.value)
	}
	buf.WriteString("\r\n")
	buf.Write(h.body.Bytes())
	return mail.ReadMessage(&buf)
}

func (h *milterHandler) subject() (string, int) {
	for _, hdr := range h.headers {
		if strings.EqualFold(hdr.name, "Subject") {
			return hdr.value, 1
		}
	}
	return "", 0
}

func (h *milterHandler) finish(m headerWriter) (*milter.Response, error) {
	f := h.filter

	sender := h.from
	if sender == "" {
		for _, hdr := range h.headers {
			if strings.EqualFold(hdr.name, "From") {
				sender = extractEmailAddress(hdr.value)
				break
			}
		}
	}

	if f.whitelist.IsWhitelisted(sender) {
		f.logger.Debug("Skipping whitelisted sender", zap.String("sender", sender))
		return milter.RespContinue, nil
	}

	var text string
	msg, err := h.message()
	if err == nil {
		text, err = extractTextFromMessage(msg)
	}
	if err != nil {
		f.logger.Warn("Failed to parse message, using raw body", zap.Error(err))
		text = h.body.String()
	}

	rawSubject, subjectIndex := h.subject()
	subject, err := decodeEncodedHeader(rawSubject)
	if err != nil {
		subject = rawSubject
	}

	email := &core.Email{
		From:    sender,
		To:      h.rcpts,
		Subject: f.processor.Prepare(subject),
		Body:    f.processor.Prepare(text),
	}
	if msg != nil {
		email.Headers = msg.Header
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", sender),
			zap.String("sender_domain", whitelist.Domain(sender)))
		if addErr := m.AddHeader("X-Spam-Analysis-Error", sanitizeHeaderValue(err.Error())); addErr != nil {
			return milter.RespTempFail, fmt.Errorf("failed to add error header: %w", addErr)
		}
		return milter.RespContinue, nil
	}

	f.logger.Info("Processed email",
		zap.String("from", sender),
		zap.String("sender_domain", whitelist.Domain(sender)),
		zap.String("classification", string(result.Classification)),
		zap.Float64("spam_probability", result.SpamProbability),
		zap.String("threat_level", string(result.ThreatLevel)),
		zap.String("processing_id", result.ProcessingID))

	if f.opts.shouldReject(result) {
		f.logger.Info("Rejecting spam email",
			zap.String("from", sender),
			zap.Float64("spam_probability", result.SpamProbability),
			zap.Strings("keywords", result.Keywords))
		return milter.RejectWithCodeAndReason(550, rejectMessage(result))
	}

	for _, hdr := range f.opts.verdictHeaders(result) {
		if err := m.AddHeader(hdr.name, hdr.value); err != nil {
			return milter.RespTempFail, fmt.Errorf("failed to add spam headers: %w", err)
		}
	}

	if newSubject, changed := f.opts.rewriteSubject(result, subject); changed {
		var rewriteErr error
		if subjectIndex > 0 {
			rewriteErr = m.ChangeHeader(subjectIndex, "Subject", mime2047(newSubject))
		} else {
			rewriteErr = m.AddHeader("Subject", mime2047(newSubject))
		}
		if rewriteErr != nil {
			return milter.RespTempFail, fmt.Errorf("failed to rewrite subject: %w", rewriteErr)
		}
	}
	return milter.RespContinue, nil
}
