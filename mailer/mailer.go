// Package mailer は設定画面で登録した SMTP サーバーからメールを送ります。
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"seibi/database"
	"seibi/model"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	mail "github.com/wneessen/go-mail"
)

var ErrNotConfigured = errors.New("email settings are not configured")

// implicitTLSPort では接続直後から TLS を使います (SMTPS)。
const implicitTLSPort = 465

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender はメール送信の抽象です。テストでは記録用の実装に差し替えます。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Checker は送信前に設定が揃っているかを確かめられる Sender です。
// 設定が無ければ ErrNotConfigured を返します。
type Checker interface {
	Check(ctx context.Context) error
}

// SMTPMailer は送信のたびに email_settings を読み直します。
type SMTPMailer struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *SMTPMailer {
	return &SMTPMailer{db: db}
}

func (m *SMTPMailer) settings() (*model.EmailSettings, error) {
	s, err := database.GetEmailSettings(m.db)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("メール設定の取得に失敗: %w", err)
	}
	if s.SMTPHost == "" || s.FromAddress == "" {
		return nil, ErrNotConfigured
	}
	return s, nil
}

func (m *SMTPMailer) Check(ctx context.Context) error {
	_, err := m.settings()
	return err
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	s, err := m.settings()
	if err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("宛先がありません")
	}

	mm, err := newMsg(s, msg, time.Now())
	if err != nil {
		return err
	}
	client, err := newClient(s)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("メール送信に失敗 (%s): %w", s.SMTPHost, err)
	}
	log.Printf("Mail sent: %q to %s", msg.Subject, strings.Join(msg.To, ", "))
	return nil
}

// newClient は設定から SMTP クライアントを作ります。use_tls のとき
// 465番は接続時から TLS、それ以外は STARTTLS 必須です。
func newClient(s *model.EmailSettings) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.SMTPPort),
		mail.WithTimeout(30 * time.Second),
	}
	switch {
	case s.UseTLS && s.SMTPPort == implicitTLSPort:
		opts = append(opts, mail.WithSSL())
	case s.UseTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	c, err := mail.NewClient(s.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("SMTPクライアントの作成に失敗: %w", err)
	}
	return c, nil
}

func newMsg(s *model.EmailSettings, msg Message, now time.Time) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithCharset(mail.CharsetUTF8), mail.WithEncoding(mail.EncodingB64))
	if err := m.FromFormat(s.FromName, s.FromAddress); err != nil {
		return nil, fmt.Errorf("送信元 %s: %w", s.FromAddress, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("宛先 %s: %w", strings.Join(msg.To, ", "), err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(now)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), mail.WithFileContentType(mail.ContentType(ct)))
		if err != nil {
			return nil, fmt.Errorf("添付 %s: %w", a.Filename, err)
		}
	}
	return m, nil
}

// BuildMessage は送信されるメールをそのままのバイト列で返します。
// 添付がある場合は multipart/mixed です。
func BuildMessage(s *model.EmailSettings, msg Message, now time.Time) ([]byte, error) {
	m, err := newMsg(s, msg, now)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
