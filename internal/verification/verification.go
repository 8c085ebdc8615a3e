// Package verification проверяет владение доменом по TXT-записи DNS.
package verification

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
)

//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks github.com/Totarae/scanlink/internal/verification TXTResolver

// TXTResolver источник TXT-записей.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// NewNetResolver возвращает системный резолвер либо резолвер, опрашивающий
// конкретный DNS-сервер (host:port).
func NewNetResolver(server string) *net.Resolver {
	if server == "" {
		return net.DefaultResolver
	}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}
}

// Engine проверяет наличие токена в TXT-записи домена.
type Engine struct {
	resolver TXTResolver
	prefix   string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewEngine создаёт движок верификации. prefix метка перед доменом,
// например _scanlink-verification.
func NewEngine(resolver TXTResolver, prefix string, timeout time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		resolver: resolver,
		prefix:   strings.Trim(prefix, "."),
		timeout:  timeout,
		logger:   logger,
	}
}

// RecordName имя, под которым владелец публикует токен.
func (e *Engine) RecordName(domain string) string {
	return e.prefix + "." + domain
}

// ExpectedRecord запись, которую владелец должен создать.
func (e *Engine) ExpectedRecord(d *model.CustomDomain) model.DNSRecord {
	return model.DNSRecord{Type: "TXT", Name: e.RecordName(d.Domain), Value: d.VerificationToken}
}

// Check выполняет поиск TXT-записи с ограничением по времени. Состояние домена
// не меняется: перевод в Verified делает вызывающий. Ошибки DNS, включая
// таймаут и NXDOMAIN, возвращаются как VerificationFailed с деталями.
func (e *Engine) Check(ctx context.Context, d *model.CustomDomain) model.VerificationResult {
	expected := e.ExpectedRecord(d)
	res := model.VerificationResult{Domain: d.Domain, ExpectedRecord: expected}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	records, err := e.resolver.LookupTXT(lookupCtx, expected.Name)
	if err != nil {
		e.logger.Warn("DNS lookup failed",
			zap.String("domain", d.Domain),
			zap.String("record", expected.Name),
			zap.Error(err))
		res.Status = model.VerificationFailed
		res.Message = "Could not read DNS records. Propagation can take up to 48 hours, try again later."
		res.Detail = lookupDetail(err)
		return res
	}

	e.logger.Info("DNS verification attempt",
		zap.String("domain", d.Domain),
		zap.String("expected", d.VerificationToken),
		zap.Strings("found", records))

	res.FoundRecords = records
	for _, r := range records {
		if strings.Contains(r, d.VerificationToken) {
			res.Status = model.VerificationSuccess
			res.Message = "Domain verified successfully!"
			return res
		}
	}

	res.Status = model.VerificationFailed
	res.Message = "Verification token not found. Check that the DNS record is configured correctly."
	res.Detail = "token not found in TXT records"
	return res
}

func lookupDetail(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return fmt.Sprintf("no TXT record at %s", dnsErr.Name)
		case dnsErr.IsTimeout:
			return fmt.Sprintf("DNS lookup for %s timed out", dnsErr.Name)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "DNS lookup timed out"
	}
	return err.Error()
}
