package util

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// ShortIDLength длина короткого идентификатора: 64^8 вариантов.
const ShortIDLength = 8

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var (
	shortIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	labelPattern   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// GenerateShortID создаёт случайный URL-safe идентификатор.
// 256 делится на 64 без остатка, поэтому маска даёт равномерное распределение.
func GenerateShortID() (string, error) {
	buf := make([]byte, ShortIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = shortIDAlphabet[b&63]
	}
	return string(buf), nil
}

// GenerateVerificationToken создаёт непрозрачный токен для TXT-записи.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidShortID проверяет, что строка похожа на короткий идентификатор.
func ValidShortID(s string) bool {
	return shortIDPattern.MatchString(s)
}

// ShortIDFromPath извлекает идентификатор из пути вида /{shortId}.
func ShortIDFromPath(path string) (string, bool) {
	id := strings.TrimPrefix(path, "/")
	if id == path || !ValidShortID(id) {
		return "", false
	}
	return id, true
}

// NormalizeDomain приводит домен к нижнему регистру и проверяет синтаксис имени хоста.
// Требуется минимум две метки: одиночное имя не может быть доменом владельца.
func NormalizeDomain(raw string) (string, bool) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if d == "" || len(d) > 253 || net.ParseIP(d) != nil {
		return "", false
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return "", false
	}
	for _, l := range labels {
		if !labelPattern.MatchString(l) {
			return "", false
		}
	}
	return d, true
}

// NormalizeHost приводит значение заголовка Host к имени хоста без порта.
func NormalizeHost(hostHeader string) string {
	h := strings.ToLower(strings.TrimSpace(hostHeader))
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.TrimPrefix(strings.TrimSuffix(h, "]"), "[")
	return strings.TrimSuffix(h, ".")
}

// IsLoopbackHost localhost и loopback-адреса считаются основным доменом при разработке.
func IsLoopbackHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ValidDestination проверяет, что адрес назначения абсолютный http(s) URL.
func ValidDestination(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// JoinURL склеивает базовый URL и путь запроса.
func JoinURL(baseURL, pathAndQuery string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if pathAndQuery == "" {
		return base + "/"
	}
	if !strings.HasPrefix(pathAndQuery, "/") {
		pathAndQuery = "/" + pathAndQuery
	}
	return base + pathAndQuery
}
