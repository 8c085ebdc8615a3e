package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ClientIP адрес клиента: X-Real-IP, если прокси его выставил, иначе RemoteAddr.
func ClientIP(r *http.Request) net.IP {
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// TrustedSubnet пропускает только клиентов из доверенной подсети.
// Пустая подсеть закрывает доступ полностью.
func TrustedSubnet(cidr string, logger *zap.Logger) func(http.Handler) http.Handler {
	var subnet *net.IPNet
	if cidr != "" {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Error("Некорректная доверенная подсеть", zap.String("cidr", cidr), zap.Error(err))
		} else {
			subnet = n
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if subnet == nil || ip == nil || !subnet.Contains(ip) {
				logger.Warn("Запрос из недоверенной сети", zap.Stringer("ip", ip), zap.String("uri", r.RequestURI))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
