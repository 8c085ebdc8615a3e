package lookups

import (
	"context"
	"net"
)

func bad() {
	_, _ = net.LookupTXT("_scanlink-verification.qr.acme.com") // want `net.LookupTXT без контекста`
	_, _ = net.LookupHost("qr.acme.com")                       // want `net.LookupHost без контекста`
}

func good(ctx context.Context) {
	_, _ = net.DefaultResolver.LookupTXT(ctx, "_scanlink-verification.qr.acme.com")
	r := &net.Resolver{PreferGo: true}
	_, _ = r.LookupHost(ctx, "qr.acme.com")
	_ = net.ParseIP("127.0.0.1")
}
