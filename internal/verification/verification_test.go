package verification

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/verification/mocks"
)

const prefix = "_scanlink-verification"

func testDomain() *model.CustomDomain {
	return &model.CustomDomain{ID: "d1", OwnerID: "u1", Domain: "qr.acme.com", Mode: model.ModeRouting, VerificationToken: "T0k3n"}
}

func TestEngine_ExpectedRecord(t *testing.T) {
	e := NewEngine(nil, "."+prefix+".", time.Second, zap.NewNop())
	rec := e.ExpectedRecord(testDomain())
	assert.Equal(t, model.DNSRecord{Type: "TXT", Name: "_scanlink-verification.qr.acme.com", Value: "T0k3n"}, rec)
}

func TestEngine_Check(t *testing.T) {
	tests := []struct {
		name       string
		records    []string
		err        error
		wantStatus model.VerificationStatus
		wantDetail string
		wantFound  []string
	}{
		{
			name:       "token present",
			records:    []string{"v=spf1 -all", "scanlink=T0k3n"},
			wantStatus: model.VerificationSuccess,
			wantFound:  []string{"v=spf1 -all", "scanlink=T0k3n"},
		},
		{
			name:       "wrong token",
			records:    []string{"other"},
			wantStatus: model.VerificationFailed,
			wantDetail: "token not found in TXT records",
			wantFound:  []string{"other"},
		},
		{
			name:       "nxdomain",
			err:        &net.DNSError{Err: "no such host", Name: "_scanlink-verification.qr.acme.com", IsNotFound: true},
			wantStatus: model.VerificationFailed,
			wantDetail: "no TXT record at _scanlink-verification.qr.acme.com",
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: model.VerificationFailed,
			wantDetail: "DNS lookup timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			resolver := mocks.NewMockTXTResolver(ctrl)
			resolver.EXPECT().
				LookupTXT(gomock.Any(), "_scanlink-verification.qr.acme.com").
				Return(tt.records, tt.err)

			e := NewEngine(resolver, prefix, time.Second, zap.NewNop())
			d := testDomain()
			res := e.Check(context.Background(), d)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantDetail, res.Detail)
			assert.Equal(t, tt.wantFound, res.FoundRecords)
			assert.Equal(t, "T0k3n", res.ExpectedRecord.Value)
			assert.False(t, d.Verified(), "Check never changes domain state")
		})
	}
}

func TestEngine_CheckIsBounded(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockTXTResolver(ctrl)
	resolver.EXPECT().LookupTXT(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	e := NewEngine(resolver, prefix, 20*time.Millisecond, zap.NewNop())
	start := time.Now()
	res := e.Check(context.Background(), testDomain())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, model.VerificationFailed, res.Status)
}

func TestNewNetResolver(t *testing.T) {
	assert.Same(t, net.DefaultResolver, NewNetResolver(""))
	r := NewNetResolver("127.0.0.1:53")
	assert.True(t, r.PreferGo)
	assert.NotNil(t, r.Dial)
}
