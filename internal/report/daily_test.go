package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/entity"
)

type fakeInvoices struct {
	rows []entity.Invoice
	from time.Time
	to   time.Time
}

func (f *fakeInvoices) Insert(ctx context.Context, inv *entity.Invoice) error { return nil }

func (f *fakeInvoices) ListLoggedBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

func (f *fakeInvoices) ListAll(ctx context.Context) ([]entity.Invoice, error) { return f.rows, nil }

type fakeSender struct {
	subject    string
	attachment string
	csv        []byte
	calls      int
}

func (f *fakeSender) Send(subject, body, attachment string, csvData []byte) error {
	f.calls++
	f.subject = subject
	f.attachment = attachment
	f.csv = csvData
	return nil
}

func TestYesterdayWindow(t *testing.T) {
	t.Parallel()

	// 2026-01-13 01:30 IST is 2026-01-12 20:00 UTC.
	now := time.Date(2026, 1, 12, 20, 0, 0, 0, time.UTC)
	from, to := YesterdayWindow(now)

	// Yesterday IST is Jan 12; midnight IST is 18:30 UTC the previous day.
	require.Equal(t, time.Date(2026, 1, 11, 18, 30, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2026, 1, 12, 18, 30, 0, 0, time.UTC), to)
	require.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestBuildCSV(t *testing.T) {
	t.Parallel()

	data, err := BuildCSV([]entity.Invoice{{
		OrderID:         "OD123456789012345678",
		Date:            "12-01-2026",
		Price:           "₹1499.00",
		ItemName:        "Voeux Bluetooth Speaker",
		DeliveryAddress: "John Doe, Hojai, Assam",
		DeliveryState:   "Assam",
		TotalSold:       "3",
		LoggedAt:        time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Order ID,Date,Price,Item Name,Delivery Address,State,Total Sold,Logged At", lines[0])
	require.Contains(t, lines[1], "OD123456789012345678")
	require.Contains(t, lines[1], `"John Doe, Hojai, Assam"`)
}

func newTestReporter(inv *fakeInvoices, snd *fakeSender) *Reporter {
	r := NewReporter(common.ReportConfig{
		SMTPHost: "smtp.example.com", SMTPPort: 587,
		Username: "ops@example.com", Password: "secret", Recipient: "boss@example.com",
	}, inv, nil)
	r.sender = snd
	return r
}

func TestSendDaily(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoices{rows: []entity.Invoice{{OrderID: "OD123456789012345678"}}}
	snd := &fakeSender{}
	r := newTestReporter(inv, snd)

	now := time.Date(2026, 1, 12, 20, 0, 0, 0, time.UTC)
	require.NoError(t, r.SendDaily(context.Background(), now))

	require.Equal(t, 1, snd.calls)
	require.Equal(t, "Daily Invoice Report - 2026-01-12", snd.subject)
	require.Equal(t, "invoices-2026-01-12.csv", snd.attachment)
	require.Contains(t, string(snd.csv), "OD123456789012345678")

	wantFrom, wantTo := YesterdayWindow(now)
	require.Equal(t, wantFrom, inv.from)
	require.Equal(t, wantTo, inv.to)
}

func TestSendDailySkipsWhenEmpty(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	r := newTestReporter(&fakeInvoices{}, snd)
	require.NoError(t, r.SendDaily(context.Background(), time.Now()))
	require.Zero(t, snd.calls)
}

func TestSendDailyRequiresCredentials(t *testing.T) {
	t.Parallel()

	snd := &fakeSender{}
	r := NewReporter(common.ReportConfig{Recipient: "boss@example.com"}, &fakeInvoices{}, nil)
	r.sender = snd

	err := r.SendDaily(context.Background(), time.Now())
	require.Error(t, err)
	require.Zero(t, snd.calls)
}
