package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewDefault()
}

func findEntity(entities []models.Entity, t models.EntityType, value string) *models.Entity {
	for i := range entities {
		if entities[i].Type == t && entities[i].Normalized() == models.NormalizeValue(value) {
			return &entities[i]
		}
	}
	return nil
}

func TestRegexExtractorEmptyText(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	assert.Empty(t, ex.Extract(""))
	assert.Empty(t, ex.Extract("   \n\t "))
}

func TestRegexExtractorBasicIndicators(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	text := "Contact our team at helpdesk@amaz0n-deals.xyz or call +91 9876543210. " +
		"IFSC: HDFC0001234 | PAN: ABCDE1234F | Invoice INV_90345"
	entities := ex.Extract(text)

	email := findEntity(entities, models.EntityTypeEmail, "helpdesk@amaz0n-deals.xyz")
	require.NotNil(t, email)
	assert.InDelta(t, 0.90, email.Confidence, 0.001)

	phone := findEntity(entities, models.EntityTypePhone, "9876543210")
	require.NotNil(t, phone)
	assert.InDelta(t, 0.75, phone.Confidence, 0.001)

	ifsc := findEntity(entities, models.EntityTypeIFSC, "HDFC0001234")
	require.NotNil(t, ifsc)
	assert.InDelta(t, 0.95, ifsc.Confidence, 0.001)

	pan := findEntity(entities, models.EntityTypePAN, "ABCDE1234F")
	require.NotNil(t, pan)

	invoice := findEntity(entities, models.EntityTypeInvoiceID, "INV_90345")
	require.NotNil(t, invoice)
	assert.InDelta(t, 0.60, invoice.Confidence, 0.001)
}

func TestRegexExtractorKeywordBoostInValue(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	boosted := ex.Extract("visit https://icicibank-verify.xyz/secure today")
	url := findEntity(boosted, models.EntityTypeURL, "https://icicibank-verify.xyz/secure")
	require.NotNil(t, url)
	assert.InDelta(t, 0.95, url.Confidence, 0.001)

	plain := ex.Extract("docs at https://files.example-host.net/readme")
	url = findEntity(plain, models.EntityTypeURL, "https://files.example-host.net/readme")
	require.NotNil(t, url)
	assert.InDelta(t, 0.85, url.Confidence, 0.001)
}

func TestRegexExtractorConfidenceCap(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	entities := ex.Extract("verify IFSC VERI0FY1234 now")
	for _, e := range entities {
		assert.LessOrEqual(t, e.Confidence, 1.0)
	}
}

func TestRegexExtractorDedupFirstWins(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	text := "Mail scam@fraud.com now. Again: SCAM@FRAUD.COM and scam@fraud.com"
	entities := ex.Extract(text)

	var emails int
	for _, e := range entities {
		if e.Type == models.EntityTypeEmail {
			emails++
			assert.Equal(t, "scam@fraud.com", e.Value)
		}
	}
	assert.Equal(t, 1, emails)
}

func TestRegexExtractorEmailAlsoMatchesUPIShape(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	entities := ex.Extract("send money to fraudster@okicici today")
	upi := findEntity(entities, models.EntityTypeUPI, "fraudster@okicici")
	require.NotNil(t, upi)
	// Looks like a handle, not an email: no dotted TLD.
	assert.Nil(t, findEntity(entities, models.EntityTypeEmail, "fraudster@okicici"))
	assert.InDelta(t, 0.88, upi.Confidence, 0.001)
}

func TestRegexExtractorQRPlaceholder(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	entities := ex.Extract("Scan Here to claim your reward via QR Code")
	qr := findEntity(entities, models.EntityTypeQRPlaceholder, "QR Code")
	require.NotNil(t, qr)
	assert.InDelta(t, 0.50, qr.Confidence, 0.001)
	assert.NotNil(t, findEntity(entities, models.EntityTypeQRPlaceholder, "Scan Here"))
}

func TestRegexExtractorContextWindow(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	entities := ex.Extract("Your account is blocked, wire funds to fraudster@okicici immediately to unlock")
	upi := findEntity(entities, models.EntityTypeUPI, "fraudster@okicici")
	require.NotNil(t, upi)
	assert.Contains(t, upi.Context, "fraudster@okicici")
	assert.Contains(t, upi.Context, "wire funds")
}

func TestRegexExtractorCryptoWallet(t *testing.T) {
	ex := NewRegexExtractor(testLogger())

	entities := ex.Extract("Send to 0x1a2b3c4d5e6f7890123456789abcdef987654321 immediately")
	wallet := findEntity(entities, models.EntityTypeCryptoWallet, "0x1a2b3c4d5e6f7890123456789abcdef987654321")
	require.NotNil(t, wallet)
	assert.InDelta(t, 0.70, wallet.Confidence, 0.001)
}
