package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestAuditLoggerDecision(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogDecision(
		"a1b2c3d4",
		"PICK",
		"HOME",
		true,
		nil,
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "a1b2c3d4", logEntry["snapshot_hash"])
	assert.Equal(t, "PICK", logEntry["state"])
	assert.Equal(t, true, logEntry["publishable"])
	assert.Equal(t, "audit", logEntry["component"])
}

func TestAuditLoggerSettlement(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	clv := decimal.NewFromFloat(1.5)
	auditLogger.LogSettlement("pick_123", "WIN", &clv, "ext-1001", "settle-v2")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pick_123", logEntry["pick_id"])
	assert.Equal(t, "WIN", logEntry["status"])
	assert.Equal(t, "1.5", logEntry["clv"])
	assert.Equal(t, "settle-v2", logEntry["settlement_version"])
}

func TestAuditLoggerSettlementNullCLV(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogSettlement("pick_123", "PUSH", nil, "ext-1001", "settle-v2")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "PUSH", logEntry["status"])
	assert.Nil(t, logEntry["clv"])
}

func TestAuditLoggerGradingDrift(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogGradingDrift("pick_123", "BOS", "NYK", "LAL", "NYK")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pick_123", logEntry["pick_id"])
	assert.Equal(t, "BOS", logEntry["pick_home_team"])
	assert.Equal(t, "LAL", logEntry["score_home_team"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestAuditLoggerMissingClosingLine(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogMissingClosingLine("pick_123", "event_456")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pick_123", logEntry["pick_id"])
	assert.Equal(t, "event_456", logEntry["event_id"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogDecision("a1b2c3d4", "LEAN", "UNDER", true, []string{"Edge 2.7 < 3.0 (PICK threshold)"})

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkAuditLoggerSettlement(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	auditLogger := NewAuditLogger(log)
	clv := decimal.NewFromFloat(1.5)

	for i := 0; i < b.N; i++ {
		auditLogger.LogSettlement("pick_123", "WIN", &clv, "ext-1001", "settle-v2")
	}
}
