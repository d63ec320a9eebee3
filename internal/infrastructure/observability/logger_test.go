package observability

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

type recordingLogger struct {
	otellog.Logger
	records []otellog.Record
}

func (l *recordingLogger) Emit(ctx context.Context, record otellog.Record) {
	l.records = append(l.records, record)
}

func TestOTelLogHook_ForwardsEvents(t *testing.T) {
	sink := &recordingLogger{}
	logger := zerolog.New(io.Discard).Hook(otelLogHook{logger: sink})

	logger.Warn().Ctx(context.Background()).Str("structure_id", "4").Msg("index write failed")
	logger.Error().Msg("search backend unavailable")
	logger.Log().Msg("no level")

	require.Len(t, sink.records, 2)
	assert.Equal(t, otellog.SeverityWarn, sink.records[0].Severity())
	assert.Equal(t, "index write failed", sink.records[0].Body().AsString())
	assert.Equal(t, "warn", sink.records[0].SeverityText())
	assert.Equal(t, otellog.SeverityError, sink.records[1].Severity())
}

func TestLoggerFromContext_CarriesCaller(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	ctx := entities.ContextWithCaller(context.Background(), &entities.Caller{ID: 9, Role: entities.RoleAdmin})
	LoggerFromContext(ctx).Info().Msg("structure created")

	assert.Contains(t, buf.String(), `"caller_id":9`)
	assert.Contains(t, buf.String(), `"caller_role":"admin"`)
	assert.NotContains(t, buf.String(), "trace_id")
}
