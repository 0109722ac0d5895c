package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteMapsSeverityToLogLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLog(nil, zap.New(core).Sugar())

	l.Write(context.Background(), Entry{Tenant: "t1", Message: "granting consent", Severity: SeverityWarn, Category: "Permissions"})
	l.Write(context.Background(), Entry{Tenant: "t1", Message: "applied", Severity: SeverityInfo, Category: "Permissions"})
	l.Write(context.Background(), Entry{Tenant: "t1", Message: "boom", Severity: SeverityError, Category: "Permissions"})

	warns := logs.FilterMessage("granting consent").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zap.WarnLevel, warns[0].Level)
	assert.Equal(t, "t1", warns[0].ContextMap()["tenant"])

	infos := logs.FilterMessage("applied").All()
	require.Len(t, infos, 1)
	assert.Equal(t, zap.InfoLevel, infos[0].Level)

	errs := logs.FilterMessage("boom").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zap.ErrorLevel, errs[0].Level)
}

func TestListWithoutPoolReturnsNothing(t *testing.T) {
	l := NewLog(nil, zap.NewNop().Sugar())
	entries, err := l.List(context.Background(), "t1", 10)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
