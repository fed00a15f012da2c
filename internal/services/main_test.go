package services

import (
	"os"
	"testing"

	"taskdesk/internal/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// В тестах пишем в никуда, без файлов и конфига
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}
