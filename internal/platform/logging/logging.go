package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide logger. dev: 人間向けのコンソール出力、
// release: JSON構造化ログ。呼び出し側が依存として引き回す（グローバル禁止）。
func New(mode string) (*zap.Logger, error) {
	switch mode {
	case "release":
		return zap.NewProduction()
	case "dev", "":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}
