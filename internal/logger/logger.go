// Package logger は構造化ログの出力設定を提供する。
// 本番はJSON、ローカル開発ではtintによるカラー表示のテキスト形式を使う。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// 出力形式。
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
func Setup(w io.Writer) *slog.Logger {
	return New(w, FormatJSON, slog.LevelInfo)
}

// New は指定形式とレベルのslog.Loggerを生成する。
// 未知の形式はJSONとして扱う。
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(handler)
}

// SetupDefault はログ出力をグローバルロガーとして設定し、設定したロガーを返す。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, format, level string) *slog.Logger {
	l := New(w, format, ParseLevel(level))
	slog.SetDefault(l)
	return l
}

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。未知の値はINFO。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PrintBanner はテキスト形式のときに起動バナーを出力する。
// JSON形式ではログ収集を乱さないよう何も出力しない。
func PrintBanner(w io.Writer, format, name string) {
	if w == nil || strings.ToLower(format) != FormatText {
		return
	}
	fmt.Fprintln(w, figure.NewFigure(name, "cybermedium", true).String())
}

// isTerminal は出力先が端末かを判定する。
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
