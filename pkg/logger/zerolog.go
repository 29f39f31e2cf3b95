package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ZerologHandler struct {
	logger zerolog.Logger
}

// NewZerolog returns a Logger backed by zerolog, for hosts already carrying
// a zerolog pipeline. args are alternating key/value pairs, slog style.
func NewZerolog(zl zerolog.Logger) *ZerologHandler {
	return &ZerologHandler{logger: zl}
}

func (handler *ZerologHandler) Error(msg string, args ...any) {
	withFields(handler.logger.Error(), args).Msg(msg)
}

func (handler *ZerologHandler) Warn(msg string, args ...any) {
	withFields(handler.logger.Warn(), args).Msg(msg)
}

func (handler *ZerologHandler) Info(msg string, args ...any) {
	withFields(handler.logger.Info(), args).Msg(msg)
}

func (handler *ZerologHandler) Debug(msg string, args ...any) {
	withFields(handler.logger.Debug(), args).Msg(msg)
}

func withFields(ev *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		ev = ev.Interface(key, args[i+1])
	}
	return ev
}
