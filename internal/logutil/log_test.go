package logutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		caption string
		cfg     *LogConfig
		level   zapcore.Level
		err     bool
	}{
		{
			caption: "the default config logs warnings",
			cfg:     NewLogConfig("", ""),
			level:   zapcore.WarnLevel,
		},
		{
			caption: "a level is case insensitive",
			cfg:     NewLogConfig("DEBUG", "text"),
			level:   zapcore.DebugLevel,
		},
		{
			caption: "json format",
			cfg:     NewLogConfig("info", "json"),
			level:   zapcore.InfoLevel,
		},
		{
			caption: "an unknown level is an error",
			cfg:     NewLogConfig("verbose", "text"),
			err:     true,
		},
		{
			caption: "an unknown format is an error",
			cfg:     NewLogConfig("info", "xml"),
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			lg := BgLogger()
			require.True(t, lg.Core().Enabled(tt.level))
			require.False(t, lg.Core().Enabled(tt.level-1))
		})
	}
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, InitLogger(NewLogConfig("warn", "text")))
	require.False(t, BgLogger().Core().Enabled(zapcore.InfoLevel))

	require.NoError(t, SetLevel("info"))
	require.True(t, BgLogger().Core().Enabled(zapcore.InfoLevel))

	require.Error(t, SetLevel("loud"))
	require.True(t, BgLogger().Core().Enabled(zapcore.InfoLevel))
}
