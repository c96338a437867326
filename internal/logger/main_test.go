package logger_test

import (
	"errors"
	"testing"

	"github.com/flowboard/flowboard/internal/logger"
)

func TestInit(t *testing.T) {
	type testCase struct {
		name    string
		cfg     logger.Log
		wantErr error
	}

	testCases := []testCase{
		{
			name: "console enabled log level info",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
		},
		{
			name: "console writer enabled",
			cfg: logger.Log{
				LogLevel:    "debug",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
		},
		{
			name: "report caller with trace level",
			cfg: logger.Log{
				LogLevel:     "trace",
				ServiceName:  "test",
				AppName:      "test",
				ReportCaller: true,
				Console:      logger.Console{Enabled: true},
			},
		},
		{
			name: "missing service name",
			cfg: logger.Log{
				LogLevel: "info",
				AppName:  "test",
			},
			wantErr: logger.ErrServiceNameIsEmpty,
		},
		{
			name: "missing app name",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			wantErr: logger.ErrAppNameIsEmpty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := logger.Init(tc.cfg)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Init() error = %v, want %v", err, tc.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init() unexpected error = %v", err)
			}
		})
	}
}

func TestInit_UnknownLevel(t *testing.T) {
	err := logger.Init(logger.Log{
		LogLevel:    "chatty",
		ServiceName: "test",
		AppName:     "test",
	})
	if err == nil {
		t.Fatal("expected error for unsupported log level")
	}
}
