package envstruct_test

import (
	"strings"
	"testing"

	"github.com/myrjola/gumshoe/internal/envstruct"
	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	type args struct {
		v         any
		lookupEnv func(string) (string, bool)
	}
	tests := []struct {
		name    string
		args    args
		want    any
		wantErr error
	}{
		{
			name: "nil",
			args: args{
				v:         nil,
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "not pointer",
			args: args{
				v:         struct{}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "empty struct",
			args: args{
				v:         &struct{}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    &struct{}{},
			wantErr: nil,
		},
		{
			name: "empty env",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					EnvVar string `env:"ENV_VAR"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want:    nil,
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "env is set",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					EnvVar string `env:"ENV_VAR"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "env_var", true },
			},
			want:    &struct{ EnvVar string }{EnvVar: "env_var"},
			wantErr: nil,
		},
		{
			name: "picks correct env variable",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					EnvVar      string `env:"ENV_VAR"`
					EnvVar2     string `env:"ENV_VAR2"`
					OtherValue  string
					OtherValue2 int
				}{},
				lookupEnv: func(s string) (string, bool) { return strings.ToLower(s), true },
			},
			want: &struct {
				EnvVar      string
				EnvVar2     string
				OtherValue  string
				OtherValue2 int
			}{EnvVar: "env_var", EnvVar2: "env_var2", OtherValue: "", OtherValue2: 0},
			wantErr: nil,
		},
		{
			name: "handles default value",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					EnvVarDefault string `env:"ENV_VAR_DEFAULT" envDefault:"default"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "", false },
			},
			want: &struct {
				EnvVarDefault string
			}{EnvVarDefault: "default"},
			wantErr: nil,
		},
		{
			name: "rejects unsupported kinds",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					EnvVar float64 `env:"ENV_VAR"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "1.5", true },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "parses ints and bools",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					QueueSize int  `env:"GUMSHOE_SPEECH_QUEUE_SIZE"`
					Tracing   bool `env:"GUMSHOE_TRACING" envDefault:"false"`
				}{},
				lookupEnv: func(s string) (string, bool) {
					if s == "GUMSHOE_SPEECH_QUEUE_SIZE" {
						return "16", true
					}
					return "", false
				},
			},
			want: &struct {
				QueueSize int
				Tracing   bool
			}{QueueSize: 16, Tracing: false},
			wantErr: nil,
		},
		{
			name: "invalid int",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					QueueSize int `env:"GUMSHOE_SPEECH_QUEUE_SIZE"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "sixteen", true },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "invalid bool",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Tracing bool `env:"GUMSHOE_TRACING"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "maybe", true },
			},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.args.v
			err := envstruct.Populate(v, tt.args.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.EqualValues(t, tt.want, v)
			}
		})
	}
}
