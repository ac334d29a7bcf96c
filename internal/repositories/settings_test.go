package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/gumshoe/internal/models"
	"github.com/myrjola/gumshoe/internal/repositories"
	"github.com/myrjola/gumshoe/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewSettingsRepository(newTestDB(t), testhelpers.NewLogger(io.Discard))

	tests := []struct {
		name  string
		saved *models.VoiceSettings
		want  models.VoiceSettings
	}{
		{
			name: "defaults when nothing is saved",
			want: models.DefaultVoiceSettings(),
		},
		{
			name:  "saved settings are returned",
			saved: &models.VoiceSettings{Enabled: true, APIKey: "sk-test", Model: "tts-1", Voice: "nova"},
			want:  models.VoiceSettings{Enabled: true, APIKey: "sk-test", Model: "tts-1", Voice: "nova"},
		},
		{
			name:  "saving again overwrites",
			saved: &models.VoiceSettings{Enabled: false, APIKey: "", Model: "tts-1", Voice: "echo"},
			want:  models.VoiceSettings{Enabled: false, APIKey: "", Model: "tts-1", Voice: "echo"},
		},
		{
			name:  "empty model and voice fall back to defaults",
			saved: &models.VoiceSettings{Enabled: true, APIKey: "sk-test"},
			want: models.VoiceSettings{Enabled: true, APIKey: "sk-test", Model: models.DefaultSpeechModel,
				Voice: models.DefaultSpeechVoice},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.saved != nil {
				require.NoError(t, repo.Save(ctx, "player-1", *tt.saved))
			}
			got, err := repo.Get(ctx, "player-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("players do not share settings", func(t *testing.T) {
		got, err := repo.Get(ctx, "player-2")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultVoiceSettings(), got)
	})
}
