package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantKey    string
		wantClient bool
		wantErr    error
	}{
		{name: "disabled", cfg: Config{}, wantKey: "layers", wantErr: ErrAddressRequired},
		{name: "host port", cfg: Config{Address: "localhost:6379"}, wantKey: "modelcfg:layers", wantClient: true},
		{name: "url with prefix", cfg: Config{Address: "redis://localhost:6379/2", Prefix: "ws"}, wantKey: "ws:layers", wantClient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.cfg.Validate())
			assert.Equal(t, tt.wantKey, tt.cfg.PrefixKey("layers"))

			client, err := NewClient(&tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantClient, client != nil)
			require.NoError(t, client.Close())
		})
	}
}
