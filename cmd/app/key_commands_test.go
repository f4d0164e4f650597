package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	apperrors "github.com/allisson/kds/internal/errors"
)

func runKeyCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := &cli.Command{Name: "kds", Commands: getKeyCommands()}
	return root.Run(context.Background(), append([]string{"kds"}, args...))
}

func TestKeyCommands_RejectInvalidConfigBeforeCreatingMasterKey(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "set-key with unsupported key size",
			env:  map[string]string{"KDS_KEY_SIZE": "20"},
			args: []string{"set-key", "--owner", "alice"},
		},
		{
			name: "set-key with chacha20 and short key",
			env:  map[string]string{"KDS_ENCRYPTION_ALGORITHM": "chacha20-poly1305", "KDS_KEY_SIZE": "16"},
			args: []string{"set-key", "--owner", "alice", "--key", "c2VjcmV0"},
		},
		{
			name: "import-keys with unsupported key size",
			env:  map[string]string{"KDS_KEY_SIZE": "20"},
			args: []string{"import-keys"},
		},
		{
			name: "import-keys with unknown hash",
			env:  map[string]string{"KDS_HASH_ALGORITHM": "md5"},
			args: []string{"import-keys"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masterKeyPath := filepath.Join(t.TempDir(), "master.key")
			t.Setenv("KEY_STORE_DRIVER", "memory")
			t.Setenv("METRICS_ENABLED", "false")
			t.Setenv("KDS_MASTER_KEY", "file://"+masterKeyPath)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := runKeyCommand(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)

			_, statErr := os.Stat(masterKeyPath)
			assert.True(t, os.IsNotExist(statErr), "master key file must not be created")
		})
	}
}
