package certs

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, der []byte) *x509.Certificate {
	t.Helper()
	c, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return c
}

func TestStore_LoadOrCreate(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		setup      func(t *testing.T, dir string)
		name       string
		clock      time.Time
		regenerate bool
	}{
		{
			name:       "generates when missing",
			clock:      now,
			regenerate: true,
		},
		{
			name:  "reuses a valid certificate",
			clock: now.Add(30 * 24 * time.Hour),
			setup: func(t *testing.T, dir string) {
				t.Helper()
				_, err := NewStore(dir, WithClock(func() time.Time { return now })).LoadOrCreate()
				require.NoError(t, err)
			},
		},
		{
			name:       "renews close to expiry",
			clock:      now.Add(Validity - 24*time.Hour),
			regenerate: true,
			setup: func(t *testing.T, dir string) {
				t.Helper()
				_, err := NewStore(dir, WithClock(func() time.Time { return now })).LoadOrCreate()
				require.NoError(t, err)
			},
		},
		{
			name:       "replaces corrupt files",
			clock:      now,
			regenerate: true,
			setup: func(t *testing.T, dir string) {
				t.Helper()
				require.NoError(t, os.WriteFile(filepath.Join(dir, certName), []byte("junk"), 0o600))
				require.NoError(t, os.WriteFile(filepath.Join(dir, keyName), []byte("junk"), 0o600))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "certs")
			require.NoError(t, os.MkdirAll(dir, 0o700))

			var before []byte
			if tt.setup != nil {
				tt.setup(t, dir)
				before, _ = os.ReadFile(filepath.Join(dir, certName))
			}

			store := NewStore(dir, WithClock(func() time.Time { return tt.clock }))
			cert, err := store.LoadOrCreate()
			require.NoError(t, err)
			require.Len(t, cert.Certificate, 1)

			c := leaf(t, cert.Certificate[0])
			assert.Equal(t, "Tally", c.Subject.Organization[0])
			assert.NoError(t, c.VerifyHostname("localhost"))
			assert.NoError(t, c.VerifyHostname("127.0.0.1"))

			after, err := os.ReadFile(store.CertFile())
			require.NoError(t, err)
			if tt.regenerate {
				assert.NotEqual(t, before, after)
				assert.WithinDuration(t, tt.clock.Add(Validity), c.NotAfter, time.Second)
			} else {
				assert.Equal(t, before, after)
			}
		})
	}
}

func TestStore_TLSConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewStore(dir).TLSConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)

	info, err := os.Stat(filepath.Join(dir, keyName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
