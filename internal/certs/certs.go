// Package certs keeps a self-signed localhost certificate for serving the
// API over HTTPS without an external CA.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// Validity is how long a generated certificate lasts.
	Validity = 90 * 24 * time.Hour
	// RenewBefore regenerates certificates this close to expiry.
	RenewBefore = 7 * 24 * time.Hour

	certName = "tally-localhost.crt"
	keyName  = "tally-localhost.key"
)

// Store reads and writes the certificate pair in one directory.
type Store struct {
	now      func() time.Time
	dir      string
	certFile string
	keyFile  string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time used for validity checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		dir:      dir,
		certFile: filepath.Join(dir, certName),
		keyFile:  filepath.Join(dir, keyName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CertFile returns the path of the PEM certificate.
func (s *Store) CertFile() string { return s.certFile }

// TLSConfig returns a server config backed by LoadOrCreate.
func (s *Store) TLSConfig() (*tls.Config, error) {
	cert, err := s.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// LoadOrCreate returns the stored certificate, generating a new one when
// none exists, the files are unreadable, or it is close to expiry.
func (s *Store) LoadOrCreate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	switch {
	case err == nil:
		if s.usable(cert) == nil {
			return cert, nil
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		// Unparseable pair; fall through and overwrite it.
	}
	return s.generate()
}

func (s *Store) usable(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return errors.New("empty certificate chain")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parse certificate: %w", err)
	}

	now := s.now()
	if now.Before(leaf.NotBefore) {
		return errors.New("certificate not yet valid")
	}
	if now.Add(RenewBefore).After(leaf.NotAfter) {
		return errors.New("certificate expires soon")
	}
	return leaf.VerifyHostname("localhost")
}

func (s *Store) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial: %w", err)
	}

	now := s.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"Tally"}, CommonName: "localhost"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode key: %w", err)
	}

	if err := writePEM(s.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(s.certFile, s.keyFile)
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304 - path built from configured dir
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
