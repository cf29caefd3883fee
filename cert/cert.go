// Package cert generates and loads the self-signed TLS certificate the
// daemon's gRPC listener presents to swapcli and any other local client,
// the same self-signed bootstrap model lnd's own cert submodule provides
// for its RPC interface.
package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// DefaultValidity is how long a generated certificate is valid for.
const DefaultValidity = 14 * 30 * 24 * time.Hour

// Options configures certificate generation.
type Options struct {
	Hosts      []string
	ExtraIPs   []net.IP
	ExtraDNS   []string
	Validity   time.Duration
	CommonName string
}

// GenerateAndWrite creates a self-signed EC certificate covering
// opts.Hosts (and localhost/127.0.0.1 always), writing the certificate
// and key as PEM to certPath/keyPath.
func GenerateAndWrite(certPath, keyPath string, opts Options) error {
	certPEM, keyPEM, err := Generate(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return fmt.Errorf("write cert: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

// Generate creates a self-signed EC certificate and returns its PEM-
// encoded certificate and private key.
func Generate(opts Options) (certPEM, keyPEM []byte, err error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	validity := opts.Validity
	if validity == 0 {
		validity = DefaultValidity
	}
	commonName := opts.CommonName
	if commonName == "" {
		commonName = "swapd autogenerated cert"
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName, Organization: []string{"swapd autocert"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              append([]string{"localhost"}, opts.ExtraDNS...),
		IPAddresses:           append([]net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}, opts.ExtraIPs...),
	}

	for _, host := range opts.Hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})

	keyBytes, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal key: %w", err)
	}
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})

	return certPEM, keyPEM, nil
}

// Load reads an existing cert/key pair from disk as a tls.Certificate
// suitable for grpc.Creds via credentials.NewServerTLSFromFile-style
// setup.
func Load(certPath, keyPath string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(certPath, keyPath)
}

// EnsureExists loads the cert/key pair at certPath/keyPath, generating a
// fresh self-signed pair and writing it there first if either file is
// missing.
func EnsureExists(certPath, keyPath string, opts Options) (tls.Certificate, error) {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	if os.IsNotExist(certErr) || os.IsNotExist(keyErr) {
		if err := GenerateAndWrite(certPath, keyPath, opts); err != nil {
			return tls.Certificate{}, err
		}
	}
	return Load(certPath, keyPath)
}
